package dbtypes

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// AttributeMap stores variant attributes (size, color, ...) as a JSONB object.
// The zero value and an empty map are interchangeable.
type AttributeMap map[string]string

func (m *AttributeMap) Scan(src any) error {
	if src == nil {
		*m = AttributeMap{}
		return nil
	}

	var raw []byte
	switch v := src.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("AttributeMap: unsupported Scan type %T", src)
	}

	if len(raw) == 0 {
		*m = AttributeMap{}
		return nil
	}

	parsed := map[string]string{}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("AttributeMap: decode: %w", err)
	}
	*m = parsed
	return nil
}

func (m AttributeMap) Value() (driver.Value, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	raw, err := json.Marshal(map[string]string(m))
	if err != nil {
		return nil, fmt.Errorf("AttributeMap: encode: %w", err)
	}
	return string(raw), nil
}

// GormDataType tells GORM which column type to use.
func (AttributeMap) GormDataType() string {
	return "jsonb"
}

// Fingerprint returns a canonical key-order-independent representation used
// for (sku, variant) identity lookups. Keys with empty values are dropped so
// `{size: ""}` and `{}` fingerprint identically.
func (m AttributeMap) Fingerprint() string {
	if len(m) == 0 {
		return ""
	}
	keys := make([]string, 0, len(m))
	for k, v := range m {
		if v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+m[k])
	}
	return strings.Join(parts, "|")
}

// Keys returns the attribute names in sorted order.
func (m AttributeMap) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
