// Package bulk reads and writes the CSV interchange format for central
// inventory. Variant attributes travel as "variant.<name>" columns so one flat
// file can carry arbitrary attribute sets.
package bulk

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/meridianops/stockroute-backend/internal/centralinv"
	pkgerrors "github.com/meridianops/stockroute-backend/pkg/errors"
)

const variantColumnPrefix = "variant."

var exportBaseHeader = []string{"sku", "productId", "quantity", "lowStockThreshold", "routeToShops"}

// ParseImportCSV reads the import format into rows ready for upserting.
// Numeric fields parse leniently: a malformed quantity or threshold degrades
// to its zero value with a note on the row rather than rejecting the file.
// Unknown columns are ignored so exports from richer systems still load.
func ParseImportCSV(r io.Reader) ([]centralinv.ImportItem, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "csv is empty")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "csv: read header")
	}

	columns := map[string]int{}
	variantColumns := map[string]int{}
	for i, name := range header {
		name = strings.TrimSpace(name)
		if attr, ok := strings.CutPrefix(name, variantColumnPrefix); ok {
			if attr != "" {
				variantColumns[attr] = i
			}
			continue
		}
		columns[name] = i
	}
	if _, ok := columns["sku"]; !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "csv: missing required sku column")
	}

	var items []centralinv.ImportItem
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation,
				err, fmt.Sprintf("csv: read row %d", len(items)+1))
		}
		items = append(items, parseRow(record, columns, variantColumns))
	}
	return items, nil
}

func parseRow(record []string, columns, variantColumns map[string]int) centralinv.ImportItem {
	item := centralinv.ImportItem{
		SKU:       field(record, columns, "sku"),
		ProductID: field(record, columns, "productId"),
	}

	if raw := field(record, columns, "quantity"); raw != "" {
		qty, err := strconv.Atoi(raw)
		if err != nil {
			item.Notes = append(item.Notes, fmt.Sprintf("quantity %q is not numeric, defaulted to 0", raw))
		} else {
			item.Quantity = qty
		}
	}

	if raw := field(record, columns, "lowStockThreshold"); raw != "" {
		threshold, err := strconv.Atoi(raw)
		if err != nil {
			item.Notes = append(item.Notes,
				fmt.Sprintf("lowStockThreshold %q is not numeric, ignored", raw))
		} else {
			item.LowStockThreshold = &threshold
		}
	}

	// routeToShops is a comma-separated list inside one (quoted) cell.
	if raw := field(record, columns, "routeToShops"); raw != "" {
		for _, shopID := range strings.Split(raw, ",") {
			if shopID = strings.TrimSpace(shopID); shopID != "" {
				item.RouteToShops = append(item.RouteToShops, shopID)
			}
		}
	}

	for attr, idx := range variantColumns {
		if idx < len(record) {
			if value := strings.TrimSpace(record[idx]); value != "" {
				if item.VariantAttributes == nil {
					item.VariantAttributes = map[string]string{}
				}
				item.VariantAttributes[attr] = value
			}
		}
	}
	return item
}

func field(record []string, columns map[string]int, name string) string {
	idx, ok := columns[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

// WriteExportCSV writes items in the same shape the importer reads, so an
// export can be re-imported as-is. The variant columns are the union of every
// item's attribute names, sorted for a stable header; row order follows the
// input.
func WriteExportCSV(w io.Writer, items []centralinv.ItemDTO) error {
	variantKeys := map[string]bool{}
	for _, item := range items {
		for key := range item.VariantAttributes {
			variantKeys[key] = true
		}
	}
	sortedKeys := make([]string, 0, len(variantKeys))
	for key := range variantKeys {
		sortedKeys = append(sortedKeys, key)
	}
	sort.Strings(sortedKeys)

	header := make([]string, 0, len(exportBaseHeader)+len(sortedKeys))
	header = append(header, exportBaseHeader...)
	for _, key := range sortedKeys {
		header = append(header, variantColumnPrefix+key)
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}

	for _, item := range items {
		row := make([]string, 0, len(header))
		threshold := ""
		if item.LowStockThreshold != nil {
			threshold = strconv.Itoa(*item.LowStockThreshold)
		}
		row = append(row, item.SKU, item.ProductID, strconv.Itoa(item.Quantity), threshold, "")
		for _, key := range sortedKeys {
			row = append(row, item.VariantAttributes[key])
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row for sku %s: %w", item.SKU, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
