package catalog

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/noah-isme/quotecalc/internal/common"
	"github.com/noah-isme/quotecalc/internal/pricing"
)

// Format identifies a catalog file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
)

var (
	// ErrUnsupportedFormat is returned for file formats the importer cannot read.
	ErrUnsupportedFormat = errors.New("unsupported catalog format")
	// ErrInvalidPrice is returned when a price cell is not a finite, non-negative number.
	ErrInvalidPrice = errors.New("invalid price")
	// ErrEmptySheet is returned when a workbook has no sheets.
	ErrEmptySheet = errors.New("workbook has no sheets")
)

// Column positions in the spreadsheet. A sixth column switches the third column to a
// display category and reads the payment type from the sixth instead.
const (
	colName = iota
	colPrice
	colCategory
	colDescription
	colShortDescription
	colPaymentType
)

// ParseFormat maps a name such as "CSV", ".xlsx" or a MIME type onto a Format.
func ParseFormat(value string) (Format, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if i := strings.Index(v, ";"); i >= 0 {
		v = strings.TrimSpace(v[:i])
	}
	switch strings.TrimPrefix(v, ".") {
	case "csv", "text/csv", "application/csv":
		return FormatCSV, nil
	case "xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return FormatXLSX, nil
	case "json", "application/json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, value)
	}
}

// LoadFile imports the catalog stored at path, choosing the format from its extension.
func LoadFile(path string) ([]pricing.Item, error) {
	format, err := ParseFormat(filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return Import(f, format)
}

// Import reads catalog items from r. The first spreadsheet row is a header and rows
// without a name are skipped.
func Import(r io.Reader, format Format) ([]pricing.Item, error) {
	switch format {
	case FormatCSV:
		reader := csv.NewReader(r)
		reader.FieldsPerRecord = -1
		reader.TrimLeadingSpace = true
		records, err := reader.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		return parseRecords(records)
	case FormatXLSX:
		book, err := excelize.OpenReader(r)
		if err != nil {
			return nil, fmt.Errorf("open workbook: %w", err)
		}
		defer book.Close()
		sheets := book.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrEmptySheet
		}
		records, err := book.GetRows(sheets[0])
		if err != nil {
			return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
		}
		return parseRecords(records)
	case FormatJSON:
		var items []pricing.Item
		if err := json.NewDecoder(r).Decode(&items); err != nil {
			return nil, fmt.Errorf("decode catalog json: %w", err)
		}
		for i := range items {
			if !items[i].PaymentType.Valid() {
				items[i].PaymentType = paymentLabel(string(items[i].PaymentType))
			}
			if err := common.ValidateStruct(items[i]); err != nil {
				return nil, fmt.Errorf("item %d: %w", i+1, err)
			}
		}
		return items, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

func parseRecords(records [][]string) ([]pricing.Item, error) {
	if len(records) == 0 {
		return []pricing.Item{}, nil
	}
	withPaymentColumn := len(records[0]) > colPaymentType
	items := make([]pricing.Item, 0, len(records)-1)
	for i, rec := range records[1:] {
		rowNum := i + 2
		name := cell(rec, colName)
		if name == "" {
			continue
		}
		price, err := parsePrice(cell(rec, colPrice))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNum, err)
		}
		item := pricing.Item{
			Name:             name,
			Price:            price,
			Description:      cell(rec, colDescription),
			ShortDescription: cell(rec, colShortDescription),
		}
		if withPaymentColumn {
			item.Category = cell(rec, colCategory)
			item.PaymentType = paymentLabel(cell(rec, colPaymentType))
		} else {
			item.PaymentType = paymentLabel(cell(rec, colCategory))
		}
		if err := common.ValidateStruct(item); err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNum, err)
		}
		items = append(items, item)
	}
	return items, nil
}

func cell(rec []string, idx int) string {
	if idx >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[idx])
}

func parsePrice(value string) (float64, error) {
	if value == "" {
		return 0, nil
	}
	price, err := strconv.ParseFloat(strings.ReplaceAll(value, ",", ""), 64)
	if err != nil || math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPrice, value)
	}
	return price, nil
}

// paymentLabel maps a spreadsheet label onto a payment type, defaulting to deposit.
func paymentLabel(value string) pricing.PaymentType {
	if p, err := pricing.ParsePaymentType(value); err == nil {
		return p
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "sub", "monthly", "recurring":
		return pricing.Subscription
	case "full payment", "full-payment", "one-time full":
		return pricing.Full
	default:
		return pricing.Deposit
	}
}
