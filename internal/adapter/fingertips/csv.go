package fingertips

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/couchcryptid/diabetes-care-api/internal/domain"
)

// Column headers of the Fingertips all_data CSV export.
const (
	colIndicatorID  = "Indicator ID"
	colAreaCode     = "Area Code"
	colAreaName     = "Area Name"
	colAreaType     = "Area Type"
	colParentCode   = "Parent Code"
	colParentName   = "Parent Name"
	colSex          = "Sex"
	colAge          = "Age"
	colCategoryType = "Category Type"
	colCategory     = "Category"
	colTimePeriod   = "Time period"
	colValue        = "Value"
	colCount        = "Count"
	colDenominator  = "Denominator"
)

var requiredColumns = []string{colAreaCode, colAreaName, colAreaType, colTimePeriod, colValue}

// ParseCSV decodes a Fingertips CSV export. Columns are matched by header
// name; empty numeric cells become absent values.
func ParseCSV(r io.Reader) ([]domain.IndicatorRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("empty csv")
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("csv missing column %q", col)
		}
	}

	var records []domain.IndicatorRecord
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}

		rec, err := parseRow(row, idx)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseRow(row []string, idx map[string]int) (domain.IndicatorRecord, error) {
	field := func(col string) string {
		i, ok := idx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	rec := domain.IndicatorRecord{
		AreaCode:     field(colAreaCode),
		AreaName:     field(colAreaName),
		AreaType:     domain.AreaType(field(colAreaType)),
		ParentCode:   field(colParentCode),
		ParentName:   field(colParentName),
		Sex:          field(colSex),
		Age:          field(colAge),
		CategoryType: field(colCategoryType),
		Category:     field(colCategory),
		TimePeriod:   field(colTimePeriod),
	}

	if s := field(colIndicatorID); s != "" {
		id, err := strconv.Atoi(s)
		if err != nil {
			return rec, fmt.Errorf("invalid %s %q", colIndicatorID, s)
		}
		rec.IndicatorID = domain.IndicatorID(id)
	}

	var err error
	if rec.Value, err = optionalFloat(colValue, field(colValue)); err != nil {
		return rec, err
	}
	if rec.Count, err = optionalFloat(colCount, field(colCount)); err != nil {
		return rec, err
	}
	if rec.Denominator, err = optionalFloat(colDenominator, field(colDenominator)); err != nil {
		return rec, err
	}
	return rec, nil
}

func optionalFloat(col, s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q", col, s)
	}
	return &v, nil
}
