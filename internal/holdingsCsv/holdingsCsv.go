package holdingsCsv

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/KotFed0t/portfolio_xray/internal/model"
)

var (
	ErrHeaderNotFound = errors.New("holdings header not found")
	ErrEmptyTable     = errors.New("holdings table has no columns")
)

var headerPattern = regexp.MustCompile(`(?i)^\s*ticker`)

// footer lines start the legal disclaimer appended to the export
var footerPrefixes = []string{"Questo documento", "The content"}

// headerMapping translates known export headers to canonical columns.
// Keys are lower cased and trimmed.
var headerMapping = map[string]string{
	"ticker dell'emittente": model.ColumnTicker,
	"ticker dell’emittente": model.ColumnTicker,
	"ticker":                model.ColumnTicker,
	"issuer ticker":         model.ColumnTicker,
	"nome":                  model.ColumnName,
	"name":                  model.ColumnName,
	"settore":               model.ColumnSector,
	"sector":                model.ColumnSector,
	"area geografica":       model.ColumnCountry,
	"location":              model.ColumnCountry,
	"country":               model.ColumnCountry,
	"asset class":           model.ColumnAssetClass,
	"asset_class":           model.ColumnAssetClass,
	"valore di mercato":     model.ColumnMarketValue,
	"market value":          model.ColumnMarketValue,
	"ponderazione (%)":      model.ColumnWeight,
	"weight (%)":            model.ColumnWeight,
	"weight":                model.ColumnWeight,
}

// Clean drops the fund description written above the table and the
// disclaimer written below it.
func Clean(raw []byte) ([]byte, error) {
	text := strings.ToValidUTF8(string(raw), "")
	text = strings.TrimPrefix(text, "\ufeff")
	lines := strings.SplitAfter(text, "\n")

	start := -1
	for i, line := range lines {
		if headerPattern.MatchString(line) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, ErrHeaderNotFound
	}

	lines = lines[start:]
	end := len(lines)
	for i, line := range lines {
		if isFooter(strings.TrimSpace(line)) {
			end = i
			break
		}
	}

	return []byte(strings.Join(lines[:end], "")), nil
}

// Parse reads a cleaned export. Known headers are renamed to canonical
// columns, unknown ones are dropped.
func Parse(clean []byte) (model.RawTable, error) {
	reader := csv.NewReader(bytes.NewReader(clean))
	reader.Comma = detectDelimiter(clean)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return model.RawTable{}, ErrEmptyTable
		}
		return model.RawTable{}, fmt.Errorf("read header: %w", err)
	}

	var (
		columns []string
		keep    []int
		seen    = make(map[string]bool)
	)
	for i, h := range header {
		canonical, ok := headerMapping[strings.ToLower(strings.TrimSpace(h))]
		if !ok || seen[canonical] {
			continue
		}
		seen[canonical] = true
		columns = append(columns, canonical)
		keep = append(keep, i)
	}
	if len(columns) == 0 {
		return model.RawTable{}, ErrEmptyTable
	}

	table := model.RawTable{Columns: columns}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return model.RawTable{}, fmt.Errorf("read record: %w", err)
		}
		if isBlank(record) {
			continue
		}

		row := make([]string, len(keep))
		for j, i := range keep {
			if i < len(record) {
				row[j] = record[i]
			}
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

// CleanAndParse is Clean followed by Parse.
func CleanAndParse(raw []byte) (model.RawTable, error) {
	clean, err := Clean(raw)
	if err != nil {
		return model.RawTable{}, err
	}
	return Parse(clean)
}

func isFooter(line string) bool {
	for _, prefix := range footerPrefixes {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// detectDelimiter picks between comma and semicolon looking at the header line.
func detectDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	if bytes.Count(line, []byte(";")) > bytes.Count(line, []byte(",")) {
		return ';'
	}
	return ','
}
