package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// missingTokens are read as missing values, matching pandas' defaults.
var missingTokens = map[string]bool{
	"": true, "#N/A": true, "#N/A N/A": true, "#NA": true, "-1.#IND": true,
	"-1.#QNAN": true, "-NaN": true, "-nan": true, "1.#IND": true, "1.#QNAN": true,
	"<NA>": true, "N/A": true, "NA": true, "NULL": true, "NaN": true,
	"None": true, "n/a": true, "nan": true, "null": true,
}

// IsMissingToken reports whether a raw CSV cell denotes a missing value.
func IsMissingToken(s string) bool {
	return missingTokens[strings.TrimSpace(s)]
}

// ReadCSVFile reads a CSV file with a header row. See ReadCSV.
func ReadCSVFile(path string, maxRows int) (*Dataset, error) {
	f, err := os.Open(path) //nolint:gosec // path is built from the upload dir
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return ReadCSV(f, maxRows)
}

// ReadCSV reads a CSV stream with a header row, reading at most maxRows data
// rows when maxRows > 0. A column whose present values all parse as numbers
// becomes numeric; everything else is categorical. Datetimes are only
// produced by operations that parse them explicitly.
func ReadCSV(r io.Reader, maxRows int) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("csv has no header row")
		}
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	header = uniqueNames(header)

	raw := make([][]string, len(header))
	for rows := 0; maxRows <= 0 || rows < maxRows; rows++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv row %d: %w", rows+1, err)
		}
		for j := range header {
			cell := ""
			if j < len(rec) {
				cell = rec[j]
			}
			raw[j] = append(raw[j], cell)
		}
	}

	cols := make([]*Column, len(header))
	for j, name := range header {
		cols[j] = inferColumn(name, raw[j])
	}
	return New(cols...)
}

func inferColumn(name string, cells []string) *Column {
	nums := make([]float64, len(cells))
	numeric := true
	for i, s := range cells {
		if IsMissingToken(s) {
			nums[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			numeric = false
			break
		}
		nums[i] = v
	}
	if numeric {
		return NewNumeric(name, nums)
	}

	text := make([]string, len(cells))
	null := make([]bool, len(cells))
	for i, s := range cells {
		if IsMissingToken(s) {
			null[i] = true
			continue
		}
		text[i] = s
	}
	return NewCategorical(name, text, null)
}

// uniqueNames suffixes repeated header names the way pandas does: a, a.1, a.2.
func uniqueNames(header []string) []string {
	out := make([]string, len(header))
	taken := make(map[string]bool, len(header))
	suffix := make(map[string]int)
	for i, h := range header {
		name := h
		for taken[name] {
			suffix[h]++
			name = h + "." + strconv.Itoa(suffix[h])
		}
		taken[name] = true
		out[i] = name
	}
	return out
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.DateTime,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	time.DateOnly,
	"2006/01/02",
	"01/02/2006",
	"01/02/2006 15:04:05",
	"1/2/2006",
	"02-Jan-2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"20060102",
}

// ParseTime parses common date and timestamp layouts.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
