// Package analyzer computes per-column statistics of a session sample with
// an in-memory DuckDB database.
package analyzer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

// ErrUnreadable is returned when the sample cannot be loaded.
var ErrUnreadable = errors.New("could not read sample file")

// Column types reported by the analyzer.
const (
	TypeNumeric     = "numeric"
	TypeCategorical = "categorical"
)

const (
	histogramBins = 10
	topValues     = 10
	sampleTable   = "sample"
)

// nullTokens mirrors dataset.IsMissingToken for the common spellings.
var nullTokens = []string{"", "NA", "N/A", "NaN", "nan", "NULL", "null", "None", "n/a", "<NA>"}

// Bucket is one bar of a column distribution.
type Bucket struct {
	Label string `json:"label"`
	Value int64  `json:"value"`
}

// ColumnStats describes one column.
type ColumnStats struct {
	Name         string   `json:"name"`
	Type         string   `json:"type"`
	Missing      int64    `json:"missing"`
	MissingPct   float64  `json:"missing_pct"`
	Unique       int64    `json:"unique"`
	Distribution []Bucket `json:"distribution"`
}

// Report is the analysis of a whole file.
type Report struct {
	TotalRows int64         `json:"total_rows"`
	TotalCols int           `json:"total_cols"`
	Columns   []ColumnStats `json:"columns"`
}

// Analyzer runs column statistics.
type Analyzer struct {
	logger *slog.Logger
}

// New creates an Analyzer.
func New(logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Analyzer{logger: logger}
}

// AnalyzeFile loads the CSV at path and describes every column.
func (a *Analyzer) AnalyzeFile(ctx context.Context, path string) (*Report, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb connection: %w", err)
	}
	defer func() { _ = db.Close() }()

	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	load := fmt.Sprintf( //nolint:gosec // path and tokens are quoted
		"CREATE TABLE %s AS SELECT * FROM read_csv_auto(%s, header=true, nullstr=[%s])",
		sampleTable, quoteLiteral(path), literalList(nullTokens))
	if _, err := conn.ExecContext(ctx, load); err != nil {
		a.logger.Info("failed to load sample", "path", path, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}

	cols, err := describe(ctx, conn)
	if err != nil {
		return nil, err
	}

	report := &Report{TotalCols: len(cols), Columns: make([]ColumnStats, 0, len(cols))}
	if err := conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+sampleTable).Scan(&report.TotalRows); err != nil {
		return nil, fmt.Errorf("failed to count rows: %w", err)
	}

	for _, c := range cols {
		st, err := analyzeColumn(ctx, conn, c, report.TotalRows)
		if err != nil {
			return nil, fmt.Errorf("failed to analyze column %s: %w", c.name, err)
		}
		report.Columns = append(report.Columns, st)
	}

	a.logger.Debug("analyzed sample", "path", path, "rows", report.TotalRows, "cols", report.TotalCols)
	return report, nil
}

type columnInfo struct {
	name     string
	dataType string
}

func describe(ctx context.Context, conn *sql.Conn) ([]columnInfo, error) {
	rows, err := conn.QueryContext(ctx, `
		SELECT column_name, data_type
		FROM information_schema.columns
		WHERE table_name = ?
		ORDER BY ordinal_position`, sampleTable)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var cols []columnInfo
	for rows.Next() {
		var c columnInfo
		if err := rows.Scan(&c.name, &c.dataType); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}
	return cols, nil
}

func analyzeColumn(ctx context.Context, conn *sql.Conn, c columnInfo, total int64) (ColumnStats, error) {
	st := ColumnStats{Name: c.name, Type: TypeCategorical, Distribution: []Bucket{}}
	if isNumericType(c.dataType) {
		st.Type = TypeNumeric
	}

	col := quoteIdent(c.name)
	q := fmt.Sprintf("SELECT COUNT(*) - COUNT(%[1]s), COUNT(DISTINCT %[1]s) FROM %[2]s", col, sampleTable) //nolint:gosec // identifier is quoted
	if err := conn.QueryRowContext(ctx, q).Scan(&st.Missing, &st.Unique); err != nil {
		return st, err
	}
	if total > 0 {
		st.MissingPct = math.Round(float64(st.Missing)/float64(total)*1000) / 10
	}

	var err error
	if st.Type == TypeNumeric {
		st.Distribution, err = histogram(ctx, conn, col)
	} else {
		st.Distribution, err = topCounts(ctx, conn, col)
	}
	return st, err
}

// histogram counts values into equal-width bins over [min, max], the last
// bin closed on both ends. A constant column spans [v-0.5, v+0.5].
func histogram(ctx context.Context, conn *sql.Conn, col string) ([]Bucket, error) {
	var lo, hi sql.NullFloat64
	q := fmt.Sprintf("SELECT MIN(CAST(%[1]s AS DOUBLE)), MAX(CAST(%[1]s AS DOUBLE)) FROM %[2]s", col, sampleTable) //nolint:gosec // identifier is quoted
	if err := conn.QueryRowContext(ctx, q).Scan(&lo, &hi); err != nil {
		return nil, err
	}
	if !lo.Valid || !hi.Valid {
		return []Bucket{}, nil
	}
	low, high := lo.Float64, hi.Float64
	if low == high {
		low -= 0.5
		high += 0.5
	}
	width := (high - low) / histogramBins

	counts := make([]int64, histogramBins)
	q = fmt.Sprintf(`
		SELECT LEAST(CAST(FLOOR((CAST(%[1]s AS DOUBLE) - ?) / ?) AS BIGINT), %[3]d) AS bucket, COUNT(*)
		FROM %[2]s
		WHERE %[1]s IS NOT NULL
		GROUP BY bucket`, col, sampleTable, histogramBins-1) //nolint:gosec // identifier is quoted
	rows, err := conn.QueryContext(ctx, q, low, width)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var bucket, n int64
		if err := rows.Scan(&bucket, &n); err != nil {
			return nil, err
		}
		if bucket >= 0 && bucket < histogramBins {
			counts[bucket] += n
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]Bucket, histogramBins)
	for i := range out {
		from := low + float64(i)*width
		to := low + float64(i+1)*width
		if i == histogramBins-1 {
			to = high
		}
		out[i] = Bucket{Label: fmt.Sprintf("%.1f - %.1f", from, to), Value: counts[i]}
	}
	return out, nil
}

func topCounts(ctx context.Context, conn *sql.Conn, col string) ([]Bucket, error) {
	q := fmt.Sprintf(`
		SELECT CAST(%[1]s AS VARCHAR) AS v, COUNT(*) AS n
		FROM %[2]s
		WHERE %[1]s IS NOT NULL
		GROUP BY v
		ORDER BY n DESC, v
		LIMIT %[3]d`, col, sampleTable, topValues) //nolint:gosec // identifier is quoted
	rows, err := conn.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := []Bucket{}
	for rows.Next() {
		var b Bucket
		if err := rows.Scan(&b.Label, &b.Value); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func isNumericType(t string) bool {
	t = strings.ToUpper(t)
	if strings.HasPrefix(t, "DECIMAL") {
		return true
	}
	switch t {
	case "TINYINT", "SMALLINT", "INTEGER", "BIGINT", "HUGEINT",
		"UTINYINT", "USMALLINT", "UINTEGER", "UBIGINT", "UHUGEINT",
		"FLOAT", "REAL", "DOUBLE":
		return true
	}
	return false
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func literalList(xs []string) string {
	quoted := make([]string, len(xs))
	for i, x := range xs {
		quoted[i] = quoteLiteral(x)
	}
	return strings.Join(quoted, ", ")
}
