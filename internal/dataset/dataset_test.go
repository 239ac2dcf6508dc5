package dataset

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV_InfersKinds(t *testing.T) {
	in := "age,city,score\n25,A,1.5\n,B,NaN\n40,A,2\n"
	ds, err := ReadCSV(strings.NewReader(in), 0)
	require.NoError(t, err)

	assert.Equal(t, 3, ds.NumRows())
	assert.Equal(t, []string{"age", "city", "score"}, ds.Names())

	age, ok := ds.Column("age")
	require.True(t, ok)
	assert.Equal(t, KindNumeric, age.Kind)
	assert.Equal(t, 25.0, age.Num[0])
	assert.True(t, age.IsMissing(1))

	city, _ := ds.Column("city")
	assert.Equal(t, KindCategorical, city.Kind)
	assert.Equal(t, "B", city.Text[1])

	score, _ := ds.Column("score")
	assert.Equal(t, KindNumeric, score.Kind)
	assert.Equal(t, 1, score.MissingCount())
}

func TestReadCSV_MaxRowsAndRaggedRows(t *testing.T) {
	in := "a,b\n1,x\n2\n3,z\n4,w\n"
	ds, err := ReadCSV(strings.NewReader(in), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, ds.NumRows())

	b, _ := ds.Column("b")
	assert.True(t, b.IsMissing(1))
}

func TestReadCSV_DuplicateHeaders(t *testing.T) {
	ds, err := ReadCSV(strings.NewReader("\ufeffx,x,x\n1,2,3\n"), 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "x.1", "x.2"}, ds.Names())
}

func TestReadCSV_Empty(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""), 0)
	require.Error(t, err)
}

func TestReadCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.csv")
	require.NoError(t, os.WriteFile(path, []byte("n\n1\n2\n"), 0o600))

	ds, err := ReadCSVFile(path, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, ds.NumRows())

	_, err = ReadCSVFile(filepath.Join(t.TempDir(), "missing.csv"), 0)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestDataset_SetDropFilter(t *testing.T) {
	ds := MustNew(
		NewNumeric("a", []float64{1, 2, 3}),
		NewCategorical("b", []string{"x", "y", "z"}, nil),
	)

	require.NoError(t, ds.Set(NewNumeric("c", []float64{7, 8, 9})))
	assert.Equal(t, []string{"a", "b", "c"}, ds.Names())

	require.NoError(t, ds.Set(NewNumeric("a", []float64{0, 0, 0})))
	assert.Equal(t, []string{"a", "b", "c"}, ds.Names(), "replacement keeps position")

	err := ds.Set(NewNumeric("d", []float64{1}))
	require.ErrorIs(t, err, ErrLengthMismatch)

	assert.True(t, ds.Drop("b"))
	assert.False(t, ds.Drop("b"))

	ds.Filter([]bool{true, false, true})
	assert.Equal(t, 2, ds.NumRows())
	c, _ := ds.Column("c")
	assert.Equal(t, []float64{7, 9}, c.Num)
}

func TestDataset_CloneIsDeep(t *testing.T) {
	ds := MustNew(NewNumeric("a", []float64{1, 2}))
	cp := ds.Clone()
	c, _ := cp.Column("a")
	c.Num[0] = 99

	orig, _ := ds.Column("a")
	assert.Equal(t, 1.0, orig.Num[0])
}

func TestNew_RejectsDuplicates(t *testing.T) {
	_, err := New(NewNumeric("a", []float64{1}), NewNumeric("a", []float64{2}))
	require.Error(t, err)
}

func TestRecords_SanitizesValues(t *testing.T) {
	when := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	ds := MustNew(
		NewNumeric("n", []float64{1.5, math.NaN(), math.Inf(1)}),
		NewCategorical("s", []string{"a", "", "c"}, []bool{false, true, false}),
		NewDatetime("d", []time.Time{when, when.Add(90 * time.Minute), {}}, []bool{false, false, true}),
	)

	recs := ds.Records(0)
	require.Len(t, recs, 3)
	assert.Equal(t, 1.5, recs[0]["n"])
	assert.Nil(t, recs[1]["n"])
	assert.Nil(t, recs[2]["n"])
	assert.Nil(t, recs[1]["s"])
	assert.Equal(t, "2024-03-05", recs[0]["d"])
	assert.Equal(t, "2024-03-05 01:30:00", recs[1]["d"])
	assert.Nil(t, recs[2]["d"])

	assert.Len(t, ds.Records(2), 2)
}

func TestSanitizeNonFinite(t *testing.T) {
	ds := MustNew(NewNumeric("n", []float64{math.Inf(-1), 2}))
	ds.SanitizeNonFinite()
	c, _ := ds.Column("n")
	assert.True(t, c.IsMissing(0))
	assert.Equal(t, 2.0, c.Num[1])
}

func TestColumn_StringAndKey(t *testing.T) {
	c := NewNumeric("n", []float64{25, 32.5, math.NaN()})
	assert.Equal(t, "25", c.String(0))
	assert.Equal(t, "32.5", c.String(1))
	assert.Equal(t, "nan", c.String(2))
	assert.NotEqual(t, c.Key(2), NewCategorical("s", []string{"nan"}, nil).Key(0))

	cat := c.AsCategorical()
	assert.Equal(t, KindCategorical, cat.Kind)
	assert.Equal(t, "25", cat.Text[0])
	assert.True(t, cat.IsMissing(2))
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2024-01-15", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), true},
		{"2024-01-15 10:30:00", time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC), true},
		{"01/15/2024", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), true},
		{"not a date", time.Time{}, false},
		{"", time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseTime(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, tt.want.Equal(got), "got %v", got)
			}
		})
	}
}
