package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	header := []string{"Revenue", "Date"}
	testData := map[string]struct {
		rows     [][]string
		opt      Options
		expected []Point
		stats    NormalizeStats
		err      error
	}{
		"columns in any order": {
			rows: [][]string{
				{"10", "2024-01-02"},
				{"20", "2024-01-01"},
			},
			opt: NewDefaultOptions(),
			expected: []Point{
				{Timestamp: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Value: 10},
				{Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Value: 20},
			},
			stats: NormalizeStats{Rows: 2, ValidRows: 2},
		},
		"null tokens and short rows": {
			rows: [][]string{
				{"NaN", "2024-01-01"},
				{"5", "N/A"},
				{"7"},
				{"", ""},
				{"8", "45292"},
			},
			opt: NewDefaultOptions(),
			expected: []Point{
				{Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Value: 8},
			},
			stats: NormalizeStats{Rows: 4, NullRows: 3, ValidRows: 1},
		},
		"abort on date": {
			rows: [][]string{
				{"1", "2024-01-01"},
				{"2", "yesterday"},
			},
			opt: Options{DateColumn: "Date", ValueColumn: "Revenue", RowPolicy: RowPolicyAbort},
			err: &DateParseError{Row: 3, Value: "yesterday"},
		},
		"unknown policy": {
			opt: Options{DateColumn: "Date", ValueColumn: "Revenue", RowPolicy: "skip"},
			err: ErrUnknownRowPolicy,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			points, stats, err := Normalize(header, td.rows, 2, td.opt)
			if td.err != nil {
				if dateErr, ok := td.err.(*DateParseError); ok {
					var got *DateParseError
					require.ErrorAs(t, err, &got)
					assert.Equal(t, dateErr, got)
					return
				}
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, td.stats.Rows, stats.Rows)
			assert.Equal(t, td.stats.NullRows, stats.NullRows)
			assert.Equal(t, td.stats.InvalidRows, stats.InvalidRows)
			assert.Equal(t, td.stats.ValidRows, stats.ValidRows)
			require.Len(t, points, len(td.expected))
			for i := range td.expected {
				assert.True(t, td.expected[i].Timestamp.Equal(points[i].Timestamp))
				assert.Equal(t, td.expected[i].Value, points[i].Value)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	expected := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	testData := map[string]string{
		"iso":        "2024-03-05",
		"datetime":   "2024-03-05 00:00:00",
		"rfc3339":    "2024-03-05T00:00:00Z",
		"slashes":    "2024/03/05",
		"us":         "03/05/2024",
		"us short":   "3/5/2024",
		"month name": "Mar 5, 2024",
		"serial":     "45356",
		"padded":     "  2024-03-05 ",
		"compact":    "20240305",
	}
	for name, input := range testData {
		t.Run(name, func(t *testing.T) {
			ts, err := ParseDate(input)
			require.Nil(t, err)
			assert.True(t, expected.Equal(ts), "got %s", ts)
		})
	}

	ts, err := ParseDate("2024")
	require.Nil(t, err)
	assert.True(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Equal(ts), "got %s", ts)

	for _, input := range []string{"-3", "someday", "20241340", "2958466", "1e12", "+Inf"} {
		_, err := ParseDate(input)
		assert.Error(t, err, input)
	}
}

func TestParseValue(t *testing.T) {
	testData := map[string]struct {
		input    string
		expected float64
		err      bool
	}{
		"plain":     {input: "12.5", expected: 12.5},
		"thousands": {input: "1,234,567.89", expected: 1234567.89},
		"currency":  {input: "$2,000", expected: 2000},
		"negative":  {input: "-15", expected: -15},
		"text":      {input: "abc", err: true},
		"infinite":  {input: "Inf", err: true},
	}
	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			v, err := ParseValue(td.input)
			if td.err {
				assert.Error(t, err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, td.expected, v)
		})
	}
}

func TestMissingColumnError(t *testing.T) {
	_, _, err := ColumnIndexes([]string{"Day"}, NewDefaultOptions())
	var colErr *MissingColumnError
	require.ErrorAs(t, err, &colErr)
	assert.Equal(t, `missing required column(s) "Date", "Revenue", found [Day]`, colErr.Error())
}
