package ingest

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aouyang1/go-revenue-forecaster/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		cellName, err := excelize.CoordinatesToCellName(1, i+1)
		require.Nil(t, err)
		require.Nil(t, f.SetSheetRow("Sheet1", cellName, &row))
	}
	buf, err := f.WriteToBuffer()
	require.Nil(t, err)
	return buf
}

func TestReaderRead(t *testing.T) {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	buf := buildWorkbook(t, [][]any{
		{"Date", "Revenue", "Region"},
		{day, 100.5, "east"},
		{day.AddDate(0, 0, 1), 200, "east"},
		{"2024-01-03", "1,250.25", "west"},
		{day.AddDate(0, 0, 3), nil, "west"},
		{nil, 50, "west"},
		{"not a date", 10, "west"},
	})

	rd := NewReader(NewDefaultOptions(), logger.Discard())
	ds, err := rd.Read(context.Background(), buf)
	require.Nil(t, err)

	assert.Equal(t, "Sheet1", ds.Sheet)
	assert.Equal(t, []string{"Date", "Revenue", "Region"}, ds.Raw.Header)
	assert.Len(t, ds.Raw.Rows, 6)
	assert.Equal(t, 6, ds.RawRows)

	expected := []Point{
		{Timestamp: day, Value: 100.5},
		{Timestamp: day.AddDate(0, 0, 1), Value: 200},
		{Timestamp: day.AddDate(0, 0, 2), Value: 1250.25},
	}
	require.Len(t, ds.Points, len(expected))
	for i, p := range expected {
		assert.True(t, p.Timestamp.Equal(ds.Points[i].Timestamp), "index %d got %s", i, ds.Points[i].Timestamp)
		assert.Equal(t, p.Value, ds.Points[i].Value)
	}

	assert.Equal(t, 6, ds.Stats.Rows)
	assert.Equal(t, 2, ds.Stats.NullRows)
	assert.Equal(t, 1, ds.Stats.InvalidRows)
	assert.Equal(t, 3, ds.Stats.ValidRows)

	var dateErr *DateParseError
	require.ErrorAs(t, ds.Stats.FirstInvalid, &dateErr)
	assert.Equal(t, 7, dateErr.Row)

	assert.Len(t, ds.Preview(2), 2)
	assert.Len(t, ds.Preview(100), 3)
}

func TestReaderReadErrors(t *testing.T) {
	testData := map[string]struct {
		input    func(t *testing.T) *bytes.Buffer
		opt      Options
		checkErr func(t *testing.T, err error)
	}{
		"not a workbook": {
			input: func(t *testing.T) *bytes.Buffer {
				return bytes.NewBufferString("Date,Revenue\n2024-01-01,1\n")
			},
			opt: NewDefaultOptions(),
			checkErr: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrUnreadableWorkbook)
			},
		},
		"empty sheet": {
			input: func(t *testing.T) *bytes.Buffer {
				return buildWorkbook(t, nil)
			},
			opt: NewDefaultOptions(),
			checkErr: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrNoHeader)
			},
		},
		"missing revenue": {
			input: func(t *testing.T) *bytes.Buffer {
				return buildWorkbook(t, [][]any{{"Date", "Sales"}, {"2024-01-01", 1}})
			},
			opt: NewDefaultOptions(),
			checkErr: func(t *testing.T, err error) {
				var colErr *MissingColumnError
				require.ErrorAs(t, err, &colErr)
				assert.Equal(t, []string{"Revenue"}, colErr.Missing)
				assert.Equal(t, []string{"Date", "Sales"}, colErr.Available)
			},
		},
		"case sensitive columns": {
			input: func(t *testing.T) *bytes.Buffer {
				return buildWorkbook(t, [][]any{{"date", "revenue"}, {"2024-01-01", 1}})
			},
			opt: NewDefaultOptions(),
			checkErr: func(t *testing.T, err error) {
				var colErr *MissingColumnError
				require.ErrorAs(t, err, &colErr)
				assert.Equal(t, []string{"Date", "Revenue"}, colErr.Missing)
			},
		},
		"abort on bad value": {
			input: func(t *testing.T) *bytes.Buffer {
				return buildWorkbook(t, [][]any{{"Date", "Revenue"}, {"2024-01-01", 1}, {"2024-01-02", "lots"}})
			},
			opt: Options{DateColumn: "Date", ValueColumn: "Revenue", RowPolicy: RowPolicyAbort},
			checkErr: func(t *testing.T, err error) {
				var valErr *ValueParseError
				require.ErrorAs(t, err, &valErr)
				assert.Equal(t, 3, valErr.Row)
				assert.Equal(t, "lots", valErr.Value)
			},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			rd := NewReader(td.opt, logger.Discard())
			_, err := rd.Read(context.Background(), td.input(t))
			require.Error(t, err)
			td.checkErr(t, err)
		})
	}
}

func TestReaderReadCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rd := NewReader(NewDefaultOptions(), logger.Discard())
	_, err := rd.Read(ctx, buildWorkbook(t, [][]any{{"Date", "Revenue"}}))
	assert.True(t, errors.Is(err, context.Canceled))
}
