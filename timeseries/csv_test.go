package timeseries

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

const wideCSV = `dt_pk,YELL,GRCA,unemployment
2020-01-31,100,200,3.5
2020-02-29,110,,3.6
2020-03-31,120,220,NA
2020-05-31,140,240,4.0`

func TestLoadFrameFromReader(t *testing.T) {
	frame, err := LoadFrameFromReader(strings.NewReader(wideCSV), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"YELL", "GRCA", "unemployment"}, frame.Columns)
	assert.Equal(t, 4, frame.Len())

	grca, err := frame.Column("GRCA")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(grca.Values[1]))
	assert.Equal(t, 240.0, grca.Values[3])

	_, err = frame.Column("ZION")
	assert.Error(t, err)
}

func TestLoadFrameColumnsFilter(t *testing.T) {
	opts := DefaultCSVOptions()
	opts.Columns = []string{"YELL"}

	frame, err := LoadFrameFromReader(strings.NewReader(wideCSV), opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"YELL"}, frame.Columns)
}

func TestLoadFrameMissingDateColumn(t *testing.T) {
	_, err := LoadFrameFromReader(strings.NewReader("date,YELL\n2020-01-01,1\n"), nil)
	assert.ErrorContains(t, err, "dt_pk")
}

func TestLoadFrameCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "visits.csv")
	require.NoError(t, os.WriteFile(path, []byte(wideCSV), 0o644))

	frame, err := LoadFrameCSV(path, DefaultCSVOptions())
	require.NoError(t, err)
	assert.Equal(t, 4, frame.Len())
}

func TestRegularizeForwardFills(t *testing.T) {
	frame, err := LoadFrameFromReader(strings.NewReader(wideCSV), nil)
	require.NoError(t, err)

	monthly := frame.Regularize()
	require.Equal(t, 5, monthly.Len())
	assert.Equal(t, time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC), monthly.Timestamps[0])
	assert.Equal(t, time.Date(2020, time.May, 1, 0, 0, 0, 0, time.UTC), monthly.Timestamps[4])

	yell, err := monthly.Column("YELL")
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 110, 120, 120, 140}, yell.Values)

	grca, err := monthly.Column("GRCA")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(grca.Values[1]), "empty cell stays missing")
	assert.Equal(t, 220.0, grca.Values[3], "absent month filled from the previous month")

	unemployment, err := monthly.Column("unemployment")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(unemployment.Values[3]), "fill carries a missing value forward")
}

func TestRegularizeKeepsTrailingGaps(t *testing.T) {
	const closed = `dt_pk,ACAD,OLDP
2020-01-31,100,100
2020-02-29,110,110
2020-03-31,120,
2020-04-30,130,`
	frame, err := LoadFrameFromReader(strings.NewReader(closed), nil)
	require.NoError(t, err)

	oldp, err := frame.Regularize().Column("OLDP")
	require.NoError(t, err)
	assert.Equal(t, 4, oldp.Len())
	assert.Equal(t, 2, oldp.DropNaN().Len())
}

func TestLoadFrameRejectsMalformedCell(t *testing.T) {
	const bad = `dt_pk,YELL,GRCA
2020-01-31,100,200
2020-02-29,110,12a4`
	_, err := LoadFrameFromReader(strings.NewReader(bad), nil)
	require.Error(t, err)
	assert.ErrorContains(t, err, "line 3")
	assert.ErrorContains(t, err, `"GRCA"`)
	assert.ErrorContains(t, err, "12a4")
}

func TestExogenousAlignAndSlice(t *testing.T) {
	frame, err := LoadFrameFromReader(strings.NewReader(wideCSV), nil)
	require.NoError(t, err)
	monthly := frame.Regularize()

	exog, err := monthly.Exogenous([]string{"unemployment"})
	require.NoError(t, err)
	assert.Equal(t, 5, exog.Rows())
	assert.Equal(t, 1, exog.Cols())

	aligned, err := exog.Align(monthly.Timestamps[:2])
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{3.5}, {3.6}}, aligned.Values)

	_, err = exog.Align(monthly.Timestamps[2:3])
	assert.ErrorContains(t, err, "missing value")

	_, err = exog.Align([]time.Time{time.Date(1999, time.January, 1, 0, 0, 0, 0, time.UTC)})
	assert.Error(t, err)

	tail := exog.Slice(3, 5)
	assert.Equal(t, 2, tail.Rows())
	assert.Equal(t, monthly.Timestamps[3], tail.Timestamps[0])

	_, err = monthly.Exogenous([]string{"missing"})
	assert.Error(t, err)
}

func TestColumnRequiresOrderedIndex(t *testing.T) {
	const repeated = `dt_pk,YELL
2020-01-31,100
2020-01-31,105
2020-02-29,110`
	frame, err := LoadFrameFromReader(strings.NewReader(repeated), nil)
	require.NoError(t, err)

	_, err = frame.Column("YELL")
	assert.ErrorContains(t, err, "not strictly increasing")

	yell, err := frame.Regularize().Column("YELL")
	require.NoError(t, err)
	assert.Equal(t, []float64{105, 110}, yell.Values)
}
