package etl

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/BartekS5/activity-etl/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func normalized(t *testing.T, raw models.RawActivity) models.Record {
	t.Helper()
	rec, err := Normalize(raw)
	require.NoError(t, err)
	return rec
}

func cell(t *testing.T, tbl *models.Table, row int, col string) interface{} {
	t.Helper()
	v, ok := tbl.Value(row, col)
	require.True(t, ok, "column %s missing", col)
	return v
}

func TestCleanConvertsSpeeds(t *testing.T) {
	rec := normalized(t, models.RawActivity{
		"id":            json.Number("1"),
		"average_speed": json.Number("10.0"),
		"max_speed":     json.Number("12.5"),
	})

	tbl, err := Clean([]models.Record{rec}, "strava_activity")
	require.NoError(t, err)
	assert.InDelta(t, 36.0, cell(t, tbl, 0, "average_speed"), 1e-9)
	assert.InDelta(t, 45.0, cell(t, tbl, 0, "max_speed"), 1e-9)
}

func TestCleanFillsNulls(t *testing.T) {
	tbl, err := Clean([]models.Record{normalized(t, models.RawActivity{})}, "strava_activity")
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 1)

	assert.Equal(t, int64(0), cell(t, tbl, 0, "activity_id"))
	assert.Equal(t, int64(0), cell(t, tbl, 0, "kudos_count"))
	assert.Equal(t, 0.0, cell(t, tbl, 0, "distance"))
	assert.Equal(t, 0.0, cell(t, tbl, 0, "average_speed"))
	assert.Equal(t, 0.0, cell(t, tbl, 0, "lat"))
	assert.Equal(t, "", cell(t, tbl, 0, "name"))
	assert.Equal(t, "", cell(t, tbl, 0, "timezone"))
	assert.Nil(t, cell(t, tbl, 0, "start_date"))
}

func TestCleanCastsToRegistryTypes(t *testing.T) {
	start := time.Date(2024, 1, 3, 7, 0, 0, 0, time.UTC)
	rec := normalized(t, models.RawActivity{
		"id":                json.Number("11223344556"),
		"name":              "Lunch Ride",
		"distance":          json.Number("25000"),
		"workout_type":      json.Number("10"),
		"max_heartrate":     json.Number("171.0"),
		"suffer_score":      "42",
		"average_heartrate": math.Inf(1),
		"kudos_count":       "",
		"start_date":        start.Format(time.RFC3339),
		"timezone":          "(GMT+00:00) Europe/London",
		"start_latlng":      []interface{}{json.Number("51.5"), json.Number("-0.1")},
	})

	tbl, err := Clean([]models.Record{rec}, "strava_activity")
	require.NoError(t, err)

	assert.Equal(t, int64(11223344556), cell(t, tbl, 0, "activity_id"))
	assert.Equal(t, "Lunch Ride", cell(t, tbl, 0, "name"))
	assert.Equal(t, 25000.0, cell(t, tbl, 0, "distance"))
	assert.Equal(t, "10", cell(t, tbl, 0, "workout_type"))
	assert.Equal(t, int64(171), cell(t, tbl, 0, "max_heartrate"))
	assert.Equal(t, int64(42), cell(t, tbl, 0, "suffer_score"))
	assert.Equal(t, 0.0, cell(t, tbl, 0, "average_heartrate"))
	assert.Equal(t, int64(0), cell(t, tbl, 0, "kudos_count"))
	assert.Equal(t, start, cell(t, tbl, 0, "start_date"))
	assert.Equal(t, "Europe/London", cell(t, tbl, 0, "timezone"))
	assert.Equal(t, 51.5, cell(t, tbl, 0, "lat"))
	assert.Equal(t, -0.1, cell(t, tbl, 0, "lng"))
}

func TestCleanRenamesIdentifier(t *testing.T) {
	recs := []models.Record{
		normalized(t, models.RawActivity{"id": json.Number("7")}),
		normalized(t, models.RawActivity{"id": json.Number("8")}),
	}
	tbl, err := Clean(recs, "strava_activity")
	require.NoError(t, err)

	assert.Equal(t, -1, tbl.Index("id"))
	assert.Equal(t, 0, tbl.Index("activity_id"))
	assert.Equal(t, int64(7), cell(t, tbl, 0, "activity_id"))
	assert.Equal(t, int64(8), cell(t, tbl, 1, "activity_id"))
	assert.Equal(t, "strava_activity", tbl.Name)
	assert.Len(t, tbl.Columns, len(models.ActivitySchema))
}

func TestCleanRejectsUncastableValue(t *testing.T) {
	rec := normalized(t, models.RawActivity{"kudos_count": "lots"})
	_, err := Clean([]models.Record{rec}, "strava_activity")

	var ce *CastError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "kudos_count", ce.Column)
	assert.Equal(t, models.Integer, ce.Type)
	assert.Equal(t, 0, ce.Row)
}

func TestCleanRejectsNonNumericSpeed(t *testing.T) {
	rec := normalized(t, models.RawActivity{"max_speed": "fast"})
	_, err := Clean([]models.Record{rec}, "strava_activity")

	var ce *CastError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "max_speed", ce.Column)
}

func TestCleanEmptyBatch(t *testing.T) {
	tbl, err := Clean(nil, "strava_activity")
	require.NoError(t, err)
	assert.Empty(t, tbl.Rows)
	assert.Len(t, tbl.Columns, len(models.ActivitySchema))
}
