// Package models holds the activity schema registry and the record types
// that flow through the ETL pipeline.
package models

import "fmt"

// ColumnType is the semantic type of an output column.
type ColumnType int

const (
	Integer ColumnType = iota
	Float
	Text
	Timestamp
)

func (t ColumnType) String() string {
	switch t {
	case Integer:
		return "integer"
	case Float:
		return "float"
	case Text:
		return "text"
	case Timestamp:
		return "timestamp"
	default:
		return fmt.Sprintf("ColumnType(%d)", int(t))
	}
}

// IsNumeric reports whether the type is integer or float.
func (t ColumnType) IsNumeric() bool {
	return t == Integer || t == Float
}

// Column is one entry of the schema registry.
type Column struct {
	Name string
	Type ColumnType
}

const (
	// SourceIDColumn is the identifier key as the API delivers it.
	SourceIDColumn = "id"
	// ActivityIDColumn is the identifier column name in the loaded table.
	ActivityIDColumn = "activity_id"

	StartDateColumn = "start_date"
	TimezoneColumn  = "timezone"
	LatColumn       = "lat"
	LngColumn       = "lng"
)

// ScalarFields are copied verbatim from the API record.
var ScalarFields = []string{
	"id",
	"name",
	"distance",
	"moving_time",
	"elapsed_time",
	"total_elevation_gain",
	"type",
	"workout_type",
	"location_country",
	"achievement_count",
	"kudos_count",
	"comment_count",
	"athlete_count",
	"photo_count",
	"average_speed",
	"max_speed",
	"average_cadence",
	"average_temp",
	"average_heartrate",
	"max_heartrate",
	"suffer_score",
}

// SpeedColumns are stored in m/s by the API and loaded as km/h.
var SpeedColumns = []string{"average_speed", "max_speed"}

// ActivitySchema is the ordered schema registry. Column order is the order
// of the loaded table.
var ActivitySchema = []Column{
	{"id", Integer},
	{"name", Text},
	{"distance", Float},
	{"moving_time", Float},
	{"elapsed_time", Float},
	{"total_elevation_gain", Float},
	{"type", Text},
	{"workout_type", Text},
	{"location_country", Text},
	{"achievement_count", Integer},
	{"kudos_count", Integer},
	{"comment_count", Integer},
	{"athlete_count", Integer},
	{"photo_count", Integer},
	{"average_speed", Float},
	{"max_speed", Float},
	{"average_cadence", Float},
	{"average_temp", Float},
	{"average_heartrate", Float},
	{"max_heartrate", Integer},
	{"suffer_score", Integer},
	{StartDateColumn, Timestamp},
	{TimezoneColumn, Text},
	{LatColumn, Float},
	{LngColumn, Float},
}

var schemaIndex = func() map[string]ColumnType {
	m := make(map[string]ColumnType, len(ActivitySchema))
	for _, c := range ActivitySchema {
		m[c.Name] = c.Type
	}
	return m
}()

// TypeOf returns the registry type of the named column.
func TypeOf(name string) (ColumnType, bool) {
	t, ok := schemaIndex[name]
	return t, ok
}

// OutputName maps a registry column to its name in the loaded table.
func OutputName(name string) string {
	if name == SourceIDColumn {
		return ActivityIDColumn
	}
	return name
}

// OutputColumns returns the registry with the identifier renamed.
func OutputColumns() []Column {
	cols := make([]Column, len(ActivitySchema))
	for i, c := range ActivitySchema {
		cols[i] = Column{Name: OutputName(c.Name), Type: c.Type}
	}
	return cols
}
