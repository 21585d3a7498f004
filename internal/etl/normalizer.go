package etl

import (
	"fmt"
	"regexp"
	"time"
	"unicode/utf8"

	"github.com/BartekS5/activity-etl/pkg/models"
	"github.com/BartekS5/activity-etl/pkg/utils"
)

var bracketGroup = regexp.MustCompile(`[\(\[].*?[\)\]]`)

// Normalize projects a raw API record onto the schema registry. Missing keys
// become nil; values are copied without coercion.
func Normalize(raw models.RawActivity) (models.Record, error) {
	rec := make(models.Record, len(models.ActivitySchema))

	for _, col := range models.ScalarFields {
		v, _ := raw.Lookup(col)
		rec[col] = v
	}

	start, err := normalizeStartDate(raw)
	if err != nil {
		return nil, err
	}
	rec[models.StartDateColumn] = start

	tz, err := normalizeTimezone(raw)
	if err != nil {
		return nil, err
	}
	rec[models.TimezoneColumn] = tz

	rec[models.LatColumn], rec[models.LngColumn] = splitLatLng(raw)
	return rec, nil
}

// ParseStartDate parses the API start_date layout. Fractional seconds are
// rejected, which time.Parse would otherwise accept.
func ParseStartDate(s string) (time.Time, error) {
	if len(s) != len(utils.StartDateLayout) {
		return time.Time{}, fmt.Errorf("%w: start_date %q does not match %s", ErrMalformedField, s, utils.StartDateLayout)
	}
	t, err := time.Parse(utils.StartDateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: start_date %q: %v", ErrMalformedField, s, err)
	}
	return t, nil
}

func normalizeStartDate(raw models.RawActivity) (interface{}, error) {
	v, p := raw.Lookup(models.StartDateColumn)
	if p != models.Present {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("%w: start_date is %T", ErrMalformedField, v)
	}
	t, err := ParseStartDate(s)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func normalizeTimezone(raw models.RawActivity) (interface{}, error) {
	v, p := raw.Lookup(models.TimezoneColumn)
	if p != models.Present {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("%w: timezone is %T", ErrMalformedField, v)
	}
	return StripTimezone(s), nil
}

// StripTimezone removes bracketed groups such as "(GMT+00:00)" and then drops
// the single separator character that precedes the zone name.
func StripTimezone(s string) string {
	stripped := bracketGroup.ReplaceAllString(s, "")
	if stripped == "" {
		return ""
	}
	_, size := utf8.DecodeRuneInString(stripped)
	return stripped[size:]
}

// splitLatLng is all-or-nothing: both values or neither.
func splitLatLng(raw models.RawActivity) (interface{}, interface{}) {
	v, p := raw.Lookup("start_latlng")
	if p != models.Present {
		return nil, nil
	}
	pair, ok := v.([]interface{})
	if !ok || len(pair) != 2 {
		return nil, nil
	}
	return pair[0], pair[1]
}
