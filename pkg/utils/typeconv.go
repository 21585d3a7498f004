package utils

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// StartDateLayout is the API's start_date format: UTC, no fractional seconds.
const StartDateLayout = "2006-01-02T15:04:05Z"

// ParseNumber parses a numeric string, preferring int64 over float64.
func ParseNumber(s string) (interface{}, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, true
	}
	return nil, false
}

// IsInf reports whether val is a floating point infinity.
func IsInf(val interface{}) bool {
	switch v := val.(type) {
	case float64:
		return math.IsInf(v, 0)
	case float32:
		return math.IsInf(float64(v), 0)
	default:
		return false
	}
}

// ConvertToInt64 casts val to int64. Finite floats are truncated.
func ConvertToInt64(val interface{}) (int64, error) {
	switch v := val.(type) {
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case float32:
		return floatToInt64(float64(v))
	case float64:
		return floatToInt64(v)
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, nil
		}
		f, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("cannot convert %q to int", v.String())
		}
		return floatToInt64(f)
	case string:
		n, ok := ParseNumber(v)
		if !ok {
			return 0, fmt.Errorf("cannot convert %q to int", v)
		}
		return ConvertToInt64(n)
	case []byte:
		return ConvertToInt64(string(v))
	default:
		return 0, fmt.Errorf("cannot convert %T to int", val)
	}
}

func floatToInt64(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("cannot convert %v to int", f)
	}
	if f > math.MaxInt64 || f < math.MinInt64 {
		return 0, fmt.Errorf("%v overflows int64", f)
	}
	return int64(f), nil
}

// ConvertToFloat64 casts val to float64.
func ConvertToFloat64(val interface{}) (float64, error) {
	switch v := val.(type) {
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("cannot convert %q to float", v.String())
		}
		return f, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("cannot convert %q to float", v)
		}
		return f, nil
	case []byte:
		return ConvertToFloat64(string(v))
	default:
		return 0, fmt.Errorf("cannot convert %T to float", val)
	}
}

// ConvertToText renders val as a string column value.
func ConvertToText(val interface{}) (string, error) {
	switch v := val.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case json.Number:
		return v.String(), nil
	case bool, int, int32, int64, float32, float64:
		return fmt.Sprintf("%v", v), nil
	default:
		return "", fmt.Errorf("cannot convert %T to text", val)
	}
}

// ConvertDateTime casts val to time.Time. nil stays nil.
func ConvertDateTime(val interface{}) (interface{}, error) {
	switch v := val.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return v, nil
	case string:
		formats := []string{
			StartDateLayout,
			time.RFC3339,
			time.RFC3339Nano,
			"2006-01-02 15:04:05",
		}
		for _, f := range formats {
			if t, err := time.Parse(f, v); err == nil {
				return t, nil
			}
		}
		return nil, fmt.Errorf("unable to parse datetime: %s", v)
	case []byte:
		return ConvertDateTime(string(v))
	default:
		return nil, fmt.Errorf("cannot convert %T to datetime", val)
	}
}
