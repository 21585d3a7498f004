package utils

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertToInt64(t *testing.T) {
	tests := []struct {
		name    string
		in      interface{}
		want    int64
		wantErr bool
	}{
		{"int", 3, 3, false},
		{"float truncates", 170.9, 170, false},
		{"json int", json.Number("12345678901"), 12345678901, false},
		{"json float", json.Number("42.0"), 42, false},
		{"numeric string", "17", 17, false},
		{"infinity", math.Inf(1), 0, true},
		{"word", "abc", 0, true},
		{"bool", true, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ConvertToInt64(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConvertToFloat64(t *testing.T) {
	f, err := ConvertToFloat64(json.Number("10.5"))
	require.NoError(t, err)
	assert.Equal(t, 10.5, f)

	f, err = ConvertToFloat64(int64(3))
	require.NoError(t, err)
	assert.Equal(t, 3.0, f)

	_, err = ConvertToFloat64("fast")
	assert.Error(t, err)
}

func TestConvertToText(t *testing.T) {
	s, err := ConvertToText(json.Number("1"))
	require.NoError(t, err)
	assert.Equal(t, "1", s)

	s, err = ConvertToText(nil)
	require.NoError(t, err)
	assert.Equal(t, "", s)

	_, err = ConvertToText([]interface{}{1})
	assert.Error(t, err)
}

func TestParseNumber(t *testing.T) {
	n, ok := ParseNumber("12")
	require.True(t, ok)
	assert.Equal(t, int64(12), n)

	n, ok = ParseNumber(" 2.5 ")
	require.True(t, ok)
	assert.Equal(t, 2.5, n)

	_, ok = ParseNumber("")
	assert.False(t, ok)
	_, ok = ParseNumber("n/a")
	assert.False(t, ok)
}

func TestConvertDateTime(t *testing.T) {
	v, err := ConvertDateTime("2024-01-03T07:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 3, 7, 30, 0, 0, time.UTC), v)

	v, err = ConvertDateTime(nil)
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = ConvertDateTime(json.Number("5"))
	assert.Error(t, err)
}

func TestIsInf(t *testing.T) {
	assert.True(t, IsInf(math.Inf(-1)))
	assert.False(t, IsInf(1.0))
	assert.False(t, IsInf("inf"))
}
