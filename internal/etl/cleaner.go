package etl

import (
	"github.com/BartekS5/activity-etl/pkg/models"
	"github.com/BartekS5/activity-etl/pkg/utils"
)

// SpeedFactor converts m/s to km/h.
const SpeedFactor = 3.6

// Clean turns a batch of normalized records into a typed table: numeric nulls
// and infinities become 0, text nulls become "", speeds are converted to
// km/h, every cell is cast to its registry type and id is renamed.
func Clean(records []models.Record, tableName string) (*models.Table, error) {
	columns := make(map[string][]interface{}, len(models.ActivitySchema))
	for _, col := range models.ActivitySchema {
		values := make([]interface{}, len(records))
		for i, rec := range records {
			values[i] = rec[col.Name]
		}

		switch {
		case col.Type.IsNumeric():
			for i, v := range values {
				values[i] = fillNumeric(v)
			}
		case col.Type == models.Text:
			for i, v := range values {
				if v == nil {
					values[i] = ""
				}
			}
		}
		columns[col.Name] = values
	}

	for _, name := range models.SpeedColumns {
		values := columns[name]
		for i, v := range values {
			f, err := utils.ConvertToFloat64(v)
			if err != nil {
				return nil, &CastError{Row: i, Column: name, Type: models.Float, Value: v, Err: err}
			}
			values[i] = f * SpeedFactor
		}
	}

	table := &models.Table{
		Name:    tableName,
		Columns: models.OutputColumns(),
		Rows:    make([][]interface{}, len(records)),
	}
	for i := range table.Rows {
		table.Rows[i] = make([]interface{}, len(models.ActivitySchema))
	}

	for j, col := range models.ActivitySchema {
		for i, v := range columns[col.Name] {
			cast, err := castValue(v, col.Type)
			if err != nil {
				return nil, &CastError{Row: i, Column: models.OutputName(col.Name), Type: col.Type, Value: v, Err: err}
			}
			table.Rows[i][j] = cast
		}
	}
	return table, nil
}

// fillNumeric maps infinities, nulls and empty strings to 0 and parses
// numeric strings. Unparseable strings are left for the final cast to reject.
func fillNumeric(v interface{}) interface{} {
	if utils.IsInf(v) {
		v = nil
	}
	if v == nil {
		return int64(0)
	}
	s, ok := v.(string)
	if !ok {
		return v
	}
	if s == "" {
		return int64(0)
	}
	if n, ok := utils.ParseNumber(s); ok {
		return n
	}
	return s
}

func castValue(v interface{}, typ models.ColumnType) (interface{}, error) {
	switch typ {
	case models.Integer:
		return utils.ConvertToInt64(v)
	case models.Float:
		return utils.ConvertToFloat64(v)
	case models.Text:
		return utils.ConvertToText(v)
	default:
		return utils.ConvertDateTime(v)
	}
}
