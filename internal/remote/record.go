package remote

import (
	"context"
	"time"

	"github.com/goccy/go-json"
)

// Record is one row keyed by column name. Values are normalized per column
// type: string, int64, float64, bool, time.Time or nil.
type Record map[string]any

func (r Record) String(col string) string {
	s, _ := r[col].(string)
	return s
}

func (r Record) StringPtr(col string) *string {
	s, ok := r[col].(string)
	if !ok {
		return nil
	}
	return &s
}

func (r Record) Int(col string) int {
	switch v := r[col].(type) {
	case int64:
		return int(v)
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

func (r Record) FloatPtr(col string) *float64 {
	switch v := r[col].(type) {
	case float64:
		return &v
	case int64:
		f := float64(v)
		return &f
	}
	return nil
}

func (r Record) Bool(col string) bool {
	b, _ := r[col].(bool)
	return b
}

func (r Record) Time(col string) time.Time {
	t, _ := r[col].(time.Time)
	return t
}

// Decode converts records into typed values through their JSON tags.
func Decode[T any](rows []Record) ([]T, error) {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		v, err := DecodeOne[T](row)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, nil
}

func DecodeOne[T any](rec Record) (*T, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, transportError(err)
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, transportError(err)
	}
	return &v, nil
}

// SelectAll runs q and decodes every row.
func SelectAll[T any](ctx context.Context, gw Gateway, q *Query) ([]T, error) {
	rows, err := gw.Select(ctx, q)
	if err != nil {
		return nil, err
	}
	return Decode[T](rows)
}

// Single runs q and expects exactly one row. Zero or several rows yield an
// *Error with CodeNoRows.
func Single[T any](ctx context.Context, gw Gateway, q *Query) (*T, error) {
	rows, err := gw.Select(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(rows) != 1 {
		return nil, remoteError(CodeNoRows, "JSON object requested, multiple (or no) rows returned (%d rows)", len(rows))
	}
	return DecodeOne[T](rows[0])
}

// MaybeSingle is Single with absence translated into (nil, nil). Several
// matching rows are still an error.
func MaybeSingle[T any](ctx context.Context, gw Gateway, q *Query) (*T, error) {
	rows, err := gw.Select(ctx, q.Limit(2))
	if err != nil {
		return nil, err
	}
	switch len(rows) {
	case 0:
		return nil, nil
	case 1:
		return DecodeOne[T](rows[0])
	}
	return nil, remoteError(CodeNoRows, "JSON object requested, multiple (or no) rows returned (%d rows)", len(rows))
}
