package remote

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

type ColumnType int

const (
	TypeText ColumnType = iota
	TypeInt
	TypeFloat
	TypeBool
	TypeTime
	TypeDate
)

const dateLayout = "2006-01-02"

// Table declares the columns the gateway may read or write, the natural
// keys usable as upsert targets and the columns an upsert never overwrites.
type Table struct {
	Name      string
	Columns   map[string]ColumnType
	Immutable []string
}

func (t Table) has(column string) bool {
	_, ok := t.Columns[column]
	return ok
}

func (t Table) immutable(column string) bool {
	for _, c := range t.Immutable {
		if c == column {
			return true
		}
	}
	return false
}

func (t Table) columnNames() []string {
	names := make([]string, 0, len(t.Columns))
	for c := range t.Columns {
		names = append(names, c)
	}
	sort.Strings(names)
	return names
}

var schema = map[string]Table{}

func register(t Table) { schema[t.Name] = t }

func reviewTable(name, idCol, titleCol, posterCol, dateCol string, extra map[string]ColumnType) Table {
	cols := map[string]ColumnType{
		"id":          TypeText,
		"user_id":     TypeText,
		idCol:         TypeInt,
		titleCol:      TypeText,
		posterCol:     TypeText,
		"rating":      TypeInt,
		"review_text": TypeText,
		dateCol:       TypeDate,
		"created_at":  TypeTime,
		"updated_at":  TypeTime,
	}
	for c, ct := range extra {
		cols[c] = ct
	}
	return Table{Name: name, Columns: cols, Immutable: []string{"id", "created_at"}}
}

func init() {
	register(Table{Name: "profiles", Columns: map[string]ColumnType{
		"id":         TypeText,
		"username":   TypeText,
		"avatar_url": TypeText,
		"bio":        TypeText,
		"created_at": TypeTime,
		"updated_at": TypeTime,
	}, Immutable: []string{"id", "created_at"}})

	register(Table{Name: "friendships", Columns: map[string]ColumnType{
		"id":         TypeText,
		"user_id":    TypeText,
		"friend_id":  TypeText,
		"status":     TypeText,
		"pair_key":   TypeText,
		"created_at": TypeTime,
		"updated_at": TypeTime,
	}, Immutable: []string{"id", "created_at"}})

	register(reviewTable("movie_reviews", "movie_id", "movie_title", "movie_poster", "watched_date", nil))
	register(reviewTable("series_reviews", "series_id", "series_title", "series_poster", "watched_date", nil))
	register(reviewTable("game_reviews", "game_id", "game_title", "game_cover", "played_date", map[string]ColumnType{
		"hours_played": TypeFloat,
		"platform":     TypeText,
	}))

	register(Table{Name: "watchlist", Columns: map[string]ColumnType{
		"id":          TypeText,
		"user_id":     TypeText,
		"item_type":   TypeText,
		"item_id":     TypeInt,
		"item_title":  TypeText,
		"item_poster": TypeText,
		"item_rating": TypeFloat,
		"added_at":    TypeTime,
	}, Immutable: []string{"id", "added_at"}})

	register(Table{Name: "collections", Columns: map[string]ColumnType{
		"id":          TypeText,
		"user_id":     TypeText,
		"name":        TypeText,
		"description": TypeText,
		"is_public":   TypeBool,
		"created_at":  TypeTime,
		"updated_at":  TypeTime,
	}, Immutable: []string{"id", "created_at"}})

	register(Table{Name: "collection_items", Columns: map[string]ColumnType{
		"id":            TypeText,
		"collection_id": TypeText,
		"item_type":     TypeText,
		"item_id":       TypeInt,
		"item_title":    TypeText,
		"item_poster":   TypeText,
		"added_at":      TypeTime,
	}, Immutable: []string{"id", "added_at"}})

	register(Table{Name: "activities", Columns: map[string]ColumnType{
		"id":            TypeText,
		"user_id":       TypeText,
		"activity_type": TypeText,
		"item_type":     TypeText,
		"item_id":       TypeInt,
		"item_title":    TypeText,
		"content":       TypeText,
		"created_at":    TypeTime,
	}, Immutable: []string{"id", "created_at"}})

	register(Table{Name: "user_preferences", Columns: map[string]ColumnType{
		"user_id":    TypeText,
		"language":   TypeText,
		"theme":      TypeText,
		"updated_at": TypeTime,
	}, Immutable: []string{"user_id"}})
}

// lookup validates the table and every referenced column.
func lookup(table string, columns ...string) (Table, error) {
	t, ok := schema[table]
	if !ok {
		return Table{}, remoteError(CodeUndefinedTable, "relation %q does not exist", table)
	}
	for _, c := range columns {
		if !t.has(c) {
			return Table{}, remoteError(CodeUndefinedColumn, "column %q of relation %q does not exist", c, table)
		}
	}
	return t, nil
}

func queryColumns(q *Query) []string {
	cols := append([]string(nil), q.Columns...)
	for _, f := range q.Where {
		cols = append(cols, f.Column)
	}
	for _, g := range q.AnyOf {
		for _, f := range g {
			cols = append(cols, f.Column)
		}
	}
	for _, o := range q.OrderBy {
		cols = append(cols, o.Column)
	}
	return cols
}

func recordColumns(rec Record) []string {
	cols := make([]string, 0, len(rec))
	for c := range rec {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

// normalize converts a driver or JSON value into the canonical Go type for
// the column: string, int64, float64, bool, time.Time (UTC) or a
// "YYYY-MM-DD" string for dates.
func normalize(ct ColumnType, v any) any {
	if v == nil {
		return nil
	}
	if b, ok := v.([]byte); ok {
		v = string(b)
	}

	switch ct {
	case TypeInt:
		switch x := v.(type) {
		case int64:
			return x
		case int:
			return int64(x)
		case int32:
			return int64(x)
		case float64:
			return int64(x)
		case string:
			if n, err := strconv.ParseInt(x, 10, 64); err == nil {
				return n
			}
		}
	case TypeFloat:
		switch x := v.(type) {
		case float64:
			return x
		case float32:
			return float64(x)
		case int64:
			return float64(x)
		case int32:
			return float64(x)
		case int:
			return float64(x)
		case string:
			if f, err := strconv.ParseFloat(x, 64); err == nil {
				return f
			}
		}
	case TypeBool:
		switch x := v.(type) {
		case bool:
			return x
		case int64:
			return x != 0
		case int:
			return x != 0
		case float64:
			return x != 0
		case string:
			if b, err := strconv.ParseBool(x); err == nil {
				return b
			}
		}
	case TypeTime:
		switch x := v.(type) {
		case time.Time:
			return x.UTC()
		case string:
			if t, ok := parseTime(x); ok {
				return t
			}
		}
	case TypeDate:
		switch x := v.(type) {
		case time.Time:
			return x.Format(dateLayout)
		case string:
			if len(x) >= len(dateLayout) {
				return x[:len(dateLayout)]
			}
		}
	case TypeText:
		if t, ok := v.(time.Time); ok {
			return t.UTC().Format(time.RFC3339Nano)
		}
		return fmt.Sprint(v)
	}

	return v
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	dateLayout,
}

func parseTime(s string) (time.Time, bool) {
	s = strings.TrimSuffix(s, "Z")
	if strings.HasSuffix(s, "+00") {
		s += ":00"
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func normalizeRecord(t Table, rec Record) Record {
	for c, v := range rec {
		if ct, ok := t.Columns[c]; ok {
			rec[c] = normalize(ct, v)
		}
	}
	return rec
}
