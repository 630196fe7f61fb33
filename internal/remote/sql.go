package remote

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

type Dialect int

const (
	DialectSQLite Dialect = iota
	DialectPostgres
)

// SQLGateway implements Gateway on a database/sql pool.
type SQLGateway struct {
	db      *sql.DB
	dialect Dialect
}

func NewSQLGateway(db *sql.DB, dialect Dialect) *SQLGateway {
	return &SQLGateway{db: db, dialect: dialect}
}

func (g *SQLGateway) Close() error { return g.db.Close() }

func (g *SQLGateway) Select(ctx context.Context, q *Query) ([]Record, error) {
	t, err := lookup(q.Table, queryColumns(q)...)
	if err != nil {
		return nil, err
	}

	b := g.builder()
	b.WriteString("SELECT ")
	b.WriteString(selectList(q.Columns))
	b.WriteString(" FROM ")
	b.WriteString(t.Name)
	b.where(q)
	if len(q.OrderBy) > 0 {
		parts := make([]string, len(q.OrderBy))
		for i, o := range q.OrderBy {
			dir := "ASC"
			if o.Desc {
				dir = "DESC"
			}
			parts[i] = o.Column + " " + dir
		}
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(parts, ", "))
	}
	if q.Max > 0 {
		fmt.Fprintf(b, " LIMIT %d", q.Max)
	}

	return g.query(ctx, t, b.String(), b.args...)
}

func (g *SQLGateway) Count(ctx context.Context, q *Query) (int, error) {
	t, err := lookup(q.Table, queryColumns(q)...)
	if err != nil {
		return 0, err
	}

	b := g.builder()
	b.WriteString("SELECT COUNT(*) FROM ")
	b.WriteString(t.Name)
	b.where(q)

	var n int
	if err := g.db.QueryRowContext(ctx, b.String(), b.args...).Scan(&n); err != nil {
		return 0, g.translate(err)
	}
	return n, nil
}

func (g *SQLGateway) Insert(ctx context.Context, table string, rec Record) (Record, error) {
	cols := recordColumns(rec)
	t, err := lookup(table, cols...)
	if err != nil {
		return nil, err
	}

	b := g.builder()
	g.insertInto(b, t, cols, rec)
	b.WriteString(" RETURNING *")

	return g.one(ctx, t, b)
}

func (g *SQLGateway) Upsert(ctx context.Context, table string, rec Record, onConflict ...string) (Record, error) {
	cols := recordColumns(rec)
	t, err := lookup(table, append(cols, onConflict...)...)
	if err != nil {
		return nil, err
	}
	if len(onConflict) == 0 {
		return nil, remoteError(CodeInternal, "upsert on %q needs conflict columns", table)
	}

	b := g.builder()
	g.insertInto(b, t, cols, rec)
	b.WriteString(" ON CONFLICT (")
	b.WriteString(strings.Join(onConflict, ", "))
	b.WriteString(")")

	var sets []string
	for _, c := range cols {
		if t.immutable(c) || contains(onConflict, c) {
			continue
		}
		sets = append(sets, c+" = excluded."+c)
	}
	if len(sets) == 0 {
		// Nothing to overwrite; touch a key column so RETURNING still
		// yields the existing row.
		sets = append(sets, onConflict[0]+" = excluded."+onConflict[0])
	}
	b.WriteString(" DO UPDATE SET ")
	b.WriteString(strings.Join(sets, ", "))
	b.WriteString(" RETURNING *")

	return g.one(ctx, t, b)
}

func (g *SQLGateway) Update(ctx context.Context, q *Query, patch Record) ([]Record, error) {
	cols := recordColumns(patch)
	t, err := lookup(q.Table, append(cols, queryColumns(q)...)...)
	if err != nil {
		return nil, err
	}
	if !q.filtered() {
		return nil, remoteError(CodeUnfilteredMutation, "UPDATE requires a WHERE clause")
	}
	if len(cols) == 0 {
		return g.Select(ctx, q)
	}

	b := g.builder()
	b.WriteString("UPDATE ")
	b.WriteString(t.Name)
	b.WriteString(" SET ")
	for i, c := range cols {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(c)
		b.WriteString(" = ")
		b.WriteString(b.arg(patch[c]))
	}
	b.where(q)
	b.WriteString(" RETURNING *")

	return g.query(ctx, t, b.String(), b.args...)
}

func (g *SQLGateway) Delete(ctx context.Context, q *Query) (int, error) {
	t, err := lookup(q.Table, queryColumns(q)...)
	if err != nil {
		return 0, err
	}
	if !q.filtered() {
		return 0, remoteError(CodeUnfilteredMutation, "DELETE requires a WHERE clause")
	}

	b := g.builder()
	b.WriteString("DELETE FROM ")
	b.WriteString(t.Name)
	b.where(q)

	res, err := g.db.ExecContext(ctx, b.String(), b.args...)
	if err != nil {
		return 0, g.translate(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, g.translate(err)
	}
	return int(n), nil
}

func (g *SQLGateway) insertInto(b *sqlBuilder, t Table, cols []string, rec Record) {
	b.WriteString("INSERT INTO ")
	b.WriteString(t.Name)
	b.WriteString(" (")
	b.WriteString(strings.Join(cols, ", "))
	b.WriteString(") VALUES (")
	for i, c := range cols {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(b.arg(rec[c]))
	}
	b.WriteString(")")
}

func (g *SQLGateway) one(ctx context.Context, t Table, b *sqlBuilder) (Record, error) {
	rows, err := g.query(ctx, t, b.String(), b.args...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, remoteError(CodeNoRows, "statement on %q returned no row", t.Name)
	}
	return rows[0], nil
}

func (g *SQLGateway) query(ctx context.Context, t Table, query string, args ...any) ([]Record, error) {
	rows, err := g.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, g.translate(err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, g.translate(err)
	}

	var out []Record
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, g.translate(err)
		}
		rec := make(Record, len(cols))
		for i, c := range cols {
			rec[c] = values[i]
		}
		out = append(out, normalizeRecord(t, rec))
	}
	if err := rows.Err(); err != nil {
		return nil, g.translate(err)
	}
	return out, nil
}

// translate maps driver errors onto *Error, keeping Postgres SQLSTATE codes
// and mapping sqlite constraint errors onto the same codes.
func (g *SQLGateway) translate(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return &Error{
			Kind:    ErrorRemote,
			Code:    pgErr.Code,
			Message: pgErr.Message,
			Details: pgErr.Detail,
			Hint:    pgErr.Hint,
			Err:     err,
		}
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		code := CodeInternal
		switch liteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			code = CodeUniqueViolation
		case sqlite3.ErrConstraintForeignKey:
			code = CodeForeignKeyViolation
		case sqlite3.ErrConstraintCheck:
			code = CodeCheckViolation
		}
		return &Error{Kind: ErrorRemote, Code: code, Message: liteErr.Error(), Err: err}
	}

	var netErr net.Error
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) || errors.As(err, &netErr) {
		return transportError(err)
	}

	return &Error{Kind: ErrorRemote, Code: CodeInternal, Message: err.Error(), Err: err}
}

type sqlBuilder struct {
	strings.Builder
	dialect Dialect
	args    []any
}

func (g *SQLGateway) builder() *sqlBuilder { return &sqlBuilder{dialect: g.dialect} }

func (b *sqlBuilder) arg(v any) string {
	b.args = append(b.args, v)
	if b.dialect == DialectPostgres {
		return fmt.Sprintf("$%d", len(b.args))
	}
	return "?"
}

func (b *sqlBuilder) where(q *Query) {
	var conds []string
	for _, f := range q.Where {
		conds = append(conds, b.filter(f))
	}
	if len(q.AnyOf) > 0 {
		branches := make([]string, len(q.AnyOf))
		for i, g := range q.AnyOf {
			parts := make([]string, len(g))
			for j, f := range g {
				parts[j] = b.filter(f)
			}
			branches[i] = "(" + strings.Join(parts, " AND ") + ")"
		}
		conds = append(conds, "("+strings.Join(branches, " OR ")+")")
	}
	if len(conds) == 0 {
		return
	}
	b.WriteString(" WHERE ")
	b.WriteString(strings.Join(conds, " AND "))
}

func (b *sqlBuilder) filter(f Filter) string {
	switch f.Op {
	case OpNeq:
		if f.Value == nil {
			return f.Column + " IS NOT NULL"
		}
		return f.Column + " <> " + b.arg(f.Value)
	case OpIn:
		values, _ := f.Value.([]any)
		if len(values) == 0 {
			return "1 = 0"
		}
		ph := make([]string, len(values))
		for i, v := range values {
			ph[i] = b.arg(v)
		}
		return f.Column + " IN (" + strings.Join(ph, ", ") + ")"
	case OpILike:
		// sqlite LIKE is already case-insensitive for ASCII.
		op := " LIKE "
		if b.dialect == DialectPostgres {
			op = " ILIKE "
		}
		return f.Column + op + b.arg(f.Value) + ` ESCAPE '\'`
	default:
		if f.Value == nil {
			return f.Column + " IS NULL"
		}
		return f.Column + " = " + b.arg(f.Value)
	}
}

func selectList(cols []string) string {
	if len(cols) == 0 {
		return "*"
	}
	return strings.Join(cols, ", ")
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
