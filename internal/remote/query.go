package remote

import "strings"

type Op string

const (
	OpEq    Op = "eq"
	OpNeq   Op = "neq"
	OpIn    Op = "in"
	OpILike Op = "ilike"
)

// Filter is a single column predicate.
type Filter struct {
	Column string
	Op     Op
	Value  any
}

func Eq(column string, value any) Filter  { return Filter{Column: column, Op: OpEq, Value: value} }
func Neq(column string, value any) Filter { return Filter{Column: column, Op: OpNeq, Value: value} }

func In[T any](column string, values []T) Filter {
	vs := make([]any, len(values))
	for i, v := range values {
		vs[i] = v
	}
	return Filter{Column: column, Op: OpIn, Value: vs}
}

// ILike matches case-insensitively; pattern uses SQL wildcards (% and _).
func ILike(column, pattern string) Filter {
	return Filter{Column: column, Op: OpILike, Value: pattern}
}

// Group is a conjunction of filters, used as one branch of Query.Or.
type Group []Filter

func All(filters ...Filter) Group { return Group(filters) }

type Order struct {
	Column string
	Desc   bool
}

// Query describes a read, or the row selection of an update or delete.
// Where filters are ANDed together and with the Or clause, if any.
type Query struct {
	Table   string
	Columns []string
	Where   []Filter
	AnyOf   []Group
	OrderBy []Order
	Max     int
}

func From(table string) *Query { return &Query{Table: table} }

func (q *Query) Select(columns ...string) *Query {
	q.Columns = append(q.Columns, columns...)
	return q
}

func (q *Query) Eq(column string, value any) *Query {
	q.Where = append(q.Where, Eq(column, value))
	return q
}

func (q *Query) Neq(column string, value any) *Query {
	q.Where = append(q.Where, Neq(column, value))
	return q
}

func (q *Query) Filter(f Filter) *Query {
	q.Where = append(q.Where, f)
	return q
}

// Or adds a disjunction of conjunctions. Calling Or twice replaces the
// previous clause.
func (q *Query) Or(groups ...Group) *Query {
	q.AnyOf = groups
	return q
}

func (q *Query) Order(column string, desc bool) *Query {
	q.OrderBy = append(q.OrderBy, Order{Column: column, Desc: desc})
	return q
}

func (q *Query) Limit(n int) *Query {
	q.Max = n
	return q
}

func (q *Query) filtered() bool { return len(q.Where) > 0 || len(q.AnyOf) > 0 }

// EscapeLike escapes the LIKE wildcards in s so it matches literally.
func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// Contains builds a pattern matching any value that contains s.
func Contains(s string) string { return "%" + EscapeLike(s) + "%" }
