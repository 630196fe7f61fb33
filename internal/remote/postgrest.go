package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// PostgRESTGateway talks to a hosted PostgREST endpoint (e.g. Supabase).
type PostgRESTGateway struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

type PostgRESTOption func(*PostgRESTGateway)

func WithHTTPClient(c *http.Client) PostgRESTOption {
	return func(g *PostgRESTGateway) { g.client = c }
}

func NewPostgRESTGateway(endpoint, apiKey string, opts ...PostgRESTOption) *PostgRESTGateway {
	g := &PostgRESTGateway{
		baseURL: strings.TrimRight(endpoint, "/") + "/rest/v1/",
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *PostgRESTGateway) Close() error { return nil }

func (g *PostgRESTGateway) Select(ctx context.Context, q *Query) ([]Record, error) {
	t, err := lookup(q.Table, queryColumns(q)...)
	if err != nil {
		return nil, err
	}
	params := encodeQuery(q)
	params.Set("select", selectList(q.Columns))
	if len(q.OrderBy) > 0 {
		parts := make([]string, len(q.OrderBy))
		for i, o := range q.OrderBy {
			dir := "asc"
			if o.Desc {
				dir = "desc"
			}
			parts[i] = o.Column + "." + dir
		}
		params.Set("order", strings.Join(parts, ","))
	}
	if q.Max > 0 {
		params.Set("limit", strconv.Itoa(q.Max))
	}

	var rows []Record
	if _, err := g.do(ctx, http.MethodGet, t.Name, params, nil, nil, &rows); err != nil {
		return nil, err
	}
	return normalizeRows(t, rows), nil
}

func (g *PostgRESTGateway) Count(ctx context.Context, q *Query) (int, error) {
	t, err := lookup(q.Table, queryColumns(q)...)
	if err != nil {
		return 0, err
	}
	params := encodeQuery(q)
	params.Set("select", "id")

	header := http.Header{"Prefer": {"count=exact"}}
	resp, err := g.do(ctx, http.MethodHead, t.Name, params, header, nil, nil)
	if err != nil {
		return 0, err
	}
	return parseContentRange(resp.Header.Get("Content-Range"))
}

func (g *PostgRESTGateway) Insert(ctx context.Context, table string, rec Record) (Record, error) {
	t, err := lookup(table, recordColumns(rec)...)
	if err != nil {
		return nil, err
	}
	header := http.Header{"Prefer": {"return=representation"}}
	return g.writeOne(ctx, t, http.MethodPost, url.Values{}, header, rec)
}

func (g *PostgRESTGateway) Upsert(ctx context.Context, table string, rec Record, onConflict ...string) (Record, error) {
	t, err := lookup(table, append(recordColumns(rec), onConflict...)...)
	if err != nil {
		return nil, err
	}
	params := url.Values{}
	if len(onConflict) > 0 {
		params.Set("on_conflict", strings.Join(onConflict, ","))
	}
	// PostgREST overwrites every sent column on merge, so keep the
	// immutable ones out of the payload unless they are the conflict key.
	body := make(Record, len(rec))
	for c, v := range rec {
		if t.immutable(c) && !contains(onConflict, c) {
			continue
		}
		body[c] = v
	}
	header := http.Header{"Prefer": {"return=representation,resolution=merge-duplicates"}}
	return g.writeOne(ctx, t, http.MethodPost, params, header, body)
}

func (g *PostgRESTGateway) Update(ctx context.Context, q *Query, patch Record) ([]Record, error) {
	t, err := lookup(q.Table, append(recordColumns(patch), queryColumns(q)...)...)
	if err != nil {
		return nil, err
	}
	if !q.filtered() {
		return nil, remoteError(CodeUnfilteredMutation, "UPDATE requires a WHERE clause")
	}
	header := http.Header{"Prefer": {"return=representation"}}
	var rows []Record
	if _, err := g.do(ctx, http.MethodPatch, t.Name, encodeQuery(q), header, patch, &rows); err != nil {
		return nil, err
	}
	return normalizeRows(t, rows), nil
}

func (g *PostgRESTGateway) Delete(ctx context.Context, q *Query) (int, error) {
	t, err := lookup(q.Table, queryColumns(q)...)
	if err != nil {
		return 0, err
	}
	if !q.filtered() {
		return 0, remoteError(CodeUnfilteredMutation, "DELETE requires a WHERE clause")
	}
	params := encodeQuery(q)
	params.Set("select", "id")
	header := http.Header{"Prefer": {"return=representation"}}
	var rows []Record
	if _, err := g.do(ctx, http.MethodDelete, t.Name, params, header, nil, &rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (g *PostgRESTGateway) writeOne(ctx context.Context, t Table, method string, params url.Values, header http.Header, body Record) (Record, error) {
	var rows []Record
	if _, err := g.do(ctx, method, t.Name, params, header, body, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, remoteError(CodeNoRows, "write on %q returned no row", t.Name)
	}
	return normalizeRecord(t, rows[0]), nil
}

type postgrestError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (g *PostgRESTGateway) do(ctx context.Context, method, table string, params url.Values, header http.Header, body any, out any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, transportError(err)
		}
		reader = bytes.NewReader(data)
	}

	u := g.baseURL + table
	if encoded := params.Encode(); encoded != "" {
		u += "?" + encoded
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, transportError(err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("apikey", g.apiKey)
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(err)
	}

	if resp.StatusCode >= 300 {
		var pe postgrestError
		if len(data) > 0 && json.Unmarshal(data, &pe) == nil && (pe.Code != "" || pe.Message != "") {
			return nil, &Error{
				Kind:    ErrorRemote,
				Code:    pe.Code,
				Message: pe.Message,
				Details: pe.Details,
				Hint:    pe.Hint,
				Status:  resp.StatusCode,
			}
		}
		kind := ErrorRemote
		if resp.StatusCode >= 500 {
			kind = ErrorTransport
		}
		return nil, &Error{
			Kind:    kind,
			Message: fmt.Sprintf("unexpected status %d", resp.StatusCode),
			Status:  resp.StatusCode,
		}
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return nil, transportError(fmt.Errorf("decode response: %w", err))
		}
	}
	return resp, nil
}

func normalizeRows(t Table, rows []Record) []Record {
	for _, r := range rows {
		normalizeRecord(t, r)
	}
	return rows
}

// encodeQuery renders Where and AnyOf in PostgREST filter syntax.
func encodeQuery(q *Query) url.Values {
	params := url.Values{}
	for _, f := range q.Where {
		params.Add(f.Column, encodeFilter(f, false))
	}
	if len(q.AnyOf) > 0 {
		branches := make([]string, len(q.AnyOf))
		for i, g := range q.AnyOf {
			parts := make([]string, len(g))
			for j, f := range g {
				parts[j] = f.Column + "." + encodeFilter(f, true)
			}
			if len(parts) == 1 {
				branches[i] = parts[0]
			} else {
				branches[i] = "and(" + strings.Join(parts, ",") + ")"
			}
		}
		params.Set("or", "("+strings.Join(branches, ",")+")")
	}
	return params
}

func encodeFilter(f Filter, nested bool) string {
	switch f.Op {
	case OpIn:
		values, _ := f.Value.([]any)
		parts := make([]string, len(values))
		for i, v := range values {
			parts[i] = quoteValue(formatValue(v))
		}
		return "in.(" + strings.Join(parts, ",") + ")"
	case OpILike:
		op, pattern := likeOperand(formatValue(f.Value))
		if nested {
			pattern = quoteValue(pattern)
		}
		return op + "." + pattern
	case OpNeq:
		if f.Value == nil {
			return "not.is.null"
		}
		v := formatValue(f.Value)
		if nested {
			v = quoteValue(v)
		}
		return "neq." + v
	default:
		if f.Value == nil {
			return "is.null"
		}
		v := formatValue(f.Value)
		if nested {
			v = quoteValue(v)
		}
		return "eq." + v
	}
}

func formatValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	case nil:
		return "null"
	}
	return fmt.Sprint(v)
}

// likeOperand turns a backslash-escaped LIKE pattern into a PostgREST
// operand. PostgREST rewrites every * in an ilike value to %, so a literal *
// cannot be expressed there; such patterns go out as an anchored imatch
// regex instead.
func likeOperand(pattern string) (op, value string) {
	if !strings.Contains(pattern, "*") {
		var b strings.Builder
		escaped := false
		for _, r := range pattern {
			switch {
			case escaped:
				b.WriteRune('\\')
				b.WriteRune(r)
				escaped = false
			case r == '\\':
				escaped = true
			case r == '%':
				b.WriteRune('*')
			default:
				b.WriteRune(r)
			}
		}
		return "ilike", b.String()
	}

	var b strings.Builder
	b.WriteByte('^')
	escaped := false
	for _, r := range pattern {
		switch {
		case escaped:
			b.WriteString(regexp.QuoteMeta(string(r)))
			escaped = false
		case r == '\\':
			escaped = true
		case r == '%':
			b.WriteString(".*")
		case r == '_':
			b.WriteByte('.')
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteByte('$')
	return "imatch", b.String()
}

// quoteValue wraps values holding PostgREST reserved characters in double
// quotes, as required inside in.() lists and or=() groups.
func quoteValue(s string) string {
	if !strings.ContainsAny(s, `,.:()" \`) {
		return s
	}
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

// parseContentRange reads the total from "0-24/42" or "*/42".
func parseContentRange(header string) (int, error) {
	_, total, ok := strings.Cut(header, "/")
	if !ok || total == "*" {
		return 0, &Error{Kind: ErrorTransport, Message: fmt.Sprintf("missing count in Content-Range %q", header)}
	}
	n, err := strconv.Atoi(total)
	if err != nil {
		return 0, transportError(err)
	}
	return n, nil
}
