package db

import (
	"strconv"
	"strings"
)

// Query helps build SQL queries using bind parameters.
// Use Unsafe to write parts of a query and Param to add bind parameters.
// Placeholders are written in the style of the Dialect: ? for SQLite
// and $1, $2, ... for postgres.
// The final query and parameters can be retrieved using the Get method.
//
// The zero value builds SQLite queries.
type Query struct {
	Dialect Dialect
	b       strings.Builder
	params  []any
}

// NewQuery returns an empty query for the dialect.
func NewQuery(d Dialect) *Query {
	return &Query{Dialect: d}
}

// Unsafe writes a non-parameterized part of a query.
func (q *Query) Unsafe(s string) {
	q.b.WriteString(s)
}

// Param writes a placeholder and adds v as its bind parameter.
func (q *Query) Param(v any) {
	q.params = append(q.params, v)

	if q.Dialect == DialectPostgres {
		q.b.WriteString("$")
		q.b.WriteString(strconv.Itoa(len(q.params)))
		return
	}

	q.b.WriteString("?")
}

// Params writes multiple parameterized parts of a query separated by commas.
func (q *Query) Params(v ...any) {
	for i, p := range v {
		if i > 0 {
			q.b.WriteString(", ")
		}
		q.Param(p)
	}
}

// Get returns the constructed query and parameter values.
func (q *Query) Get() (string, []any) {
	return q.b.String(), q.params
}
