// Package querysql compiles run queries to parameterized SQLite SQL.
package querysql

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gradient-ai/jax-gradient/internal/queryir"
)

// RunColumns is the column list every compiled query selects, in scan order.
const RunColumns = "id, run_token, program_id, direction, inputs, consts, outputs, error_code, seq"

// orderBy is appended to every query.
// COLLATE BINARY keeps the tiebreak stable across SQLite versions.
const orderBy = " ORDER BY seq ASC, id COLLATE BINARY ASC"

// Compile converts q to SQL over the runs table.
// Returns (sql, params, error). Values are always bound as parameters.
func Compile(q queryir.Query) (string, []any, error) {
	if errs := queryir.Validate(q); len(errs) > 0 {
		return "", nil, fmt.Errorf("invalid run query: %w", errors.Join(errs...))
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(RunColumns)
	sb.WriteString(" FROM runs")

	var params []any
	if q.Filter != nil {
		where, whereParams, err := compilePredicate(q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		sb.WriteString(" WHERE ")
		sb.WriteString(where)
		params = whereParams
	}

	sb.WriteString(orderBy)

	if q.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		params = append(params, q.Limit)
	}

	return sb.String(), params, nil
}

// compilePredicate compiles a predicate to a WHERE fragment.
func compilePredicate(p queryir.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case queryir.Equals:
		return compileEquals(pred)
	case *queryir.Equals:
		return compileEquals(*pred)
	case queryir.Failed:
		return compileFailed(pred), nil, nil
	case *queryir.Failed:
		return compileFailed(*pred), nil, nil
	case queryir.And:
		return compileAnd(pred)
	case *queryir.And:
		return compileAnd(*pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

// compileEquals compiles to "field = ?". The field name is checked by
// queryir.Validate before it reaches the SQL text.
func compileEquals(eq queryir.Equals) (string, []any, error) {
	return fmt.Sprintf("%s = ?", eq.Field), []any{eq.Value}, nil
}

func compileFailed(f queryir.Failed) string {
	if f.Want {
		return "error_code != ''"
	}
	return "error_code = ''"
}

// compileAnd joins sub-predicates with AND. An empty And is always true.
func compileAnd(and queryir.And) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil
	}

	parts := make([]string, 0, len(and.Predicates))
	var params []any
	for _, pred := range and.Predicates {
		sql, predParams, err := compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		if _, nested := pred.(queryir.And); nested {
			sql = "(" + sql + ")"
		}
		parts = append(parts, sql)
		params = append(params, predParams...)
	}
	return strings.Join(parts, " AND "), params, nil
}
