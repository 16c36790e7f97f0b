package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// selectFrom renders a SELECT of the given columns.
func selectFrom(table string, columns []string) string {
	return "SELECT " + strings.Join(columns, ", ") + " FROM " + table
}

// insertReturning renders a named INSERT that returns the generated id and
// created timestamp.
func insertReturning(table string, columns []string) string {
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING id, created",
		table, joinColumns(columns), joinNamed(columns))
}

// versionedUpdate renders a named UPDATE guarded by the row version. The
// version column is bumped by the statement itself.
func versionedUpdate(table string, columns []string) string {
	sets := make([]string, 0, len(columns)+1)
	for _, column := range columns {
		sets = append(sets, column+" = :"+column)
	}
	sets = append(sets, "version = version + 1")
	return fmt.Sprintf("UPDATE %s SET %s WHERE id = :id AND version = :version", table, strings.Join(sets, ", "))
}

// without returns columns minus the excluded names.
func without(columns []string, excluded ...string) []string {
	skip := make(map[string]struct{}, len(excluded))
	for _, name := range excluded {
		skip[name] = struct{}{}
	}
	out := make([]string, 0, len(columns))
	for _, column := range columns {
		if _, ok := skip[column]; !ok {
			out = append(out, column)
		}
	}
	return out
}

// namedInsert runs an insertReturning statement and scans id and created
// into dest.
func namedInsert(ctx context.Context, target sqlx.ExtContext, query string, arg interface{}, dest ...interface{}) error {
	rows, err := sqlx.NamedQueryContext(ctx, target, query, arg)
	if err != nil {
		return err
	}
	defer rows.Close() //nolint:errcheck
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return err
		}
		return sql.ErrNoRows
	}
	if err := rows.Scan(dest...); err != nil {
		return err
	}
	return rows.Err()
}

// execAffected runs a statement and maps zero affected rows to sql.ErrNoRows.
func execAffected(ctx context.Context, target sqlx.ExtContext, query string, args ...interface{}) error {
	result, err := target.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// namedExecAffected is execAffected for named statements.
func namedExecAffected(ctx context.Context, target sqlx.ExtContext, query string, arg interface{}) error {
	result, err := sqlx.NamedExecContext(ctx, target, query, arg)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// inPlaceholders appends values to args and returns "$n,$m" for an IN list.
func inPlaceholders[T any](args []interface{}, values []T) ([]interface{}, string) {
	placeholders := make([]string, len(values))
	for i, value := range values {
		args = append(args, value)
		placeholders[i] = fmt.Sprintf("$%d", len(args))
	}
	return args, strings.Join(placeholders, ",")
}

// pageBounds clamps limit and offset the way every list endpoint does.
func pageBounds(limit, offset int) (int, int) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func joinColumns(columns []string) string {
	return strings.Join(columns, ", ")
}

func joinNamed(columns []string) string {
	named := make([]string, len(columns))
	for i, column := range columns {
		named[i] = ":" + column
	}
	return strings.Join(named, ", ")
}

// insertReturningID renders a named INSERT that returns only the generated id.
func insertReturningID(table string, columns []string) string {
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING id",
		table, joinColumns(columns), joinNamed(columns))
}
