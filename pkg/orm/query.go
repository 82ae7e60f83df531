package orm

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/Masterminds/squirrel"
)

// Query provides a fluent interface for building database queries
type Query[T any] struct {
	repo *Repository[T]
	err  error
	ctx  context.Context

	limit       *uint64
	offset      *uint64
	orderBy     []string
	whereClause squirrel.And
	joins       []join
	omit        map[string]struct{}
}

func (r *Repository[T]) Query(ctx context.Context) *Query[T] {
	return &Query[T]{
		repo:        r,
		ctx:         ctx,
		whereClause: squirrel.And{},
		joins:       make([]join, 0),
		omit:        make(map[string]struct{}),
	}
}

func (q *Query[T]) Where(condition Condition) *Query[T] {
	if q.err != nil {
		return q
	}
	q.whereClause = append(q.whereClause, condition.ToSqlizer())
	return q
}

// OrderBy replaces the model's default ordering for this query.
func (q *Query[T]) OrderBy(expressions ...string) *Query[T] {
	if q.err != nil {
		return q
	}
	q.orderBy = append(q.orderBy, expressions...)
	return q
}

func (q *Query[T]) Limit(limit uint64) *Query[T] {
	if q.err != nil {
		return q
	}
	q.limit = &limit
	return q
}

func (q *Query[T]) Offset(offset uint64) *Query[T] {
	if q.err != nil {
		return q
	}
	q.offset = &offset
	return q
}

// Omit drops columns from the select list. The matching fields of the returned
// records are left at their zero value.
func (q *Query[T]) Omit(columns ...string) *Query[T] {
	if q.err != nil {
		return q
	}
	for _, col := range columns {
		if col == q.repo.metadata.Table.PrimaryKey {
			q.err = fmt.Errorf("cannot omit primary key %s", col)
			return q
		}
		if !q.repo.metadata.hasColumn(col) {
			q.err = fmt.Errorf("%w: %s.%s", ErrUndefinedColumn, q.repo.metadata.Table.Name, col)
			return q
		}
		q.omit[col] = struct{}{}
	}
	return q
}

func (q *Query[T]) Join(joinType JoinType, table, condition string) *Query[T] {
	if q.err != nil {
		return q
	}
	q.joins = append(q.joins, join{
		Type:      joinType,
		Table:     table,
		Condition: condition,
	})
	return q
}

func (q *Query[T]) InnerJoin(table, condition string) *Query[T] {
	return q.Join(InnerJoin, table, condition)
}

func (q *Query[T]) LeftJoin(table, condition string) *Query[T] {
	return q.Join(LeftJoin, table, condition)
}

func (q *Query[T]) applyJoins(builder squirrel.SelectBuilder) squirrel.SelectBuilder {
	for _, j := range q.joins {
		builder = builder.JoinClause(fmt.Sprintf("%s %s ON %s", j.Type, j.Table, j.Condition))
	}
	return builder
}

func (q *Query[T]) selectBuilder() squirrel.SelectBuilder {
	builder := squirrel.Select(q.repo.metadata.qualified(q.omit)...).
		From(q.repo.metadata.Table.FullName()).
		PlaceholderFormat(squirrel.Dollar)

	builder = q.applyJoins(builder)

	if len(q.whereClause) > 0 {
		builder = builder.Where(q.whereClause)
	}

	orderBy := q.orderBy
	if len(orderBy) == 0 {
		orderBy = q.repo.metadata.DefaultOrder
	}
	if len(orderBy) > 0 {
		builder = builder.OrderBy(orderBy...)
	}

	if q.limit != nil {
		builder = builder.Limit(*q.limit)
	}

	if q.offset != nil {
		builder = builder.Offset(*q.offset)
	}

	return builder
}

// ToSql renders the select statement Find would run.
func (q *Query[T]) ToSql() (string, []interface{}, error) {
	if q.err != nil {
		return "", nil, q.err
	}
	return q.selectBuilder().ToSql()
}

func (q *Query[T]) Find() ([]T, error) {
	table := q.repo.metadata.Table.Name
	if q.err != nil {
		return nil, &Error{Op: "find", Table: table, Err: q.err}
	}

	var records []T
	err := q.repo.executeQueryMiddleware(OpFind, q.ctx, nil, q.selectBuilder(), func(mc *MiddlewareContext) error {
		finalQuery := mc.QueryBuilder.(squirrel.SelectBuilder)

		sqlQuery, args, err := finalQuery.ToSql()
		if err != nil {
			return &Error{
				Op:    "find",
				Table: table,
				Err:   fmt.Errorf("failed to build query: %w", err),
			}
		}
		mc.Query = sqlQuery
		mc.Args = args

		if err := q.repo.db.SelectContext(mc.Context, &records, sqlQuery, args...); err != nil {
			return ParsePostgreSQLError(err, "find", table)
		}
		mc.RowsAffected = int64(len(records))

		return nil
	})

	return records, err
}

func (q *Query[T]) First() (*T, error) {
	q.Limit(1)
	records, err := q.Find()
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return nil, &Error{
			Op:    "first",
			Table: q.repo.metadata.Table.Name,
			Err:   ErrNotFound,
		}
	}

	return &records[0], nil
}

func (q *Query[T]) Count() (int64, error) {
	table := q.repo.metadata.Table.Name
	if q.err != nil {
		return 0, &Error{Op: "count", Table: table, Err: q.err}
	}

	countBuilder := squirrel.Select("COUNT(*)").
		From(q.repo.metadata.Table.FullName()).
		PlaceholderFormat(squirrel.Dollar)

	countBuilder = q.applyJoins(countBuilder)

	if len(q.whereClause) > 0 {
		countBuilder = countBuilder.Where(q.whereClause)
	}

	var count int64
	err := q.repo.executeQueryMiddleware(OpCount, q.ctx, nil, countBuilder, func(mc *MiddlewareContext) error {
		finalQuery := mc.QueryBuilder.(squirrel.SelectBuilder)

		sqlQuery, args, err := finalQuery.ToSql()
		if err != nil {
			return &Error{
				Op:    "count",
				Table: table,
				Err:   fmt.Errorf("failed to build count query: %w", err),
			}
		}
		mc.Query = sqlQuery
		mc.Args = args

		if err := q.repo.db.GetContext(mc.Context, &count, sqlQuery, args...); err != nil {
			return ParsePostgreSQLError(err, "count", table)
		}

		return nil
	})

	return count, err
}

func (q *Query[T]) Exists() (bool, error) {
	count, err := q.Count()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Update issues a single UPDATE over every row matching the query's conditions
// and returns the affected-row count. Values may be plain values or Expressions;
// columns are set in sorted order so the statement text is stable.
func (q *Query[T]) Update(updates map[string]interface{}) (int64, error) {
	table := q.repo.metadata.Table.Name
	if q.err != nil {
		return 0, &Error{Op: "update", Table: table, Err: q.err}
	}

	if len(updates) == 0 {
		return 0, &Error{
			Op:    "update",
			Table: table,
			Err:   fmt.Errorf("no updates provided"),
		}
	}

	if len(q.joins) > 0 {
		return 0, &Error{
			Op:    "update",
			Table: table,
			Err:   fmt.Errorf("joins are not supported in update"),
		}
	}

	columns := make([]string, 0, len(updates))
	for column := range updates {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	updateBuilder := squirrel.Update(q.repo.metadata.Table.FullName()).
		PlaceholderFormat(squirrel.Dollar)

	for _, column := range columns {
		updateBuilder = updateBuilder.Set(column, updates[column])
	}

	if len(q.whereClause) > 0 {
		updateBuilder = updateBuilder.Where(q.whereClause)
	}

	var rowsAffected int64
	err := q.repo.executeQueryMiddleware(OpUpdateMany, q.ctx, updates, updateBuilder, func(mc *MiddlewareContext) error {
		finalQuery := mc.QueryBuilder.(squirrel.UpdateBuilder)

		sqlQuery, args, err := finalQuery.ToSql()
		if err != nil {
			return &Error{
				Op:    "update",
				Table: table,
				Err:   fmt.Errorf("failed to build update query: %w", err),
			}
		}
		mc.Query = sqlQuery
		mc.Args = args

		result, err := q.repo.db.ExecContext(mc.Context, sqlQuery, args...)
		if err != nil {
			return ParsePostgreSQLError(err, "update", table)
		}

		rowsAffected, err = rowsAffectedOf(result, "update", table)
		mc.RowsAffected = rowsAffected
		return err
	})

	return rowsAffected, err
}

func (q *Query[T]) Delete() (int64, error) {
	table := q.repo.metadata.Table.Name
	if q.err != nil {
		return 0, &Error{Op: "delete", Table: table, Err: q.err}
	}

	deleteBuilder := squirrel.Delete(q.repo.metadata.Table.FullName()).
		PlaceholderFormat(squirrel.Dollar)

	if len(q.whereClause) > 0 {
		deleteBuilder = deleteBuilder.Where(q.whereClause)
	}

	var rowsAffected int64
	err := q.repo.executeQueryMiddleware(OpDelete, q.ctx, nil, deleteBuilder, func(mc *MiddlewareContext) error {
		finalQuery := mc.QueryBuilder.(squirrel.DeleteBuilder)

		sqlQuery, args, err := finalQuery.ToSql()
		if err != nil {
			return &Error{
				Op:    "delete",
				Table: table,
				Err:   fmt.Errorf("failed to build delete query: %w", err),
			}
		}
		mc.Query = sqlQuery
		mc.Args = args

		result, err := q.repo.db.ExecContext(mc.Context, sqlQuery, args...)
		if err != nil {
			return ParsePostgreSQLError(err, "delete", table)
		}

		rowsAffected, err = rowsAffectedOf(result, "delete", table)
		mc.RowsAffected = rowsAffected
		return err
	})

	return rowsAffected, err
}

func rowsAffectedOf(result sql.Result, op, table string) (int64, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return 0, &Error{
			Op:    op,
			Table: table,
			Err:   fmt.Errorf("failed to get rows affected: %w", err),
		}
	}
	return n, nil
}
