package orm

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("db"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Repository provides the operations shared by every model
type Repository[T any] struct {
	db                DBExecutor
	metadata          Metadata
	middlewareManager *middlewareManager
}

func NewRepository[T any](db DBExecutor, metadata Metadata) (*Repository[T], error) {
	if db == nil {
		return nil, fmt.Errorf("repository for %s requires a database executor", metadata.Table.Name)
	}
	if err := metadata.validate(); err != nil {
		return nil, err
	}
	return &Repository[T]{
		db:       db,
		metadata: metadata,
	}, nil
}

func (r *Repository[T]) Metadata() Metadata {
	return r.metadata
}

// Create validates record against its `validate` tags, inserts it and scans the
// stored row, including the generated primary key, back into record.
func (r *Repository[T]) Create(ctx context.Context, record *T) error {
	table := r.metadata.Table.Name
	if record == nil {
		return &Error{Op: "create", Table: table, Err: fmt.Errorf("record cannot be nil")}
	}

	if err := ValidateRecord(record); err != nil {
		return err
	}

	columns := r.metadata.insertColumns()
	named := make([]string, len(columns))
	for i, col := range columns {
		named[i] = ":" + col
	}

	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		r.metadata.Table.FullName(),
		strings.Join(columns, ", "),
		strings.Join(named, ", "),
		strings.Join(r.metadata.Columns, ", "))

	return r.executeQueryMiddleware(OpCreate, ctx, record, nil, func(mc *MiddlewareContext) error {
		query, args, err := r.db.BindNamed(stmt, record)
		if err != nil {
			return &Error{Op: "create", Table: table, Err: fmt.Errorf("failed to bind record: %w", err)}
		}
		mc.Query = query
		mc.Args = args

		if err := r.db.QueryRowxContext(mc.Context, query, args...).StructScan(record); err != nil {
			return ParsePostgreSQLError(err, "create", table)
		}
		mc.RowsAffected = 1
		return nil
	})
}

func (r *Repository[T]) FindByID(ctx context.Context, id interface{}) (*T, error) {
	pk := Where(r.metadata.Table.Name+"."+r.metadata.Table.PrimaryKey+" = ?", id)
	record, err := r.Query(ctx).Where(pk).First()
	if err != nil {
		var ormErr *Error
		if errors.As(err, &ormErr) && errors.Is(err, ErrNotFound) {
			ormErr.Op = "find_by_id"
		}
		return nil, err
	}
	return record, nil
}

// Delete removes the row with the given primary key. Referential actions are
// left to the database.
func (r *Repository[T]) Delete(ctx context.Context, id interface{}) error {
	table := r.metadata.Table.Name
	builder := squirrel.Delete(r.metadata.Table.FullName()).
		Where(squirrel.Eq{table + "." + r.metadata.Table.PrimaryKey: id}).
		PlaceholderFormat(squirrel.Dollar)

	return r.executeQueryMiddleware(OpDelete, ctx, nil, builder, func(mc *MiddlewareContext) error {
		sqlQuery, args, err := mc.QueryBuilder.(squirrel.DeleteBuilder).ToSql()
		if err != nil {
			return &Error{Op: "delete", Table: table, Err: fmt.Errorf("failed to build delete query: %w", err)}
		}
		mc.Query = sqlQuery
		mc.Args = args

		result, err := r.db.ExecContext(mc.Context, sqlQuery, args...)
		if err != nil {
			return ParsePostgreSQLError(err, "delete", table)
		}

		n, err := rowsAffectedOf(result, "delete", table)
		if err != nil {
			return err
		}
		mc.RowsAffected = n
		if n == 0 {
			return &Error{Op: "delete", Table: table, Err: ErrNotFound}
		}
		return nil
	})
}

// Raw runs a literal SQL statement and scans every row into T.
func (r *Repository[T]) Raw(ctx context.Context, query string, args ...interface{}) ([]T, error) {
	table := r.metadata.Table.Name

	var records []T
	err := r.executeQueryMiddleware(OpRaw, ctx, nil, nil, func(mc *MiddlewareContext) error {
		mc.Query = query
		mc.Args = args

		if err := r.db.SelectContext(mc.Context, &records, query, args...); err != nil {
			return ParsePostgreSQLError(err, "raw", table)
		}
		mc.RowsAffected = int64(len(records))
		return nil
	})

	return records, err
}

// RawMaps runs a literal SQL statement and returns each row keyed by column label.
func (r *Repository[T]) RawMaps(ctx context.Context, query string, args ...interface{}) ([]map[string]interface{}, error) {
	table := r.metadata.Table.Name

	var results []map[string]interface{}
	err := r.executeQueryMiddleware(OpRaw, ctx, nil, nil, func(mc *MiddlewareContext) error {
		mc.Query = query
		mc.Args = args

		rows, err := r.db.QueryxContext(mc.Context, query, args...)
		if err != nil {
			return ParsePostgreSQLError(err, "raw", table)
		}
		defer rows.Close()

		for rows.Next() {
			row := make(map[string]interface{})
			if err := rows.MapScan(row); err != nil {
				return &Error{Op: "raw", Table: table, Err: fmt.Errorf("failed to scan row: %w", err)}
			}
			for key, value := range row {
				if b, ok := value.([]byte); ok {
					row[key] = string(b)
				}
			}
			results = append(results, row)
		}
		if err := rows.Err(); err != nil {
			return ParsePostgreSQLError(err, "raw", table)
		}
		mc.RowsAffected = int64(len(results))
		return nil
	})

	return results, err
}

// ValidateRecord checks a record against its `validate` struct tags.
func ValidateRecord(record interface{}) error {
	err := validate.Struct(record)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, ValidationError{Field: fe.Field(), Message: describeFieldError(fe)})
	}
	return out
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
