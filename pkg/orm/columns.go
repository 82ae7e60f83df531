package orm

import (
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
)

// Column represents a type-safe database column reference
type Column[T any] struct {
	Name  string
	Table string
}

func (c Column[T]) String() string {
	if c.Table != "" {
		return fmt.Sprintf("%s.%s", c.Table, c.Name)
	}
	return c.Name
}

func (c Column[T]) Eq(value T) Condition {
	return Condition{squirrel.Eq{c.String(): value}}
}

func (c Column[T]) NotEq(value T) Condition {
	return Condition{squirrel.NotEq{c.String(): value}}
}

func (c Column[T]) In(values ...T) Condition {
	interfaces := make([]interface{}, len(values))
	for i, v := range values {
		interfaces[i] = v
	}
	return Condition{squirrel.Eq{c.String(): interfaces}}
}

func (c Column[T]) NotIn(values ...T) Condition {
	interfaces := make([]interface{}, len(values))
	for i, v := range values {
		interfaces[i] = v
	}
	return Condition{squirrel.NotEq{c.String(): interfaces}}
}

func (c Column[T]) IsNull() Condition {
	return Condition{squirrel.Eq{c.String(): nil}}
}

func (c Column[T]) IsNotNull() Condition {
	return Condition{squirrel.NotEq{c.String(): nil}}
}

func (c Column[T]) Asc() string {
	return c.String() + " ASC"
}

func (c Column[T]) Desc() string {
	return c.String() + " DESC"
}

// Ref returns the unqualified column as an update expression, e.g. to copy one
// column into another.
func (c Column[T]) Ref() Expression {
	return Expr(c.Name)
}

// ComparableColumn provides comparison operations for comparable types
type ComparableColumn[T Comparable] struct {
	Column[T]
}

// Comparable types that support comparison operators
type Comparable interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64 |
		~string |
		time.Time
}

func (c ComparableColumn[T]) Gt(value T) Condition {
	return Condition{squirrel.Gt{c.String(): value}}
}

func (c ComparableColumn[T]) Gte(value T) Condition {
	return Condition{squirrel.GtOrEq{c.String(): value}}
}

func (c ComparableColumn[T]) Lt(value T) Condition {
	return Condition{squirrel.Lt{c.String(): value}}
}

func (c ComparableColumn[T]) Lte(value T) Condition {
	return Condition{squirrel.LtOrEq{c.String(): value}}
}

func (c ComparableColumn[T]) Between(min, max T) Condition {
	return Condition{squirrel.And{
		squirrel.GtOrEq{c.String(): min},
		squirrel.LtOrEq{c.String(): max},
	}}
}

// StringColumn provides string-specific operations
type StringColumn struct {
	Column[string]
}

func (c StringColumn) Like(pattern string) Condition {
	return Condition{squirrel.Like{c.String(): pattern}}
}

func (c StringColumn) ILike(pattern string) Condition {
	return Condition{squirrel.ILike{c.String(): pattern}}
}

func (c StringColumn) StartsWith(prefix string) Condition {
	return c.Like(EscapeLike(prefix) + "%")
}

func (c StringColumn) EndsWith(suffix string) Condition {
	return c.Like("%" + EscapeLike(suffix))
}

// Contains matches rows whose value contains substring, case-sensitively.
// LIKE wildcards in substring match literally.
func (c StringColumn) Contains(substring string) Condition {
	return c.Like("%" + EscapeLike(substring) + "%")
}

// IContains is the case-insensitive form of Contains.
func (c StringColumn) IContains(substring string) Condition {
	return c.ILike("%" + EscapeLike(substring) + "%")
}

func (c StringColumn) Regexp(pattern string) Condition {
	return Condition{squirrel.Expr(c.String()+" ~ ?", pattern)}
}

// Length returns the character length of the column as a numeric column
func (c StringColumn) Length() NumericColumn[int] {
	return NumericColumn[int]{
		ComparableColumn: ComparableColumn[int]{
			Column: Column[int]{
				Name: fmt.Sprintf("LENGTH(%s)", c.String()),
			},
		},
	}
}

// Concat returns an update expression appending parts to the column. A part is
// either a plain value, bound as a parameter, or a squirrel.Sqlizer inlined as SQL.
func (c StringColumn) Concat(parts ...interface{}) Expression {
	sqlParts := make([]string, 0, len(parts)+1)
	sqlParts = append(sqlParts, c.Name)
	for range parts {
		sqlParts = append(sqlParts, "?")
	}
	return Expr(strings.Join(sqlParts, " || "), parts...)
}

// EscapeLike escapes the LIKE wildcards and the escape character itself.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// NumericColumn provides numeric-specific operations
type NumericColumn[T Numeric] struct {
	ComparableColumn[T]
}

// Numeric types for mathematical operations
type Numeric interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Add returns an update expression "column + value".
func (c NumericColumn[T]) Add(value interface{}) Expression {
	return Expr(c.Name+" + ?", value)
}

// Mul returns an update expression "column * value".
func (c NumericColumn[T]) Mul(value interface{}) Expression {
	return Expr(c.Name+" * ?", value)
}

// TimeColumn provides time-specific operations
type TimeColumn struct {
	ComparableColumn[time.Time]
}

func (c TimeColumn) After(t time.Time) Condition {
	return c.Gt(t)
}

func (c TimeColumn) Before(t time.Time) Condition {
	return c.Lt(t)
}

func (c TimeColumn) Since(t time.Time) Condition {
	return c.Gte(t)
}

func (c TimeColumn) Until(t time.Time) Condition {
	return c.Lte(t)
}

// AddDays returns an update expression shifting the column by a number of days.
func (c TimeColumn) AddDays(days int) Expression {
	return Expr(c.Name+" + make_interval(days => ?)", days)
}

// BoolColumn provides boolean-specific operations
type BoolColumn struct {
	Column[bool]
}

func (c BoolColumn) IsTrue() Condition {
	return c.Eq(true)
}

func (c BoolColumn) IsFalse() Condition {
	return c.Eq(false)
}

// Condition wraps squirrel conditions for type safety
type Condition struct {
	condition squirrel.Sqlizer
}

// Where builds a condition from a raw SQL fragment with ? placeholders.
func Where(sql string, args ...interface{}) Condition {
	return Condition{squirrel.Expr(sql, args...)}
}

func (c Condition) And(other Condition) Condition {
	return Condition{squirrel.And{c.condition, other.condition}}
}

func (c Condition) Or(other Condition) Condition {
	return Condition{squirrel.Or{c.condition, other.condition}}
}

func (c Condition) Not() Condition {
	return Condition{squirrel.Expr("NOT (?)", c.condition)}
}

func (c Condition) ToSqlizer() squirrel.Sqlizer {
	return c.condition
}

func And(conditions ...Condition) Condition {
	sqlizers := make([]squirrel.Sqlizer, len(conditions))
	for i, c := range conditions {
		sqlizers[i] = c.condition
	}
	return Condition{squirrel.And(sqlizers)}
}

func Or(conditions ...Condition) Condition {
	sqlizers := make([]squirrel.Sqlizer, len(conditions))
	for i, c := range conditions {
		sqlizers[i] = c.condition
	}
	return Condition{squirrel.Or(sqlizers)}
}

func Not(condition Condition) Condition {
	return Condition{squirrel.Expr("NOT (?)", condition.ToSqlizer())}
}

// Expression is a SQL fragment used as the value side of an update.
type Expression struct {
	sqlizer squirrel.Sqlizer
}

// Expr builds an Expression from a raw SQL fragment with ? placeholders.
func Expr(sql string, args ...interface{}) Expression {
	return Expression{squirrel.Expr(sql, args...)}
}

func (e Expression) ToSql() (string, []interface{}, error) {
	return e.sqlizer.ToSql()
}
