package logger

import (
	"github.com/eleven-am/boxoffice/pkg/orm"
)

// QueryMiddleware logs every statement at debug and failed ones at warn.
func QueryMiddleware(l Logger) orm.QueryMiddleware {
	return func(next orm.QueryMiddlewareFunc) orm.QueryMiddlewareFunc {
		return func(ctx *orm.MiddlewareContext) error {
			err := next(ctx)

			fields := []any{
				"op", string(ctx.Operation),
				"table", ctx.TableName,
				"duration", ctx.Duration,
			}
			if err != nil {
				l.Warn("Query failed", append(fields, "query", ctx.Query, "error", err)...)
				return err
			}

			l.Debug("Query executed", append(fields, "query", ctx.Query, "rows", ctx.RowsAffected)...)
			return nil
		}
	}
}
