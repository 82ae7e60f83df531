package orm

import (
	"context"
	"time"
)

// OperationType represents different types of database operations
type OperationType string

const (
	OpCreate     OperationType = "create"
	OpUpdateMany OperationType = "update_many"
	OpDelete     OperationType = "delete"
	OpFind       OperationType = "find"
	OpCount      OperationType = "count"
	OpRaw        OperationType = "raw"
)

// MiddlewareContext contains information passed to middleware
type MiddlewareContext struct {
	Operation    OperationType
	TableName    string
	Record       interface{}
	QueryBuilder interface{} // squirrel.SelectBuilder, squirrel.UpdateBuilder, etc.; nil for raw SQL
	Query        string
	Args         []interface{}
	RowsAffected int64
	Error        error
	StartTime    time.Time
	Duration     time.Duration
	Context      context.Context
	Metadata     map[string]interface{}
}

// QueryMiddlewareFunc represents middleware that can modify queries
type QueryMiddlewareFunc func(ctx *MiddlewareContext) error

// QueryMiddleware represents middleware that can see and modify query builders
type QueryMiddleware func(next QueryMiddlewareFunc) QueryMiddlewareFunc

// middlewareManager manages database middleware
type middlewareManager struct {
	middleware []QueryMiddleware
}

func newMiddlewareManager() *middlewareManager {
	return &middlewareManager{
		middleware: make([]QueryMiddleware, 0),
	}
}

func (mm *middlewareManager) AddMiddleware(middleware QueryMiddleware) {
	mm.middleware = append(mm.middleware, middleware)
}

// ExecuteMiddleware runs the chain with the first registered middleware outermost.
func (mm *middlewareManager) ExecuteMiddleware(ctx *MiddlewareContext, finalFunc QueryMiddlewareFunc) error {
	handler := finalFunc

	for i := len(mm.middleware) - 1; i >= 0; i-- {
		handler = mm.middleware[i](handler)
	}

	return handler(ctx)
}

func (r *Repository[T]) executeQueryMiddleware(op OperationType, ctx context.Context, record interface{}, queryBuilder interface{}, finalFunc QueryMiddlewareFunc) error {
	middlewareCtx := &MiddlewareContext{
		Operation:    op,
		TableName:    r.metadata.Table.Name,
		Record:       record,
		QueryBuilder: queryBuilder,
		Context:      ctx,
		StartTime:    time.Now(),
		Metadata:     make(map[string]interface{}),
	}

	final := func(mc *MiddlewareContext) error {
		err := finalFunc(mc)
		mc.Duration = time.Since(mc.StartTime)
		mc.Error = err
		return err
	}

	if r.middlewareManager == nil {
		return final(middlewareCtx)
	}

	return r.middlewareManager.ExecuteMiddleware(middlewareCtx, final)
}

// AddMiddleware registers middleware for every operation issued by this repository.
func (r *Repository[T]) AddMiddleware(middleware QueryMiddleware) {
	if r.middlewareManager == nil {
		r.middlewareManager = newMiddlewareManager()
	}
	r.middlewareManager.AddMiddleware(middleware)
}
