package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/eleven-am/boxoffice/internal/logger"
	"github.com/eleven-am/boxoffice/pkg/orm"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors fed by repository statements and worker runs.
type Metrics struct {
	registry *prometheus.Registry

	Queries       *prometheus.CounterVec
	QueryErrors   *prometheus.CounterVec
	QueryDuration *prometheus.HistogramVec
	RowsAffected  *prometheus.CounterVec
	JobRuns       *prometheus.CounterVec
}

func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		Queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Statements issued through repositories.",
		}, []string{"table", "operation"}),
		QueryErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_errors_total",
			Help:      "Statements that returned an error, by error class.",
		}, []string{"table", "operation", "class"}),
		QueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Statement latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"table", "operation"}),
		RowsAffected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_affected_total",
			Help:      "Rows returned or modified by statements.",
		}, []string{"table", "operation"}),
		JobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_runs_total",
			Help:      "Scheduled job executions by outcome.",
		}, []string{"job", "outcome"}),
	}

	reg.MustRegister(
		m.Queries,
		m.QueryErrors,
		m.QueryDuration,
		m.RowsAffected,
		m.JobRuns,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Middleware records every repository statement.
func (m *Metrics) Middleware() orm.QueryMiddleware {
	return func(next orm.QueryMiddlewareFunc) orm.QueryMiddlewareFunc {
		return func(ctx *orm.MiddlewareContext) error {
			err := next(ctx)

			op := string(ctx.Operation)
			m.Queries.WithLabelValues(ctx.TableName, op).Inc()
			m.QueryDuration.WithLabelValues(ctx.TableName, op).Observe(ctx.Duration.Seconds())
			if err != nil {
				m.QueryErrors.WithLabelValues(ctx.TableName, op, ErrorClass(err)).Inc()
				return err
			}
			m.RowsAffected.WithLabelValues(ctx.TableName, op).Add(float64(ctx.RowsAffected))
			return nil
		}
	}
}

// ObserveJob counts one run of a scheduled job.
func (m *Metrics) ObserveJob(job string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.JobRuns.WithLabelValues(job, outcome).Inc()
}

// ErrorClass buckets an error by its orm sentinel for use as a label.
func ErrorClass(err error) string {
	switch {
	case errors.Is(err, orm.ErrNotFound):
		return "not_found"
	case errors.Is(err, orm.ErrDuplicateKey):
		return "duplicate_key"
	case errors.Is(err, orm.ErrForeignKey):
		return "foreign_key"
	case errors.Is(err, orm.ErrNotNull), errors.Is(err, orm.ErrCheckConstraint), errors.Is(err, orm.ErrValueTooLong):
		return "constraint"
	case errors.Is(err, orm.ErrUndefinedColumn), errors.Is(err, orm.ErrUndefinedTable):
		return "schema"
	case errors.Is(err, orm.ErrTimeout), errors.Is(err, orm.ErrCanceled):
		return "context"
	case errors.Is(err, orm.ErrConnectionFailed):
		return "connection"
	}
	return "other"
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Metrics().Info("Serving metrics", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
