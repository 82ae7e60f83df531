package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/eleven-am/boxoffice/internal/logger"
	"github.com/eleven-am/boxoffice/internal/metrics"
	"github.com/eleven-am/boxoffice/internal/scheduler"
	"github.com/eleven-am/boxoffice/internal/ticketing"
)

func newWorkerCommand() *cobra.Command {
	var (
		interval time.Duration
		once     bool
		listen   string
	)

	workerCmd := &cobra.Command{
		Use:   "worker",
		Short: "Deactivate past events on a schedule",
		Long: `Runs the maintenance worker. Every interval it deactivates events whose
date has passed. When a metrics address is configured, Prometheus metrics are
served on /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			if interval == 0 {
				interval = appConfig.Worker.DeactivateInterval
			}
			if listen == "" {
				listen = appConfig.Metrics.Listen
			}

			m := metrics.New(appConfig.Metrics.Namespace)
			store, db, err := openStore(ctx, ticketing.WithMiddleware(m.Middleware()))
			if err != nil {
				return err
			}
			defer db.Close()

			sched, err := scheduler.New(store.Events, interval, scheduler.WithObserver(m))
			if err != nil {
				return err
			}

			if once {
				defer sched.Shutdown()
				n, err := sched.RunOnce(ctx)
				if err != nil {
					return err
				}
				return printYAML(cmd, rowsAffected{RowsAffected: n})
			}

			log := logger.Worker()
			g, gctx := errgroup.WithContext(ctx)

			if listen != "" {
				g.Go(func() error {
					if err := m.Serve(gctx, listen); err != nil {
						return fmt.Errorf("metrics server: %w", err)
					}
					return nil
				})
			}

			g.Go(func() error {
				sched.Start()
				log.Info("Worker running", "interval", interval, "metrics", listen)
				<-gctx.Done()
				return sched.Shutdown()
			})

			return g.Wait()
		},
	}

	workerCmd.Flags().DurationVar(&interval, "interval", 0, "deactivation interval (default: worker.deactivate_interval)")
	workerCmd.Flags().BoolVar(&once, "once", false, "run the job once and exit")
	workerCmd.Flags().StringVar(&listen, "metrics-listen", "", "address for the /metrics endpoint (default: metrics.listen)")

	return workerCmd
}
