package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	httpapi "github.com/i474232898/weather-pulse/internal/api/http"
	"github.com/i474232898/weather-pulse/internal/scheduler"
)

var (
	flagRunNow bool
	flagServe  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the master table over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := setup(0)
		if err != nil {
			return err
		}
		defer app.Close()

		if _, err := app.load(); err != nil {
			return err
		}
		return app.serve(cmd.Context())
	},
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Update the master table and charts daily at SCHEDULE_TIMES",
	Long: `Run the collect-merge-render job every day at each SCHEDULE_TIMES entry in local
time. A run that is still busy when the next time arrives makes that time be skipped.

--run-now runs the job once before waiting; --serve also serves the HTTP API.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := setup(0)
		if err != nil {
			return err
		}
		defer app.Close()

		if _, err := app.load(); err != nil {
			return err
		}

		job := func(ctx context.Context) error {
			if _, err := app.service.Update(ctx); err != nil {
				return err
			}
			_, err := app.render()
			return err
		}

		sched, err := scheduler.New(app.cfg.ScheduleTimes, job, app.logger, scheduler.WithLocation(time.Local))
		if err != nil {
			return err
		}

		if flagRunNow {
			if err := sched.RunNow(); err != nil {
				app.logger.Error("initial run failed", "error", err)
			}
		}

		if err := sched.Start(); err != nil {
			return err
		}
		defer sched.Stop()

		if flagServe {
			return app.serve(cmd.Context())
		}

		<-cmd.Context().Done()
		app.logger.Info("scheduler stopping")
		return nil
	},
}

// serve runs the HTTP API until ctx is cancelled, then shuts down gracefully.
func (a *application) serve(ctx context.Context) error {
	server := httpapi.NewApp(a.service, httpapi.AppOptions{
		Anomalies: a.anomalyOptions(),
		AccessLog: true,
	})

	errc := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "port", a.cfg.Port)
		errc <- server.Listen(":" + a.cfg.Port)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.ShutdownWithContext(shutdownCtx); err != nil {
		a.logger.Error("error during shutdown", "error", err)
	}
	return nil
}

func init() {
	scheduleCmd.Flags().BoolVar(&flagRunNow, "run-now", false, "run the job once immediately")
	scheduleCmd.Flags().BoolVar(&flagServe, "serve", false, "also serve the HTTP API")
}
