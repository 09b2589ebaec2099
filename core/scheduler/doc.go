// Package scheduler runs named periodic tasks with a graceful stop.
//
//	s := scheduler.New(scheduler.WithLogger(log), scheduler.WithShutdownTimeout(5*time.Second))
//	_ = s.Every("health", 5*time.Minute, monitor.Tick)
//	_ = s.Every("metrics-cleanup", time.Hour, collector.Cleanup)
//	if err := s.Start(ctx); err != nil {
//		return err
//	}
//	defer s.Stop()
//
// Each task runs in its own goroutine on a ticker. Errors and panics are
// logged and counted in Stats; they never stop the task. Healthcheck reports
// whether the scheduler is running and can be mounted as a readiness check.
package scheduler
