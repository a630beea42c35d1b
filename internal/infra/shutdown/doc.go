// Package shutdown runs named cleanup hooks when the process is asked to stop.
//
// Hooks run in reverse registration order under a shared deadline, so a
// component registered after its dependencies is stopped before them.
//
//	h := shutdown.NewHandler(30*time.Second, logger)
//	h.OnShutdown("database", db.Close)
//	h.OnShutdown("http", srv.Shutdown)
//	err := h.Wait(ctx) // returns after SIGINT/SIGTERM or ctx cancellation
package shutdown
