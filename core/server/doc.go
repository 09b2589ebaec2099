// Package server runs the optional HTTP status server.
//
// The server exposes whatever handler it is given, normally the liveness,
// readiness, status and /metrics routes built by health.NewHandler. It binds
// with net.Listen so Addr reports the real port when configured with ":0".
//
//	srv, err := server.NewFromConfig(cfg, server.WithLogger(log))
//	g.Go(srv.Run(ctx, health.NewHandler(log, b, registry, b.Ready)))
package server
