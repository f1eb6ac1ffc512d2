package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lingua.desk/lingod/internal/cli"
	"lingua.desk/lingod/internal/httpapi"
)

func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	host := fs.String("host", "", "Host interface to bind (default from LINGOD_HTTP_HOST)")
	port := fs.Int("port", 0, "HTTP port (default from LINGOD_HTTP_PORT)")
	readTimeout := fs.Duration("read-timeout", 10*time.Second, "HTTP read timeout")
	writeTimeout := fs.Duration("write-timeout", 60*time.Second, "HTTP write timeout")
	shutdownTimeout := fs.Duration("shutdown-timeout", 10*time.Second, "Graceful shutdown timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "serve does not accept positional arguments")
		return 2
	}

	dbCtx, dbCancel := context.WithTimeout(context.Background(), 10*time.Second)
	eng, err := buildEngine(dbCtx, envLoader)
	dbCancel()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer eng.Close()

	bindHost := *host
	if bindHost == "" {
		bindHost = eng.cfg.HTTPHost
	}
	bindPort := *port
	if bindPort == 0 {
		bindPort = eng.cfg.HTTPPort
	}
	if bindPort <= 0 || bindPort > 65535 {
		fmt.Fprintln(os.Stderr, "--port must be between 1 and 65535")
		return 2
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		<-sigCh
		cancel()
	}()

	go runMaintenance(ctx, eng)

	srv := httpapi.NewServer(
		eng.manager,
		eng.registry,
		eng.store,
		eng.agg,
		eng.coord,
		eng.pool,
		eng.logger,
		httpapi.Options{
			Host:            bindHost,
			Port:            bindPort,
			ReadTimeout:     *readTimeout,
			WriteTimeout:    *writeTimeout,
			ShutdownTimeout: *shutdownTimeout,
		},
	)

	if err := srv.Start(ctx); err != nil {
		eng.logger.Error().Err(err).Str("host", bindHost).Int("port", bindPort).Msg("server failed")
		fmt.Fprintf(os.Stderr, "Server failed: %v\n", err)
		return 1
	}

	return 0
}

// runMaintenance periodically expires cache records, trims old stats
// buckets, and sweeps stale burst entries while the server runs.
func runMaintenance(ctx context.Context, eng *engine) {
	cleanupTicker := time.NewTicker(eng.cfg.CacheCleanupInterval())
	defer cleanupTicker.Stop()
	sweepTicker := time.NewTicker(time.Minute)
	defer sweepTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sweepTicker.C:
			eng.coord.Sweep()
		case <-cleanupTicker.C:
			removed, err := eng.store.Cleanup(ctx)
			if err != nil {
				eng.logger.Warn().Err(err).Msg("cache cleanup failed")
			} else if removed > 0 {
				eng.logger.Info().Int64("removed", removed).Msg("expired cache records removed")
			}
			if dropped := eng.agg.Cleanup(); dropped > 0 {
				eng.logger.Debug().Int("days", dropped).Msg("stats buckets trimmed")
			}
		}
	}
}
