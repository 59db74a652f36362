package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/speedwagon-io/sensord/internal/bme280"
	"github.com/speedwagon-io/sensord/internal/buffer"
	"github.com/speedwagon-io/sensord/internal/collector"
	"github.com/speedwagon-io/sensord/internal/collector/adapters"
	"github.com/speedwagon-io/sensord/internal/commit"
	"github.com/speedwagon-io/sensord/internal/config"
	"github.com/speedwagon-io/sensord/internal/health"
	"github.com/speedwagon-io/sensord/internal/lib/logger/sl"
	"github.com/speedwagon-io/sensord/internal/metrics"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	dryRun := flag.Bool("dry-run", false, "log records instead of committing them")
	once := flag.Bool("once", false, "run a single cycle and exit")
	flag.Parse()

	cfg := config.MustLoad(*configPath)

	log := sl.SetupLogger(cfg.Log.Level, cfg.Log.Format)

	log.Info("starting sensord",
		slog.String("env", cfg.Env),
		slog.Bool("dry_run", *dryRun),
		slog.Bool("once", *once),
	)

	var colls []collector.Collector
	if cfg.Sensors.W1.Enabled {
		colls = append(colls, adapters.NewW1Adapter(log, cfg.Sensors.W1.BasePath))
		log.Info("1-Wire thermometers enabled", slog.String("base_path", cfg.Sensors.W1.BasePath))
	}
	if cfg.Sensors.BME280.Enabled {
		sensor, err := bme280.OpenI2C(cfg.Sensors.BME280.Bus, cfg.Sensors.BME280.Address)
		if err != nil {
			log.Error("failed to open bme280", sl.Err(err))
			os.Exit(1)
		}
		colls = append(colls, adapters.NewBME280Adapter(log, sensor))
		log.Info("bme280 enabled",
			slog.String("bus", cfg.Sensors.BME280.Bus),
			slog.Int("address", int(cfg.Sensors.BME280.Address)),
		)
	}

	// LogCommitter for dry-run mode, HTTPCommitter when commit is enabled,
	// otherwise records are only logged.
	var committer commit.Committer
	switch {
	case *dryRun:
		committer = commit.NewLogCommitter(log)
		log.Info("dry-run mode: records will be logged instead of committed")
	case cfg.Commit.Enabled:
		committer = commit.NewHTTPCommitter(log, cfg.Commit.Host, nil)
		log.Info("commit enabled", slog.String("host", cfg.Commit.Host))
	}

	var buf buffer.Buffer
	var sqliteBuf *buffer.SQLiteBuffer
	if cfg.Buffer.Enabled && cfg.Commit.Enabled && !*dryRun {
		var err error
		sqliteBuf, err = buffer.NewSQLiteBuffer(log, cfg.Buffer.Path)
		if err != nil {
			log.Error("failed to create buffer", sl.Err(err))
			os.Exit(1)
		}
		buf = sqliteBuf
		log.Info("buffer enabled", slog.String("path", cfg.Buffer.Path))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	var healthServer *health.Server
	if cfg.Health.Enabled && !*once {
		healthServer = health.NewServer(log, cfg.Health.Address, reg)
		if committer != nil {
			healthServer.AddChecker(health.NewCommitHealthChecker(committer.Health))
		}
		if sqliteBuf != nil {
			healthServer.AddChecker(health.NewBufferHealthChecker(sqliteBuf.Count))
		}

		if err := healthServer.Start(); err != nil {
			log.Error("failed to start health server", sl.Err(err))
			os.Exit(1)
		}
	}

	manager := collector.NewManager(log, collector.Options{
		Interval:     cfg.Polling.Interval,
		Timeout:      cfg.Polling.Timeout,
		AbortOnError: cfg.Polling.AbortOnError,
		ReplayLimit:  cfg.Buffer.ReplayLimit,
		BufferMaxAge: cfg.Buffer.MaxAge,
	}, colls, committer, buf, m)

	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info("received signal, shutting down", slog.String("signal", sig.String()))
		cancel()
	}()

	exitCode := 0
	if *once {
		if _, err := manager.RunOnce(ctx); err != nil {
			log.Error("cycle aborted", sl.Err(err))
			exitCode = 1
		}
	} else {
		manager.Start(ctx)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	manager.Stop()

	if healthServer != nil {
		if err := healthServer.Stop(shutdownCtx); err != nil {
			log.Error("failed to stop health server", sl.Err(err))
		}
	}

	if buf != nil {
		if err := buf.Close(); err != nil {
			log.Error("failed to close buffer", sl.Err(err))
		}
	}

	cancel()
	log.Info("sensord stopped")

	if exitCode != 0 {
		os.Exit(exitCode)
	}
}
