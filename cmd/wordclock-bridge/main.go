// Command wordclock-bridge mirrors a WordClock device's state and
// exposes it over MQTT, HTTP, and WebSocket.
//
// It maintains a persistent event stream to the clock, keeps a local
// state mirror, records state changes to SQLite, and optionally ships
// telemetry to InfluxDB.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nerrad567/gray-logic-wordclock/internal/api"
	mqttbridge "github.com/nerrad567/gray-logic-wordclock/internal/bridges/mqtt"
	"github.com/nerrad567/gray-logic-wordclock/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-wordclock/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-wordclock/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-wordclock/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-wordclock/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-wordclock/internal/wordclock"

	// Register embedded database migrations.
	_ "github.com/nerrad567/gray-logic-wordclock/migrations"
)

// Build information, injected via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// defaultConfigPath is used when WORDCLOCK_CONFIG is not set.
const defaultConfigPath = "configs/config.yaml"

// healthCheckTimeout bounds the startup health sweep.
const healthCheckTimeout = 5 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "wordclock-bridge: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main so the
// defer-based teardown chain executes before the process exits.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting wordclock-bridge", "version", version, "commit", commit, "built", date)

	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)

	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close() //nolint:errcheck // Best effort during shutdown

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	history := wordclock.NewSQLiteHistoryRepository(db.DB)
	coordinator := wordclock.NewCoordinator(cfg.Clock, log.With("component", "sync"))

	checks := map[string]healthChecker{"database": db}

	var influx *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influx, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			log.Warn("influxdb unavailable, telemetry disabled", "error", err)
			influx = nil
		} else {
			defer influx.Close() //nolint:errcheck // Best effort during shutdown
			influx.SetOnError(func(err error) {
				log.Warn("influxdb write failed", "error", err)
			})
			checks["influxdb"] = influx
		}
	}

	// Device-reported changes feed the audit trail and telemetry.
	// Command-sourced changes are recorded by the MQTT bridge and the
	// API with their own source tag.
	coordinator.OnAuthoritativeChange(func(snap wordclock.Snapshot) {
		if err := history.RecordChange(ctx, coordinator.ClockID(), snap, wordclock.HistorySourceStream); err != nil {
			log.Warn("recording stream history failed", "error", err)
		}
		if influx != nil {
			recordClockMetrics(influx, coordinator.ClockID(), snap)
		}
	})

	coordinator.SetOnStateChange(func(state wordclock.State) {
		log.Info("clock connection state changed", "state", state)
		if influx != nil {
			influx.WriteConnectionEvent(coordinator.ClockID(), string(state))
		}
	})

	var clock api.ClockService = coordinator
	if influx != nil {
		clock = &telemetryClock{Coordinator: coordinator, influx: influx}
	}

	coordinator.Start(ctx)
	defer coordinator.Stop()

	if cfg.MQTT.Enabled {
		mqttClient, err := mqtt.Connect(cfg.MQTT, coordinator.ClockID())
		if err != nil {
			return fmt.Errorf("connecting to mqtt broker: %w", err)
		}
		defer mqttClient.Close() //nolint:errcheck // Best effort during shutdown
		mqttClient.SetLogger(log.With("component", "mqtt"))
		checks["mqtt"] = mqttClient

		bridge, err := mqttbridge.New(mqttbridge.Options{
			MQTTClient: mqttClient,
			Source:     clock,
			QoS:        byte(cfg.MQTT.QoS),
			Logger:     log.With("component", "mqtt-bridge"),
			History:    history,
		})
		if err != nil {
			return fmt.Errorf("creating mqtt bridge: %w", err)
		}
		if err := bridge.Start(); err != nil {
			return fmt.Errorf("starting mqtt bridge: %w", err)
		}
		defer bridge.Stop()
	}

	if cfg.API.Enabled {
		server, err := api.New(api.Deps{
			Config:  cfg.API,
			WS:      cfg.WebSocket,
			Logger:  log.With("component", "api"),
			Clock:   clock,
			History: history,
			Version: version,
		})
		if err != nil {
			return fmt.Errorf("creating api server: %w", err)
		}
		if err := server.Start(ctx); err != nil {
			return fmt.Errorf("starting api server: %w", err)
		}
		defer server.Close() //nolint:errcheck // Best effort during shutdown
		checks["api"] = server
	}

	verifyHealth(ctx, log, checks)

	log.Info("wordclock-bridge running",
		"clock_id", coordinator.ClockID(),
		"clock_host", cfg.Clock.Host,
		"mqtt", cfg.MQTT.Enabled,
		"api", cfg.API.Enabled,
	)

	<-ctx.Done()
	log.Info("shutdown signal received, stopping")
	return nil
}

// getConfigPath resolves the config file location. The WORDCLOCK_CONFIG
// environment variable overrides the default path.
func getConfigPath() string {
	if path := os.Getenv("WORDCLOCK_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthChecker is implemented by all long-lived components.
type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

// verifyHealth runs a one-shot health sweep across started components.
// Failures are logged, not fatal; components reconnect on their own.
func verifyHealth(ctx context.Context, log *logging.Logger, checks map[string]healthChecker) {
	checkCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	for name, check := range checks {
		if err := check.HealthCheck(checkCtx); err != nil {
			log.Warn("component health check failed", "component", name, "error", err)
		} else {
			log.Info("component healthy", "component", name)
		}
	}
}

// telemetryClock wraps the coordinator to time mutations and record
// their outcome as telemetry.
type telemetryClock struct {
	*wordclock.Coordinator
	influx *influxdb.Client
}

func (t *telemetryClock) RequestMutation(ctx context.Context, fields wordclock.Snapshot) bool {
	start := time.Now()
	ok := t.Coordinator.RequestMutation(ctx, fields)
	t.influx.WriteMutationResult(t.ClockID(), ok, float64(time.Since(start).Milliseconds()))
	return ok
}

// recordClockMetrics writes the numeric and boolean snapshot fields as
// telemetry points. String fields such as language are skipped.
func recordClockMetrics(influx *influxdb.Client, clockID string, snap wordclock.Snapshot) {
	for field, value := range snap {
		switch v := value.(type) {
		case float64:
			influx.WriteClockMetric(clockID, field, v)
		case int:
			influx.WriteClockMetric(clockID, field, float64(v))
		case bool:
			n := 0.0
			if v {
				n = 1
			}
			influx.WriteClockMetric(clockID, field, n)
		}
	}
}
