// Gatekeeper - session-based authentication and authorization service.
//
// This is the main entry point. It wires the user store, the session
// cookie codec, optional MQTT/InfluxDB integrations and the HTTP API, then
// blocks until an interrupt signal arrives.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nerrad567/gatekeeper/internal/api"
	"github.com/nerrad567/gatekeeper/internal/auth"
	"github.com/nerrad567/gatekeeper/internal/events"
	"github.com/nerrad567/gatekeeper/internal/infrastructure/config"
	"github.com/nerrad567/gatekeeper/internal/infrastructure/database"
	"github.com/nerrad567/gatekeeper/internal/infrastructure/influxdb"
	"github.com/nerrad567/gatekeeper/internal/infrastructure/logging"
	"github.com/nerrad567/gatekeeper/internal/infrastructure/mqtt"
	"github.com/nerrad567/gatekeeper/internal/infrastructure/postgres"
	"github.com/nerrad567/gatekeeper/internal/metrics"
	"github.com/nerrad567/gatekeeper/internal/session"
	"github.com/nerrad567/gatekeeper/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// startupHealthTimeout bounds the health check run after startup.
const startupHealthTimeout = 5 * time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// It returns nil on clean shutdown.
func run(ctx context.Context) error { //nolint:gocognit,gocyclo // startup sequence: each optional integration adds a branch
	log := logging.Default()
	log.Info("starting gatekeeper",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
		"environment", cfg.Environment,
	)

	healthChecks := make(map[string]api.HealthChecker)

	// User store
	users, closeStore, err := openUserStore(ctx, cfg, log, healthChecks)
	if err != nil {
		return err
	}
	defer closeStore()

	if _, err := auth.SeedRoot(ctx, users, cfg.Auth.Root, log.Logger); err != nil {
		return fmt.Errorf("seeding root user: %w", err)
	}

	// User change events (optional)
	var publisher events.Publisher = events.Nop{}
	if cfg.MQTT.Enabled {
		mqttClient, connErr := mqtt.Connect(cfg.MQTT)
		if connErr != nil {
			return fmt.Errorf("connecting to MQTT: %w", connErr)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})

		publisher = events.NewMQTTPublisher(mqttClient, log)
		healthChecks["mqtt"] = mqttClient
	} else {
		log.Info("MQTT disabled, user events will not be published")
	}

	// Decision time series (optional)
	var series metrics.SeriesWriter
	if cfg.InfluxDB.Enabled {
		influxClient, connErr := influxdb.Connect(ctx, cfg.InfluxDB)
		if connErr != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", connErr)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		series = influxClient
		healthChecks["influxdb"] = influxClient
	} else {
		log.Info("InfluxDB disabled")
	}

	sessions, err := session.NewManager(cfg)
	if err != nil {
		return fmt.Errorf("creating session manager: %w", err)
	}

	apiServer, err := api.New(api.Deps{
		Config:       cfg,
		Logger:       log,
		Users:        users,
		Sessions:     sessions,
		Events:       publisher,
		Metrics:      metrics.New(cfg.Metrics.Namespace, series),
		HealthChecks: healthChecks,
		Version:      version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	healthChecks["api"] = apiServer

	if err := apiServer.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	if err := healthCheck(ctx, healthChecks); err != nil {
		return fmt.Errorf("startup health check: %w", err)
	}

	log.Info("gatekeeper started successfully",
		"address", fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port),
		"secure_cookies", cfg.CookieSecure(),
	)

	<-ctx.Done()
	log.Info("shutdown signal received, stopping services")
	return nil
}

// openUserStore opens the configured database, applies migrations and
// returns the repository together with its close function.
func openUserStore(ctx context.Context, cfg *config.Config, log *logging.Logger, checks map[string]api.HealthChecker) (auth.UserRepository, func(), error) {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		db, err := postgres.Open(ctx, postgres.Config{
			URL:      cfg.Database.Postgres.URL,
			MaxConns: cfg.Database.Postgres.MaxConns,
			MinConns: cfg.Database.Postgres.MinConns,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("opening postgres: %w", err)
		}
		closeFn := func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}
		if err := db.Migrate(ctx, migrations.Postgres()); err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("running migrations: %w", err)
		}
		log.Info("database connected", "driver", config.DriverPostgres)

		checks["database"] = db
		return auth.NewPostgresUserRepository(db.Pool), closeFn, nil

	default:
		db, err := database.Open(database.Config{
			Path:        cfg.Database.SQLite.Path,
			WALMode:     cfg.Database.SQLite.WALMode,
			BusyTimeout: cfg.Database.SQLite.BusyTimeout,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("opening database: %w", err)
		}
		closeFn := func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}
		if err := db.Migrate(ctx, migrations.SQLite()); err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("running migrations: %w", err)
		}
		log.Info("database connected", "driver", config.DriverSQLite, "path", cfg.Database.SQLite.Path)

		checks["database"] = db
		return auth.NewUserRepository(db.DB), closeFn, nil
	}
}

// healthCheck verifies every backing service answers once before the
// service reports itself started.
func healthCheck(ctx context.Context, checks map[string]api.HealthChecker) error {
	ctx, cancel := context.WithTimeout(ctx, startupHealthTimeout)
	defer cancel()

	for name, checker := range checks {
		if err := checker.HealthCheck(ctx); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// getConfigPath returns the config file path from GATEKEEPER_CONFIG or the default.
func getConfigPath() string {
	if path := os.Getenv("GATEKEEPER_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
