// Gray Logic Show - lighting output runtime
//
// This is the main entry point. It loads config.yaml, builds the output
// controllers and their chains, starts one hardware update thread per chain
// root and serves the status API until interrupted.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver
	"periph.io/x/host/v3"

	"github.com/nerrad567/gray-logic-show/internal/api"
	"github.com/nerrad567/gray-logic-show/internal/execution"
	"github.com/nerrad567/gray-logic-show/internal/filter"
	"github.com/nerrad567/gray-logic-show/internal/hardware"
	"github.com/nerrad567/gray-logic-show/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-show/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-show/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-show/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-show/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-show/internal/instrumentation"
	"github.com/nerrad567/gray-logic-show/internal/journal"
	"github.com/nerrad567/gray-logic-show/internal/rig"
	"github.com/nerrad567/gray-logic-show/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// journalQueueSize bounds the journal recorder backlog.
const journalQueueSize = 512

func main() {
	issueToken := flag.String("issue-token", "", "print an operator API token for `subject` and exit")
	flag.Parse()

	if *issueToken != "" {
		if err := printToken(*issueToken); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// printToken mints an operator token with the configured secret and TTL.
func printToken(subject string) error {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	ttl := time.Duration(cfg.Security.JWT.AccessTokenTTL) * time.Minute
	tok, err := api.IssueToken(cfg.Security.JWT.Secret, subject, api.RoleOperator, ttl)
	if err != nil {
		return err
	}
	fmt.Println(tok)
	return nil
}

// run is the application logic, separated from main for testability.
// Deferred calls tear everything down in reverse order of construction.
func run(ctx context.Context) error { //nolint:gocognit,gocyclo // linear startup sequence
	log := logging.Default()
	log.Info("starting Gray Logic Show",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath, "controllers", len(cfg.Controllers))

	log = logging.New(cfg.Logging, version).With("site", cfg.Site.ID)
	log.Info("logger initialised",
		"site_name", cfg.Site.Name,
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Database and journal
	db, err := database.Open(database.FromConfig(cfg.Database))
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx, migrations.FS); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	journalRepo := journal.NewSQLiteRepository(db.DB)
	recorder := journal.NewRecorder(journalRepo, journalQueueSize)
	recorder.SetLogger(log.With("component", "journal"))
	recorderDone := make(chan struct{})
	recorderCtx, stopRecorder := context.WithCancel(context.Background())
	go func() {
		defer close(recorderDone)
		recorder.Run(recorderCtx)
	}()
	defer func() {
		stopRecorder()
		<-recorderDone
		if n := recorder.Dropped(); n > 0 {
			log.Warn("journal entries dropped", "count", n)
		}
	}()

	// MQTT
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log.With("component", "mqtt"))
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	// InfluxDB (optional)
	influxClient, err := influxdb.Connect(cfg.InfluxDB)
	switch {
	case errors.Is(err, influxdb.ErrDisabled):
		log.Info("InfluxDB disabled")
	case err != nil:
		return fmt.Errorf("connecting to InfluxDB: %w", err)
	default:
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	}

	// Peripheral drivers for the pixel module.
	if _, hostErr := host.Init(); hostErr != nil {
		log.Warn("periph host init failed, SPI pixel output unavailable", "error", hostErr)
	}

	// Show engine
	filter.SetEvaluation(cfg.Output.FilterEvaluation)

	playback := execution.NewPlayback()
	playback.SetLogger(log.With("component", "playback"))
	playback.Subscribe(recorder.ObserveEffect)

	if cfg.Output.LiveIntents {
		if subErr := mqttClient.Subscribe(mqtt.Topics{}.ShowIntent(), 1, playback.HandleLiveIntent); subErr != nil {
			return fmt.Errorf("subscribing to live intents: %w", subErr)
		}
		log.Info("live intents enabled", "topic", mqtt.Topics{}.ShowIntent())
	}

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	hub := api.NewHub(cfg.WebSocket, log.With("component", "websocket"))
	go hub.Run(hubCtx)

	outputs, err := rig.Build(cfg.Controllers, rig.Deps{
		Source:      playback,
		Publisher:   mqttClient,
		Broadcaster: hub,
		Logger:      log.With("component", "output"),
	})
	if err != nil {
		return fmt.Errorf("building controllers: %w", err)
	}

	registry := instrumentation.NewRegistry()
	for _, v := range playback.LiveIntentCounters() {
		registry.Add(v)
	}
	manager := hardware.NewManager(playback, registry, hardware.Config{
		JitterThreshold: cfg.Output.JitterThreshold(),
		StopTimeout:     cfg.Output.StopTimeout(),
	})
	manager.SetLogger(log.With("component", "hardware"))
	manager.Subscribe(recorder.ObserveDevice)
	manager.Subscribe(hub.BroadcastDeviceEvent)
	manager.Subscribe(func(ev hardware.Event) {
		go publishDeviceEvent(mqttClient, influxClient, ev)
	})
	if err := outputs.Attach(manager); err != nil {
		return fmt.Errorf("attaching devices: %w", err)
	}

	// Instrumentation and playback telemetry
	telemetryCtx, stopTelemetry := context.WithCancel(ctx)
	defer stopTelemetry()
	if influxClient != nil {
		go instrumentation.NewPublisher(registry, influxClient, cfg.Output.PublishEvery()).Run(telemetryCtx)
	}
	go publishPlayback(telemetryCtx, playback, mqttClient, influxClient, cfg.Output.PublishEvery())

	// Device threads
	if startErr := manager.StartAll(); startErr != nil {
		log.Error("some devices failed to start", "error", startErr)
	}
	defer func() {
		log.Info("stopping device threads")
		if stopErr := manager.StopAll(); stopErr != nil {
			log.Error("error stopping device threads", "error", stopErr)
		}
	}()
	log.Info("device threads started", "devices", len(manager.Threads()))

	// API
	server, err := api.New(api.Deps{
		Config:          cfg.API,
		WS:              cfg.WebSocket,
		Security:        cfg.Security,
		Logger:          log.With("component", "api"),
		Manager:         manager,
		Rig:             outputs,
		Playback:        playback,
		Journal:         journalRepo,
		Instrumentation: registry,
		Hub:             hub,
		Version:         version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	// Deferred calls run in reverse order:
	// API, device threads, telemetry, hub, InfluxDB, MQTT, journal, database.
	return nil
}

// getConfigPath returns the configuration file path.
// Uses GRAYSHOW_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("GRAYSHOW_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
// influxClient may be nil when InfluxDB is disabled.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	return nil
}

// deviceEventMessage is the MQTT payload of a device lifecycle event.
type deviceEventMessage struct {
	Device string    `json:"device"`
	Kind   string    `json:"kind"`
	Error  string    `json:"error,omitempty"`
	At     time.Time `json:"at"`
}

// publishDeviceEvent forwards a lifecycle event to MQTT and InfluxDB.
// influxClient may be nil.
func publishDeviceEvent(mqttClient *mqtt.Client, influxClient *influxdb.Client, ev hardware.Event) {
	msg := deviceEventMessage{Device: ev.Device, Kind: string(ev.Kind), At: ev.At}
	if ev.Err != nil {
		msg.Error = ev.Err.Error()
	}
	if payload, err := json.Marshal(msg); err == nil {
		//nolint:errcheck // Best-effort notification; the journal keeps the record
		mqttClient.Publish(mqtt.Topics{}.DeviceEvent(ev.Device, string(ev.Kind)), payload, 1, false)
	}
	if influxClient != nil {
		influxClient.WriteDeviceEvent(msg.Device, msg.Kind, msg.Error)
	}
}

// playbackStatus is the retained MQTT payload describing playback.
type playbackStatus struct {
	PositionMS int64 `json:"position_ms"`
	SnapshotMS int64 `json:"snapshot_ms"` // position the devices last rendered
	Effects    int   `json:"effects"`
}

func newPlaybackStatus(playback *execution.Playback) playbackStatus {
	return playbackStatus{
		PositionMS: playback.Position().Milliseconds(),
		SnapshotMS: playback.SnapshotPosition().Milliseconds(),
		Effects:    len(playback.Effects()),
	}
}

// publishPlayback reports the playback position every interval until ctx
// is cancelled. influxClient may be nil.
func publishPlayback(ctx context.Context, playback *execution.Playback, mqttClient *mqtt.Client, influxClient *influxdb.Client, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			status := newPlaybackStatus(playback)
			if payload, err := json.Marshal(status); err == nil {
				//nolint:errcheck // Best-effort status
				mqttClient.PublishRetained(mqtt.Topics{}.ShowPlayback(), payload)
			}
			if influxClient != nil {
				influxClient.WritePlaybackPosition(time.Duration(status.PositionMS)*time.Millisecond, status.Effects)
			}
		}
	}
}
