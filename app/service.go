package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/kilianp07/fleetops/api"
	"github.com/kilianp07/fleetops/config"
	"github.com/kilianp07/fleetops/core/availability"
	"github.com/kilianp07/fleetops/core/events"
	"github.com/kilianp07/fleetops/core/ledger"
	"github.com/kilianp07/fleetops/core/lines"
	coremetrics "github.com/kilianp07/fleetops/core/metrics"
	coremon "github.com/kilianp07/fleetops/core/monitoring"
	"github.com/kilianp07/fleetops/core/planning"
	"github.com/kilianp07/fleetops/core/store"
	"github.com/kilianp07/fleetops/core/templates"
	"github.com/kilianp07/fleetops/core/trips"
	"github.com/kilianp07/fleetops/infra/logger"
	"github.com/kilianp07/fleetops/infra/metrics"
	"github.com/kilianp07/fleetops/infra/monitoring"
	"github.com/kilianp07/fleetops/infra/mqtt"
	_ "github.com/kilianp07/fleetops/infra/sqlstore"
	"github.com/kilianp07/fleetops/internal/eventbus"
)

// Service wires the store, the lifecycle bus and the domain services.
type Service struct {
	Config       *config.Config
	Store        store.Store
	Bus          *eventbus.TypedBus[events.Event]
	Availability *availability.Service
	Planning     *planning.Generator
	Lines        *lines.Service
	Trips        *trips.Service
	Ledger       *ledger.Service
	Templates    *templates.Service

	mqtt *mqtt.PahoClient
	log  logger.Logger
}

// New configures logging and monitoring, opens the store and builds the
// services. It does not touch the network beyond the database.
func New(cfg *config.Config) (*Service, error) {
	if err := logger.Configure(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		return nil, err
	}
	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)

	st, err := store.New(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Storage.Type, err)
	}
	bus := eventbus.NewTyped[events.Event]()
	return &Service{
		Config:       cfg,
		Store:        st,
		Bus:          bus,
		Availability: availability.NewService(st, bus, logger.New("availability")),
		Planning:     planning.NewGenerator(st, bus, logger.New("planning")),
		Lines:        lines.NewService(st, bus, logger.New("lines")),
		Trips:        trips.NewService(st, bus, logger.New("trips")),
		Ledger:       ledger.NewService(st, bus, logger.New("ledger")),
		Templates:    templates.NewService(st, logger.New("templates")),
		log:          logger.New("service"),
	}, nil
}

// Start attaches the metrics sinks and, when a broker is configured, the
// MQTT bridge to the bus. Consumers stop with ctx or Close.
func (s *Service) Start(ctx context.Context) error {
	sink, err := coremetrics.NewMetricsSink(s.Config.Metrics.Sinks)
	if err != nil {
		return fmt.Errorf("metrics sinks: %w", err)
	}
	metrics.StartEventCollector(ctx, s.Bus, sink)
	if port := s.Config.Metrics.PrometheusPort; port != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, port); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	if s.Config.MQTTEnabled() {
		client, err := mqtt.NewPahoClient(s.Config.MQTT)
		if err != nil {
			return fmt.Errorf("mqtt client: %w", err)
		}
		s.mqtt = client
		mqtt.NewBridge(client, s.Config.MQTT.TopicPrefix).Start(ctx, s.Bus)
	}
	return nil
}

// Router builds the HTTP API over the services.
func (s *Service) Router() http.Handler {
	return api.NewRouter(api.Services{
		Store:        s.Store,
		Availability: s.Availability,
		Planning:     s.Planning,
		Lines:        s.Lines,
		Trips:        s.Trips,
		Ledger:       s.Ledger,
		Templates:    s.Templates,
	}, api.Options{
		Token:       s.Config.HTTP.Token,
		CORSOrigins: s.Config.HTTP.CORSOrigins,
		Metrics:     metrics.Handler(),
		MetricsPath: s.Config.HTTP.MetricsPath,
		Location:    s.Config.Planning.Location(),
		Logger:      logger.New("api"),
	})
}

// Run starts the consumers and serves HTTP until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              s.Config.HTTP.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       s.Config.HTTP.ReadTimeout(),
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Infow("http listening", map[string]any{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	if n := s.Bus.Dropped(); n > 0 {
		s.log.Warnf("%d event deliveries dropped", n)
	}
	s.Bus.Close()
	if s.mqtt != nil {
		s.mqtt.Disconnect()
	}
	coremon.Flush(2 * time.Second)
	return s.Store.Close()
}
