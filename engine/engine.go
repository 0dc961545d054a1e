package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/mfdesk/mfgateway/config"
	"github.com/mfdesk/mfgateway/database"
	"github.com/mfdesk/mfgateway/database/repository"
	"github.com/mfdesk/mfgateway/exchanges/nse"
	"github.com/mfdesk/mfgateway/log"
	"github.com/mfdesk/mfgateway/metrics"
	"github.com/mfdesk/mfgateway/schememaster"
)

const (
	serverReadHeaderTimeout = 10 * time.Second
	serverShutdownTimeout   = 10 * time.Second
	databaseConnectTimeout  = 30 * time.Second
)

var errEngineIsNil = errors.New("engine instance is nil")

// Engine contains configuration and every subsystem of the gateway and is the
// overarching type across this code base
type Engine struct {
	Config       *config.Config
	Broker       *nse.NSE
	SchemeMaster *schememaster.Store
	Database     database.Store
	Metrics      *metrics.Collector

	apiServer *http.Server
	serveErr  chan error
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	now       func() time.Time
	Shutdown  chan struct{}
}

// New builds an engine from a validated configuration. The database is
// connected by Start.
func New(cfg *config.Config) (*Engine, error) {
	if cfg == nil {
		return nil, errors.New("engine: config is nil")
	}
	e := &Engine{
		Config:   cfg,
		Metrics:  metrics.NewCollector(),
		Database: database.Noop{},
		now:      time.Now,
	}
	e.Broker = nse.New(&cfg.Broker, e.Metrics)

	var err error
	e.SchemeMaster, err = schememaster.NewStore(cfg.SchemeMaster.Dir,
		cfg.SchemeMaster.DefaultLimit,
		e.Broker,
		e.Metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to open scheme master directory %s: %w", cfg.SchemeMaster.Dir, err)
	}
	return e, nil
}

// Start connects the database, then starts the metrics and API servers in
// the background. A database that cannot be reached is logged and the
// gateway continues without persistence.
func (e *Engine) Start(ctx context.Context) error {
	if e == nil {
		return errEngineIsNil
	}
	ctx, e.cancel = context.WithCancel(ctx)
	e.PrintSettings()

	dbCtx, cancel := context.WithTimeout(ctx, databaseConnectTimeout)
	db, err := repository.Open(dbCtx, &e.Config.Database)
	cancel()
	if err != nil {
		log.Errorf(log.DatabaseMgr, "Database unavailable, continuing without persistence: %v", err)
	} else {
		e.Database = db
	}

	if e.Config.Metrics.Enabled {
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			if err := metrics.RunPrometheus(ctx, e.Config.Metrics.ListenAddress, e.Metrics); err != nil {
				log.Errorf(log.MetricsMgr, "Metrics server stopped: %v", err)
			}
		}()
	}

	e.serveErr = make(chan error, 1)
	e.apiServer = &http.Server{
		Addr:              e.Config.Server.ListenAddress,
		Handler:           e.newRouter(),
		ReadHeaderTimeout: serverReadHeaderTimeout,
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		log.Infof(log.APIServerMgr, "API server listening on %s", e.apiServer.Addr)
		if err := e.apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf(log.APIServerMgr, "API server stopped: %v", err)
			e.serveErr <- fmt.Errorf("api server: %w", err)
		}
	}()
	return nil
}

// Run starts the engine and blocks until an interrupt or termination signal
// is received, then stops it. An API server that fails to serve stops the
// engine and its error is returned.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.Start(ctx); err != nil {
		return err
	}
	e.handleInterrupt()
	var serveErr error
	select {
	case <-e.Shutdown:
	case <-ctx.Done():
	case serveErr = <-e.serveErr:
	}
	return errors.Join(serveErr, e.Stop())
}

// Stop gracefully shuts down the API server, the metrics server and the
// database connection
func (e *Engine) Stop() error {
	if e == nil {
		return errEngineIsNil
	}
	log.Infoln(log.Global, "Engine shutting down..")

	var errs []error
	if e.apiServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
		if err := e.apiServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("api server shutdown: %w", err))
		}
		cancel()
	}
	if e.cancel != nil {
		e.cancel()
	}
	e.wg.Wait()
	if err := e.Database.Close(); err != nil {
		errs = append(errs, fmt.Errorf("database close: %w", err))
	}
	log.Infoln(log.Global, "Exiting.")
	return errors.Join(errs...)
}

// PrintSettings logs the effective settings. Credentials are never logged.
func (e *Engine) PrintSettings() {
	c := e.Config
	log.Debugln(log.Global, "ENGINE SETTINGS")
	log.Debugf(log.Global, "\t Broker URL: %s", c.Broker.URL)
	log.Debugf(log.Global, "\t Broker login: %s member: %s", c.Broker.LoginUserID, c.Broker.MemberID)
	log.Debugf(log.Global, "\t Broker HTTP timeout: %v", c.Broker.HTTPTimeout)
	log.Debugf(log.Global, "\t Broker rate limit: %v/s", c.Broker.RateLimit)
	log.Debugf(log.Global, "\t Simulate when unreachable: %v", c.Broker.SimulateWhenUnreachable)
	log.Debugf(log.Global, "\t Scheme master directory: %s", c.SchemeMaster.Dir)
	log.Debugf(log.Global, "\t API listen address: %s", c.Server.ListenAddress)
	log.Debugf(log.Global, "\t Database driver: %s", c.Database.Driver)
	log.Debugf(log.Global, "\t Metrics enabled: %v", c.Metrics.Enabled)
	if c.Broker.InsecureSkipVerify {
		log.Warnln(log.BrokerSys, "TLS certificate verification is disabled for the broker connection")
	}
}

// handleInterrupt monitors and captures the SIGTERM in a new goroutine then
// signals the engine to shut down
func (e *Engine) handleInterrupt() {
	c := make(chan os.Signal, 1)
	e.Shutdown = make(chan struct{})
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-c
		log.Infof(log.Global, "Captured %v, shutdown requested.", sig)
		close(e.Shutdown)
	}()
}
