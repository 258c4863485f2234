package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/ONSdigital/log.go/v2/log"
	"github.com/gorilla/mux"

	"github.com/carelog/export-summariser/config"
	"github.com/carelog/export-summariser/generator"
	"github.com/carelog/export-summariser/server"
)

// Service contains the config, server and registry needed to run the mock
// export API
type Service struct {
	cfg         *config.Config
	server      HTTPServer
	healthCheck HealthChecker
	api         *server.API
}

func New() *Service {
	return &Service{}
}

// Init initialises the service and its dependencies
func (svc *Service) Init(ctx context.Context, cfg *config.Config, buildTime, gitCommit, version string) error {
	var err error

	if cfg == nil {
		return errors.New("nil config passed to service init")
	}

	svc.cfg = cfg

	registry, err := server.BuildRegistry(server.DefaultSpecs(), generator.New())
	if err != nil {
		return fmt.Errorf("failed to build export registry: %w", err)
	}

	if svc.healthCheck, err = GetHealthCheck(cfg, buildTime, gitCommit, version); err != nil {
		return fmt.Errorf("could not instantiate healthcheck: %w", err)
	}

	r := mux.NewRouter()
	r.StrictSlash(true).Path("/health").HandlerFunc(svc.healthCheck.Handler)
	svc.api = server.Setup(r, registry)

	if err := svc.registerCheckers(); err != nil {
		return fmt.Errorf("error initialising checkers: %w", err)
	}

	svc.server = GetHTTPServer(cfg.BindAddr, r)

	return nil
}

// Start the service
func (svc *Service) Start(ctx context.Context, svcErrors chan error) {
	log.Info(ctx, "starting service", log.Data{"bind_addr": svc.cfg.BindAddr})

	svc.healthCheck.Start(ctx)

	// Run the http server in a new go-routine
	go func() {
		if err := svc.server.ListenAndServe(); err != nil {
			svcErrors <- fmt.Errorf("failure in http listen and serve: %w", err)
		}
	}()
}

// Close gracefully shuts the service down in the required order, with timeout
func (svc *Service) Close(ctx context.Context) error {
	timeout := svc.cfg.GracefulShutdownTimeout
	log.Info(ctx, "commencing graceful shutdown", log.Data{"graceful_shutdown_timeout": timeout})
	ctx, cancel := context.WithTimeout(ctx, timeout)
	hasShutdownError := false

	go func() {
		defer cancel()

		// stop healthcheck first, as it depends on everything else
		if svc.healthCheck != nil {
			svc.healthCheck.Stop()
			log.Info(ctx, "stopped health checker")
		}

		if svc.server != nil {
			if err := svc.server.Shutdown(ctx); err != nil {
				log.Error(ctx, "failed to shutdown http server", err)
				hasShutdownError = true
			} else {
				log.Info(ctx, "stopped http server")
			}
		}
	}()

	// wait for shutdown success (via cancel) or failure (timeout)
	<-ctx.Done()

	// timeout expired
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		log.Error(ctx, "shutdown timed out", ctx.Err())
		return ctx.Err()
	}

	// other error
	if hasShutdownError {
		err := errors.New("failed to shutdown gracefully")
		log.Error(ctx, "failed to shutdown gracefully", err)
		return err
	}

	log.Info(ctx, "graceful shutdown was successful")
	return nil
}

// registerCheckers adds the checkers for the service dependencies to the
// health check object
func (svc *Service) registerCheckers() error {
	if err := svc.healthCheck.AddCheck("Export registry", svc.api.Checker); err != nil {
		return fmt.Errorf("error adding check for export registry: %w", err)
	}
	return nil
}
