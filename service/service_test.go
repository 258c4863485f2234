package service_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/ONSdigital/dp-healthcheck/healthcheck"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/carelog/export-summariser/config"
	"github.com/carelog/export-summariser/service"
	"github.com/carelog/export-summariser/service/mock"
)

var (
	ctx           = context.Background()
	testBuildTime = "BuildTime"
	testGitCommit = "GitCommit"
	testVersion   = "Version"

	errServer      = errors.New("HTTP Server error")
	errHealthcheck = errors.New("healthCheck error")
	errAddCheck    = errors.New("internal server error")
)

func testConfig() *config.Config {
	return &config.Config{
		BindAddr:                   "localhost:28400",
		GracefulShutdownTimeout:    5 * time.Second,
		HealthCheckInterval:        30 * time.Second,
		HealthCheckCriticalTimeout: 90 * time.Second,
	}
}

func TestInit(t *testing.T) {
	Convey("Having a set of mocked dependencies", t, func() {
		cfg := testConfig()

		hcMock := &mock.HealthCheckerMock{
			AddCheckFunc: func(name string, checker healthcheck.Checker) error { return nil },
		}

		serverMock := &mock.HTTPServerMock{}

		service.GetHealthCheck = func(cfg *config.Config, buildTime, gitCommit, version string) (service.HealthChecker, error) {
			return hcMock, nil
		}

		service.GetHTTPServer = func(bindAddr string, router http.Handler) service.HTTPServer {
			return serverMock
		}

		svc := service.New()

		Convey("Given that initialising healthcheck returns an error", func() {
			service.GetHealthCheck = func(cfg *config.Config, buildTime, gitCommit, version string) (service.HealthChecker, error) {
				return nil, errHealthcheck
			}

			Convey("Then service Init fails with the same error", func() {
				err := svc.Init(ctx, cfg, testBuildTime, testGitCommit, testVersion)
				So(errors.Is(err, errHealthcheck), ShouldBeTrue)
			})
		})

		Convey("Given that registering a checker returns an error", func() {
			hcMock.AddCheckFunc = func(name string, checker healthcheck.Checker) error { return errAddCheck }

			Convey("Then service Init fails with the same error", func() {
				err := svc.Init(ctx, cfg, testBuildTime, testGitCommit, testVersion)
				So(errors.Is(err, errAddCheck), ShouldBeTrue)
				So(hcMock.AddCheckCalls(), ShouldHaveLength, 1)
			})
		})

		Convey("Given a nil config", func() {
			Convey("Then service Init fails", func() {
				err := svc.Init(ctx, nil, testBuildTime, testGitCommit, testVersion)
				So(err, ShouldNotBeNil)
			})
		})

		Convey("Given that all dependencies are successfully initialised", func() {
			err := svc.Init(ctx, cfg, testBuildTime, testGitCommit, testVersion)

			Convey("Then service Init succeeds and the registry checker is registered", func() {
				So(err, ShouldBeNil)
				So(hcMock.AddCheckCalls(), ShouldHaveLength, 1)
				So(hcMock.AddCheckCalls()[0].Name, ShouldEqual, "Export registry")
			})
		})
	})
}

func TestStart(t *testing.T) {
	Convey("Having a correctly initialised service", t, func() {
		cfg := testConfig()

		hcMock := &mock.HealthCheckerMock{
			AddCheckFunc: func(name string, checker healthcheck.Checker) error { return nil },
			StartFunc:    func(ctx context.Context) {},
		}

		serverWg := &sync.WaitGroup{}
		serverMock := &mock.HTTPServerMock{}

		service.GetHealthCheck = func(cfg *config.Config, buildTime, gitCommit, version string) (service.HealthChecker, error) {
			return hcMock, nil
		}

		service.GetHTTPServer = func(bindAddr string, router http.Handler) service.HTTPServer {
			return serverMock
		}

		svc := service.New()
		So(svc.Init(ctx, cfg, testBuildTime, testGitCommit, testVersion), ShouldBeNil)

		Convey("When the service starts successfully", func() {
			serverMock.ListenAndServeFunc = func() error {
				serverWg.Done()
				return nil
			}

			serverWg.Add(1)
			svc.Start(ctx, make(chan error, 1))
			serverWg.Wait()

			Convey("Then healthcheck and http server are started", func() {
				So(hcMock.StartCalls(), ShouldHaveLength, 1)
				So(serverMock.ListenAndServeCalls(), ShouldHaveLength, 1)
			})
		})

		Convey("When the http server fails", func() {
			serverMock.ListenAndServeFunc = func() error {
				serverWg.Done()
				return errServer
			}

			errChan := make(chan error, 1)
			serverWg.Add(1)
			svc.Start(ctx, errChan)
			serverWg.Wait()

			Convey("Then the error is sent to the service error channel", func() {
				sErr := <-errChan
				So(sErr.Error(), ShouldResemble, fmt.Sprintf("failure in http listen and serve: %s", errServer.Error()))
			})
		})
	})
}

func TestClose(t *testing.T) {
	Convey("Having a correctly initialised service", t, func() {
		cfg := testConfig()

		hcStopped := false

		hcMock := &mock.HealthCheckerMock{
			AddCheckFunc: func(name string, checker healthcheck.Checker) error { return nil },
			StartFunc:    func(ctx context.Context) {},
			StopFunc:     func() { hcStopped = true },
		}

		// Shutdown verifies that healthcheck is stopped before the server
		serverMock := &mock.HTTPServerMock{
			ListenAndServeFunc: func() error { return nil },
			ShutdownFunc: func(ctx context.Context) error {
				if !hcStopped {
					return errors.New("server was shut down before healthcheck")
				}
				return nil
			},
		}

		service.GetHealthCheck = func(cfg *config.Config, buildTime, gitCommit, version string) (service.HealthChecker, error) {
			return hcMock, nil
		}

		service.GetHTTPServer = func(bindAddr string, router http.Handler) service.HTTPServer {
			return serverMock
		}

		svc := service.New()
		So(svc.Init(ctx, cfg, testBuildTime, testGitCommit, testVersion), ShouldBeNil)

		Convey("When the service is closed and all dependencies shut down cleanly", func() {
			err := svc.Close(ctx)

			Convey("Then no error is returned and shutdown happens in order", func() {
				So(err, ShouldBeNil)
				So(hcMock.StopCalls(), ShouldHaveLength, 1)
				So(serverMock.ShutdownCalls(), ShouldHaveLength, 1)
			})
		})

		Convey("When the http server fails to shut down", func() {
			serverMock.ShutdownFunc = func(ctx context.Context) error {
				return errServer
			}

			err := svc.Close(ctx)

			Convey("Then Close fails, but still attempts everything", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldResemble, "failed to shutdown gracefully")
				So(hcMock.StopCalls(), ShouldHaveLength, 1)
				So(serverMock.ShutdownCalls(), ShouldHaveLength, 1)
			})
		})

		Convey("When the graceful shutdown timeout expires", func() {
			cfg.GracefulShutdownTimeout = time.Millisecond
			serverMock.ShutdownFunc = func(ctx context.Context) error {
				time.Sleep(200 * time.Millisecond)
				return nil
			}

			err := svc.Close(ctx)

			Convey("Then Close fails with a deadline exceeded error", func() {
				So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
			})
		})
	})
}
