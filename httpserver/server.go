package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"github.com/flashbots/go-utils/httplogger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/ruteri/contract-instance-registry/api"
	"github.com/ruteri/contract-instance-registry/common"
	"github.com/ruteri/contract-instance-registry/interfaces"
	"github.com/ruteri/contract-instance-registry/metrics"
	"go.uber.org/atomic"
)

// eventBufferSize is the capacity of the creation event channel. The
// consumer only logs, so a small buffer absorbs creation bursts.
const eventBufferSize = 16

// Server hosts the registry API, health endpoints, and optionally metrics
// and pprof. It also consumes the registry's creation event stream for
// operational logging.
type Server struct {
	cfg     *api.HTTPServerConfig
	isReady atomic.Bool
	log     *slog.Logger

	srv        *http.Server
	metricsSrv *metrics.MetricsServer
	handler    *Handler

	events chan interfaces.InstanceCreated
	sub    event.Subscription
}

// New creates a Server for the given handler. The metrics listener is only
// created when the config names a metrics address.
func New(cfg *api.HTTPServerConfig, handler *Handler) (srv *Server, err error) {
	srv = &Server{
		cfg:     cfg,
		log:     cfg.Log,
		handler: handler,
		events:  make(chan interfaces.InstanceCreated, eventBufferSize),
	}

	if cfg.MetricsAddr != "" {
		srv.metricsSrv, err = metrics.New(common.PackageName, cfg.MetricsAddr)
		if err != nil {
			return nil, err
		}
	}

	srv.isReady.Store(true)

	srv.srv = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      srv.getRouter(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return srv, nil
}

func (srv *Server) getRouter() http.Handler {
	mux := chi.NewRouter()

	// Creation API
	mux.With(srv.httpLogger).Post(api.RouteCreateInstance, srv.handler.HandleCreateInstance)
	mux.With(srv.httpLogger).Post(api.RouteCreateInstanceDeterministic, srv.handler.HandleCreateInstanceDeterministic)

	// Public read API
	mux.With(srv.httpLogger).Get(api.RouteInstanceMetadata, srv.handler.HandleInstanceMetadata)
	mux.With(srv.httpLogger).Get(api.RouteInstanceAddress, srv.handler.HandleInstanceAddress)
	mux.With(srv.httpLogger).Get(api.RouteInstanceDescriptor, srv.handler.HandleInstanceDescriptor)
	mux.With(srv.httpLogger).Get(api.RouteRegistryInfo, srv.handler.HandleRegistryInfo)

	// Owner-signed admin API
	mux.With(srv.httpLogger).Post(api.RouteUpdateMetadata, srv.handler.HandleUpdateMetadata)
	mux.With(srv.httpLogger).Post(api.RouteDestroyInstance, srv.handler.HandleDestroyInstance)
	mux.With(srv.httpLogger).Post(api.RoutePublishDescriptor, srv.handler.HandlePublishDescriptor)

	// Health and diagnostic endpoints
	mux.With(srv.httpLogger).Get("/livez", srv.handleLivenessCheck)
	mux.With(srv.httpLogger).Get("/readyz", srv.handleReadinessCheck)
	mux.With(srv.httpLogger).Get("/drain", srv.handleDrain)
	mux.With(srv.httpLogger).Get("/undrain", srv.handleUndrain)

	if srv.cfg.EnablePprof {
		srv.log.Info("pprof API enabled")
		mux.Mount("/debug", middleware.Profiler())
	}
	return mux
}

func (srv *Server) httpLogger(next http.Handler) http.Handler {
	return httplogger.LoggingMiddlewareSlog(srv.log, next)
}

func (srv *Server) handleLivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"alive"}`))
}

func (srv *Server) handleReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if !srv.isReady.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"not ready"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}

func (srv *Server) handleDrain(w http.ResponseWriter, r *http.Request) {
	if !srv.isReady.Swap(false) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"already draining"}`))
		return
	}

	srv.log.Info("Server marked as not ready")

	// Wait the drain duration in the background so load balancers can
	// detect the readiness change without blocking this request.
	go func() {
		time.Sleep(srv.cfg.DrainDuration)
		srv.log.Info("Drain period completed")
	}()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"draining"}`))
}

func (srv *Server) handleUndrain(w http.ResponseWriter, r *http.Request) {
	if srv.isReady.Swap(true) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"already ready"}`))
		return
	}

	srv.log.Info("Server marked as ready")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}

// RunInBackground starts the API server, the metrics server when configured,
// and the creation event consumer. It returns immediately.
func (srv *Server) RunInBackground() {
	// metrics
	if srv.metricsSrv != nil {
		go func() {
			srv.log.With("metricsAddress", srv.cfg.MetricsAddr).Info("Starting metrics server")
			err := srv.metricsSrv.ListenAndServe()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				srv.log.Error("HTTP server failed", "err", err)
			}
		}()
	}

	// instance creation events
	srv.sub = srv.handler.registry.SubscribeInstanceCreated(srv.events)
	go func() {
		for ev := range srv.events {
			srv.log.Info("Instance created",
				slog.Uint64("instanceID", uint64(ev.ID)),
				slog.String("address", ev.Address.String()))
		}
	}()

	// api
	go func() {
		srv.log.Info("Starting HTTP server", "listenAddress", srv.cfg.ListenAddr)
		if err := srv.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srv.log.Error("HTTP server failed", "err", err)
		}
	}()
}

// Shutdown stops the event consumer and gracefully shuts down the API and
// metrics servers.
func (srv *Server) Shutdown() {
	// events; the feed stops delivering once unsubscribed, after which
	// closing the channel lets the consumer drain and exit.
	if srv.sub != nil {
		srv.sub.Unsubscribe()
		close(srv.events)
	}

	// api
	ctx, cancel := context.WithTimeout(context.Background(), srv.cfg.GracefulShutdownDuration)
	defer cancel()
	if err := srv.srv.Shutdown(ctx); err != nil {
		srv.log.Error("Graceful HTTP server shutdown failed", "err", err)
	} else {
		srv.log.Info("HTTP server gracefully stopped")
	}

	// metrics
	if srv.metricsSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), srv.cfg.GracefulShutdownDuration)
		defer cancel()

		if err := srv.metricsSrv.Shutdown(ctx); err != nil {
			srv.log.Error("Graceful metrics server shutdown failed", "err", err)
		} else {
			srv.log.Info("Metrics server gracefully stopped")
		}
	}
}
