package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/flashbots/go-utils/httplogger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/atomic"

	"github.com/TheArchitect2000/fidesinnova-smart-contract-protocol/common"
	"github.com/TheArchitect2000/fidesinnova-smart-contract-protocol/metrics"
)

type HTTPServerConfig struct {
	ListenAddr  string
	MetricsAddr string
	EnablePprof bool
	Log         *slog.Logger

	DrainDuration            time.Duration
	GracefulShutdownDuration time.Duration
	ReadTimeout              time.Duration
	WriteTimeout             time.Duration
}

type Server struct {
	cfg     *HTTPServerConfig
	isReady atomic.Bool
	log     *slog.Logger

	srv        *http.Server
	metricsSrv *metrics.MetricsServer
	handler    *Handler
}

func New(cfg *HTTPServerConfig, handler *Handler) (srv *Server, err error) {
	metricsSrv, err := metrics.New(common.PackageName, cfg.MetricsAddr)
	if err != nil {
		return nil, err
	}

	srv = &Server{
		cfg:        cfg,
		log:        cfg.Log,
		srv:        nil,
		metricsSrv: metricsSrv,
		handler:    handler,
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

	mux.Route("/api/v1", func(r chi.Router) {
		r.Use(srv.httpLogger)

		r.Get("/managers", srv.handler.HandleListManagers)
		r.Post("/managers", srv.handler.HandleAddManager)
		r.Delete("/nodes/{node_id}/manager", srv.handler.HandleRemoveManager)

		r.Get("/devices", srv.handler.HandleListDevices)
		r.Post("/nodes/{node_id}/devices", srv.handler.HandleCreateDevice)
		r.Get("/nodes/{node_id}/devices/{device_id}", srv.handler.HandleGetDevice)
		r.Delete("/nodes/{node_id}/devices/{device_id}", srv.handler.HandleRemoveDevice)
		r.Post("/nodes/{node_id}/devices/{device_id}/token", srv.handler.HandleMintToken)

		r.Get("/services", srv.handler.HandleListServices)
		r.Post("/nodes/{node_id}/services", srv.handler.HandleCreateService)
		r.Get("/nodes/{node_id}/services/{service_id}", srv.handler.HandleGetService)
		r.Get("/nodes/{node_id}/services/{service_id}/program", srv.handler.HandleGetServiceProgram)
		r.Delete("/nodes/{node_id}/services/{service_id}", srv.handler.HandleRemoveService)

		r.Get("/commitments", srv.handler.HandleListCommitments)
		r.Post("/nodes/{node_id}/commitments", srv.handler.HandleStoreCommitment)
		r.Get("/nodes/{node_id}/commitments/{commitment_id}", srv.handler.HandleGetCommitment)
		r.Get("/nodes/{node_id}/commitments/{commitment_id}/payload", srv.handler.HandleGetCommitmentPayload)
		r.Delete("/nodes/{node_id}/commitments/{commitment_id}", srv.handler.HandleRemoveCommitment)

		r.Get("/proofs", srv.handler.HandleListProofs)
		r.Get("/proofs/{index}", srv.handler.HandleGetProof)
		r.Post("/nodes/{node_id}/proofs", srv.handler.HandleSubmitProof)

		r.Get("/nodes/{node_id}/identities", srv.handler.HandleListIdentities)
		r.Post("/nodes/{node_id}/identities", srv.handler.HandleBindIdentity)
		r.Get("/nodes/{node_id}/identities/{identity}", srv.handler.HandleGetIdentity)
		r.Delete("/nodes/{node_id}/identities/{identity}", srv.handler.HandleUnbindIdentity)

		r.Get("/tokens", srv.handler.HandleListTokens)
		r.Get("/tokens/{token_id}", srv.handler.HandleGetToken)
		r.Post("/tokens/{token_id}/transfer", srv.handler.HandleTransferToken)
		r.Delete("/tokens/{token_id}", srv.handler.HandleBurnToken)

		r.Get("/events", srv.handler.HandleEvents)
		r.Post("/snapshot", srv.handler.HandleStoreSnapshot)
		r.Put("/snapshot", srv.handler.HandleRestoreSnapshot)
	})

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

	// Wait out the drain period off the request handler so load balancers
	// can observe the readiness change.
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

func (srv *Server) RunInBackground() {
	// metrics
	if srv.cfg.MetricsAddr != "" {
		go func() {
			srv.log.With("metricsAddress", srv.cfg.MetricsAddr).Info("Starting metrics server")
			err := srv.metricsSrv.ListenAndServe()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				srv.log.Error("Metrics server failed", "err", err)
			}
		}()
	}

	// api
	go func() {
		srv.log.Info("Starting HTTP server", "listenAddress", srv.cfg.ListenAddr)
		if err := srv.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srv.log.Error("HTTP server failed", "err", err)
		}
	}()
}

func (srv *Server) Shutdown() {
	// api
	ctx, cancel := context.WithTimeout(context.Background(), srv.cfg.GracefulShutdownDuration)
	defer cancel()
	if err := srv.srv.Shutdown(ctx); err != nil {
		srv.log.Error("Graceful HTTP server shutdown failed", "err", err)
	} else {
		srv.log.Info("HTTP server gracefully stopped")
	}

	// metrics
	if len(srv.cfg.MetricsAddr) != 0 {
		ctx, cancel := context.WithTimeout(context.Background(), srv.cfg.GracefulShutdownDuration)
		defer cancel()

		if err := srv.metricsSrv.Shutdown(ctx); err != nil {
			srv.log.Error("Graceful metrics server shutdown failed", "err", err)
		} else {
			srv.log.Info("Metrics server gracefully stopped")
		}
	}
}
