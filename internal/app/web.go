// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/relabs-tech/geolocation/internal/config"
	"github.com/relabs-tech/geolocation/internal/geolocation"
	"github.com/relabs-tech/geolocation/internal/host/ws"
	"github.com/relabs-tech/geolocation/internal/observability"
	"github.com/relabs-tech/geolocation/internal/platform"
)

// requestSlack is added to the service timeout before the HTTP handler gives
// up waiting.
const requestSlack = time.Second

type webServer struct {
	adapter *geolocation.Adapter
	logger  zerolog.Logger
}

// NewRouter builds the HTTP API around adapter. Events are streamed to
// browsers through hub on /ws.
func NewRouter(adapter *geolocation.Adapter, hub *ws.Hub, metrics http.Handler, logger zerolog.Logger) *mux.Router {
	s := &webServer{adapter: adapter, logger: logger.With().Str("module", "web").Logger()}

	r := mux.NewRouter()
	r.HandleFunc("/api/location", s.handleLocation).Methods(http.MethodGet)
	r.HandleFunc("/api/observe/start", s.handleStartObserving).Methods(http.MethodPost)
	r.HandleFunc("/api/observe/stop", s.handleStopObserving).Methods(http.MethodPost)
	r.Handle("/ws", hub)
	if metrics != nil {
		r.Handle("/metrics", metrics)
	}
	// Static files from ./web as the root
	r.PathPrefix("/").Handler(http.FileServer(http.Dir("web")))
	return r
}

func (s *webServer) handleLocation(w http.ResponseWriter, r *http.Request) {
	opts, err := optionsFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	timeout := time.Duration(platform.DefaultTimeoutMs) * time.Millisecond
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout+requestSlack)
	defer cancel()

	pos, err := s.adapter.CurrentLocation(ctx, opts)
	var info geolocation.ErrorInfo
	switch {
	case err == nil:
		s.writeJSON(w, http.StatusOK, pos)
	case errors.As(err, &info):
		s.writeJSON(w, http.StatusServiceUnavailable, info)
	case errors.Is(err, context.DeadlineExceeded):
		http.Error(w, "location request timed out", http.StatusGatewayTimeout)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *webServer) handleStartObserving(w http.ResponseWriter, r *http.Request) {
	var req platform.ObserveRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, fmt.Sprintf("invalid observe request: %v", err), http.StatusBadRequest)
			return
		}
	}
	if err := validate.Struct(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid observe request: %v", err), http.StatusBadRequest)
		return
	}
	s.adapter.StartObserving(req)
	w.WriteHeader(http.StatusAccepted)
}

func (s *webServer) handleStopObserving(w http.ResponseWriter, _ *http.Request) {
	s.adapter.StopObserving()
	w.WriteHeader(http.StatusAccepted)
}

func (s *webServer) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Msg("json encode error")
	}
}

func optionsFromQuery(r *http.Request) (geolocation.Options, error) {
	q := r.URL.Query()
	var opts geolocation.Options

	age, err := geolocation.ParseMaximumAge(q.Get("maximumAge"))
	if err != nil {
		return opts, err
	}
	opts.MaximumAge = age

	if v := q.Get("timeout"); v != "" {
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil || ms < 0 {
			return opts, fmt.Errorf("invalid timeout %q", v)
		}
		opts.Timeout = time.Duration(ms) * time.Millisecond
	}

	if v := q.Get("enableHighAccuracy"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, fmt.Errorf("invalid enableHighAccuracy %q", v)
		}
		opts.EnableHighAccuracy = b
	}
	return opts, nil
}

// RunWeb serves the location API and the event stream to browsers.
func RunWeb() error {
	cfg := config.Get()
	logger := NewLogger(cfg.LogLevel)

	svc, closeSvc, err := openService(context.Background(), cfg, logger)
	if err != nil {
		return err
	}
	defer closeSvc()

	hub := ws.NewHub(logger)
	adapter := geolocation.New(svc,
		geolocation.WithLogger(logger),
		geolocation.WithMetrics(observability.NewMetrics()),
		geolocation.WithBinding(hub),
	)
	defer adapter.StopObserving()

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	logger.Info().Str("addr", addr).Msg("web server listening")
	return http.ListenAndServe(addr, NewRouter(adapter, hub, promhttp.Handler(), logger))
}
