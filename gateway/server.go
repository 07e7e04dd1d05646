package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gobwas/ws"
	"github.com/jd3nn1s/forzadash"
	"github.com/jd3nn1s/forzadash/config"
	"github.com/jd3nn1s/forzadash/hub"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type StaticSource interface {
	Snapshot() (forzadash.StaticSnapshot, bool)
}

// Server exposes the websocket stream and JSON views of the current state.
type Server struct {
	hub    *hub.Hub
	state  forzadash.StateSource
	static StaticSource
	wsCfg  *config.WebSocketConfig

	srv *http.Server
}

func NewServer(addr string, h *hub.Hub, state forzadash.StateSource, static StaticSource, wsCfg *config.WebSocketConfig) *Server {
	s := &Server{
		hub:    h,
		state:  state,
		static: static,
		wsCfg:  wsCfg,
	}
	s.srv = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/websocket", s.handleWebsocket)
	mux.HandleFunc("/static", s.handleStatic)
	mux.HandleFunc("/telemetry", s.handleTelemetry)
	return mux
}

func (s *Server) ListenAndServe() error {
	log.WithField("addr", s.srv.Addr).Info("http server started")
	if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
		return errors.Wrap(err, "http server failed")
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	if !strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		w.Write([]byte("Hello"))
		return
	}
	conn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		log.WithField("err", err).Warn("websocket upgrade failed")
		return
	}
	NewClient(conn, s.hub, s.wsCfg).Start()
}

func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.static.Snapshot()
	if !ok {
		writeJSON(w, struct{}{})
		return
	}
	writeJSON(w, &snap)
}

func (s *Server) handleTelemetry(w http.ResponseWriter, r *http.Request) {
	state, ok := s.state.Snapshot()
	if !ok {
		writeJSON(w, struct{}{})
		return
	}
	writeJSON(w, &state.Telemetry)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithField("err", err).Warn("unable to write response")
	}
}
