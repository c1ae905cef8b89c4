package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/trustscan/pkg/config"
	"github.com/trustscan/pkg/db"
	"github.com/trustscan/pkg/pipeline"
)

type Server struct {
	store *db.Store
	pipe  *pipeline.Pipeline
	cfg   *config.Config

	upgrader websocket.Upgrader
}

func New(store *db.Store, pipe *pipeline.Pipeline, cfg *config.Config) *Server {
	return &Server{
		store: store,
		pipe:  pipe,
		cfg:   cfg,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (s *Server) Run() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	log.Info().Str("addr", addr).Msg("🌐 api server started")
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/token/", cors(s.handleToken))
	mux.HandleFunc("/api/recent", cors(s.handleRecent))
	mux.HandleFunc("/api/stats", cors(s.handleStats))
	mux.HandleFunc("/ws/scan", s.handleScanStream)

	return mux
}

func cors(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(200)
			return
		}
		h(w, r)
	}
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// handleToken runs (or serves from cache) a scan for one address and returns
// the finished result in a single response. Streaming callers use /ws/scan.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	address := strings.TrimPrefix(r.URL.Path, "/api/token/")
	if address == "" || strings.Contains(address, "/") {
		writeError(w, 400, "missing token address")
		return
	}
	refresh := r.URL.Query().Get("refresh") == "1"

	result, err := s.pipe.Scan(r.Context(), address, refresh, nil)
	if err != nil {
		writeError(w, 422, err.Error())
		return
	}
	writeJSON(w, result)
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	results, err := s.store.Recent(limit)
	if err != nil {
		writeError(w, 500, "query failed")
		return
	}
	if results == nil {
		results = []*db.ScanResult{}
	}
	writeJSON(w, results)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.GetStats()
	if err != nil {
		writeError(w, 500, "query failed")
		return
	}
	writeJSON(w, stats)
}

// handleScanStream upgrades to a websocket and forwards every pipeline event
// as one JSON message. The connection closes after the terminal event.
func (s *Server) handleScanStream(w http.ResponseWriter, r *http.Request) {
	address := r.URL.Query().Get("address")
	if address == "" {
		writeError(w, 400, "missing address query parameter")
		return
	}
	refresh := r.URL.Query().Get("refresh") == "1"

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("⚠️ websocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	// The pipeline serializes emit calls, so there is never more than one
	// concurrent writer on the connection.
	emit := func(ev pipeline.Event) {
		if err := conn.WriteJSON(ev); err != nil {
			cancel()
		}
	}

	s.pipe.Scan(ctx, address, refresh, emit)

	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
}
