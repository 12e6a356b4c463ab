// Command mdserver runs an in-memory market-data handler behind a small
// HTTP API: a flag-configured Server struct, a mux of JSON handlers, and
// graceful shutdown on SIGINT/SIGTERM.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rishav/gosbe/internal/config"
	"github.com/rishav/gosbe/internal/marketdata"
	"github.com/rishav/gosbe/internal/queue/spsc"
)

// Server exposes a marketdata.Handler over HTTP for local testing and
// demoing the gap/recovery/snapshot flows without a real feed.
type Server struct {
	handler    *marketdata.Handler
	events     *spsc.Receiver[marketdata.MarketDataEvent]
	httpServer *http.Server
}

func newServer(cfg config.Config) *Server {
	sender, receiver := spsc.Channel[marketdata.MarketDataEvent](4096)
	handler := marketdata.NewHandler(sender)

	s := &Server{handler: handler, events: receiver}

	mux := http.NewServeMux()
	mux.HandleFunc("/subscribe", s.handleSubscribe)
	mux.HandleFunc("/snapshot", s.handleSnapshot)
	mux.HandleFunc("/incremental", s.handleIncremental)
	mux.HandleFunc("/book", s.handleBook)
	mux.HandleFunc("/state", s.handleState)
	mux.HandleFunc("/stats", s.handleStats)
	mux.HandleFunc("/events", s.handleEvents)
	mux.HandleFunc("/health", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	id, ok := instrumentIDFromQuery(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "instrument_id required")
		return
	}
	s.handler.Subscribe(id)
	writeJSON(w, http.StatusOK, map[string]any{"subscribed": id})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	var snap marketdata.Snapshot
	if err := json.NewDecoder(r.Body).Decode(&snap); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid snapshot: %v", err))
		return
	}
	if err := s.handler.OnSnapshot(snap); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"applied": true})
}

func (s *Server) handleIncremental(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	var upd marketdata.IncrementalUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid incremental: %v", err))
		return
	}
	if err := s.handler.OnIncremental(upd); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"applied": true})
}

func (s *Server) handleBook(w http.ResponseWriter, r *http.Request) {
	id, ok := instrumentIDFromQuery(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "instrument_id required")
		return
	}
	book, ok := s.handler.GetBook(id)
	if !ok {
		writeError(w, http.StatusNotFound, "instrument not subscribed")
		return
	}

	depth := 10
	if d := r.URL.Query().Get("depth"); d != "" {
		if parsed, err := strconv.Atoi(d); err == nil && parsed > 0 {
			depth = parsed
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"instrument_id":   id,
		"bids":            book.Depth(marketdata.Bid, depth),
		"asks":            book.Depth(marketdata.Ask, depth),
		"last_update_seq": book.LastUpdateSeq(),
		"crossed":         book.Crossed(),
	})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	id, ok := instrumentIDFromQuery(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "instrument_id required")
		return
	}
	state, ok := s.handler.GetState(id)
	if !ok {
		writeError(w, http.StatusNotFound, "instrument not subscribed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"instrument_id": id, "state": state.String()})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"pending_overflows": s.handler.Stats()})
}

// handleEvents drains whatever market-data events have accumulated since
// the last poll; a real deployment would stream these rather than poll.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.events.Drain())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) Start() error {
	log.Printf("mdserver: listening on %s", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("mdserver: shutting down")
	return s.httpServer.Shutdown(ctx)
}

func instrumentIDFromQuery(r *http.Request) (uint32, bool) {
	raw := r.URL.Query().Get("instrument_id")
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(v), true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (optional)")
	port := flag.Int("port", 0, "override server.port from the config")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("mdserver: %v", err)
		}
		cfg = loaded
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	server := newServer(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("mdserver: received shutdown signal")
		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("mdserver: shutdown error: %v", err)
		}
	}()

	if err := server.Start(); err != http.ErrServerClosed {
		log.Fatalf("mdserver: server error: %v", err)
	}
	log.Println("mdserver: stopped")
}
