package web

import (
	"encoding/json"
	"net/http"
	"runtime"
	"strconv"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/gorilla/mux"

	"github.com/summer-earn/fleet/internal/logger"
	"github.com/summer-earn/fleet/internal/state"
	"github.com/summer-earn/fleet/internal/types"
)

var webLogger = logger.GetForComponent("web_server")

// FleetReader is the read-only view of the commander the dashboard serves.
type FleetReader interface {
	Summary() (types.FleetSummary, error)
}

// AuctionReader is the read-only view of the auction manager.
type AuctionReader interface {
	Snapshot(id uint64) (types.AuctionRecord, error)
	Snapshots() []types.AuctionRecord
	DefaultParameters() (types.AuctionParameters, int)
}

// TipReader is the read-only view of the tipper.
type TipReader interface {
	TipRate() types.Percentage
	TipJar() types.Address
	TotalTipped() sdkmath.Int
}

// WebServer handles HTTP requests for fleet data visualization
type WebServer struct {
	router   *mux.Router
	port     string
	fleet    FleetReader
	auctions AuctionReader
	tips     TipReader
}

// NewWebServer creates a new web server instance
func NewWebServer(port string, fleet FleetReader, auctions AuctionReader, tips TipReader) *WebServer {
	if port == "" {
		port = "8080"
	}

	server := &WebServer{
		router:   mux.NewRouter(),
		port:     port,
		fleet:    fleet,
		auctions: auctions,
		tips:     tips,
	}

	server.setupRoutes()
	return server
}

// setupRoutes configures all HTTP routes
func (ws *WebServer) setupRoutes() {
	// Health endpoint (direct route)
	ws.router.HandleFunc("/health", ws.handleHealth).Methods("GET")

	// API endpoints
	api := ws.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", ws.handleHealth).Methods("GET")
	api.HandleFunc("/fleet/summary", ws.handleGetFleetSummary).Methods("GET")
	api.HandleFunc("/arks", ws.handleGetArks).Methods("GET")
	api.HandleFunc("/auctions", ws.handleGetAuctions).Methods("GET")
	api.HandleFunc("/auctions/{id}", ws.handleGetAuction).Methods("GET")
	api.HandleFunc("/auction-parameters", ws.handleGetAuctionParameters).Methods("GET")
	api.HandleFunc("/tips", ws.handleGetTips).Methods("GET")
	api.HandleFunc("/cycles", ws.handleGetCycles).Methods("GET")

	// Add CORS middleware
	ws.router.Use(ws.corsMiddleware)
	ws.router.Use(ws.loggingMiddleware)
}

// Start starts the web server
func (ws *WebServer) Start() error {
	webLogger.Info().Str("port", ws.port).Msg("Starting web server")

	server := &http.Server{
		Addr:         ":" + ws.port,
		Handler:      ws.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return server.ListenAndServe()
}

// handleHealth returns server health status
func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	dbHealthy := true
	if err := state.TestDBConnection(); err != nil {
		dbHealthy = false
	}

	overallStatus := "OK"
	statusCode := http.StatusOK
	if !dbHealthy {
		overallStatus = "DEGRADED"
		statusCode = http.StatusServiceUnavailable
	}

	response := map[string]interface{}{
		"status":    overallStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"system": map[string]interface{}{
			"version":          runtime.Version(),
			"goroutines_count": runtime.NumGoroutine(),
			"alloc_bytes":      memStats.Alloc,
			"sys_bytes":        memStats.Sys,
			"gc_cycles":        memStats.NumGC,
		},
		"component": map[string]interface{}{
			"name":    "fleet-capital-allocation-engine",
			"version": "1.0.0",
		},
		"database_healthy": dbHealthy,
	}

	ws.writeJSONResponse(w, statusCode, response)
}

// handleGetFleetSummary returns the commander's current holdings
func (ws *WebServer) handleGetFleetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := ws.fleet.Summary()
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to get fleet summary")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve fleet summary")
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, summary)
}

// handleGetArks returns the per-ark status list
func (ws *WebServer) handleGetArks(w http.ResponseWriter, r *http.Request) {
	summary, err := ws.fleet.Summary()
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to get ark statuses")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve ark statuses")
		return
	}

	response := map[string]interface{}{
		"arks":  summary.Arks,
		"count": len(summary.Arks),
	}

	ws.writeJSONResponse(w, http.StatusOK, response)
}

// handleGetAuctions returns every auction the manager has issued
func (ws *WebServer) handleGetAuctions(w http.ResponseWriter, r *http.Request) {
	records := ws.auctions.Snapshots()

	response := map[string]interface{}{
		"auctions": records,
		"count":    len(records),
	}

	ws.writeJSONResponse(w, http.StatusOK, response)
}

// handleGetAuction returns a specific auction by ID
func (ws *WebServer) handleGetAuction(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	idStr := vars["id"]

	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid auction ID")
		return
	}

	record, err := ws.auctions.Snapshot(id)
	if err != nil {
		webLogger.Error().Err(err).Uint64("auctionId", id).Msg("Failed to get auction")
		ws.writeErrorResponse(w, http.StatusNotFound, "Auction not found")
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, record)
}

// handleGetAuctionParameters returns the current auction defaults
func (ws *WebServer) handleGetAuctionParameters(w http.ResponseWriter, r *http.Request) {
	params, version := ws.auctions.DefaultParameters()

	response := map[string]interface{}{
		"parameters": params,
		"version":    version,
		"timestamp":  time.Now().UTC(),
	}

	ws.writeJSONResponse(w, http.StatusOK, response)
}

// handleGetTips returns tip configuration and totals
func (ws *WebServer) handleGetTips(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"tip_rate":     ws.tips.TipRate().String(),
		"tip_jar":      ws.tips.TipJar(),
		"total_tipped": ws.tips.TotalTipped().String(),
	}

	ws.writeJSONResponse(w, http.StatusOK, response)
}

// handleGetCycles returns recent rebalance cycle snapshots
func (ws *WebServer) handleGetCycles(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 && parsedLimit <= 100 {
			limit = parsedLimit
		}
	}

	cycles, err := state.GetRecentSnapshots(limit)
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to get recent cycles")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve cycles")
		return
	}

	response := map[string]interface{}{
		"cycles": cycles,
		"count":  len(cycles),
		"limit":  limit,
	}
	if current, err := state.GetCurrentCycleNumber(); err == nil {
		response["current_cycle"] = current
	}

	ws.writeJSONResponse(w, http.StatusOK, response)
}

// writeJSONResponse writes a JSON response
func (ws *WebServer) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		webLogger.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeErrorResponse writes an error response
func (ws *WebServer) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	response := map[string]interface{}{
		"error":     true,
		"message":   message,
		"timestamp": time.Now().UTC(),
	}

	ws.writeJSONResponse(w, statusCode, response)
}

// corsMiddleware adds CORS headers
func (ws *WebServer) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (ws *WebServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Create a response writer wrapper to capture status code
		wrapper := &responseWriterWrapper{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		duration := time.Since(start)

		webLogger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_addr", r.RemoteAddr).
			Int("status", wrapper.statusCode).
			Dur("duration", duration).
			Msg("HTTP request")
	})
}

// responseWriterWrapper wraps http.ResponseWriter to capture status code
type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriterWrapper) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
