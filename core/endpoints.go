package core

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	m "pairscan/models"
)

const (
	DefaultAddr = ":8080"
)

type UniverseSyncRequest struct {
	Symbols []string `json:"symbols"`
}

type UniverseSyncResponse struct {
	LastRefreshed map[string]time.Time `json:"lastRefreshed"`
}

func GetHttpServer(sc ServiceContext) *http.Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)

	router.Get("/api/ping", ping)
	router.Get("/api/selection/defaults", selectionDefaults)
	router.Post("/api/selection/run", func(w http.ResponseWriter, req *http.Request) { runSelection(w, req, sc) })
	router.Post("/api/universe/sync", func(w http.ResponseWriter, req *http.Request) { syncUniverse(w, req, sc) })

	server := &http.Server{
		Addr:           DefaultAddr,
		Handler:        router,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   5 * time.Minute, // selection runs can take a while on wide universes
		MaxHeaderBytes: 1 << 20,
	}

	return server
}

func ping(w http.ResponseWriter, _ *http.Request) {
	writeJson(w, http.StatusOK, map[string]string{"message": "pong"})
}

func selectionDefaults(w http.ResponseWriter, _ *http.Request) {
	defaults := m.DefaultSelectionParams()
	writeJson(w, http.StatusOK, m.GetServiceResponseOk(&defaults))
}

func runSelection(w http.ResponseWriter, req *http.Request, sc ServiceContext) {
	var request m.SelectionRequest
	if err := json.NewDecoder(req.Body).Decode(&request); err != nil {
		writeJson(w, http.StatusBadRequest, m.GetServiceResponseError(err.Error()))
		return
	}
	request.Params = fillDefaultParams(request.Params)

	response, err := sc.RunSelection(request)
	if err != nil {
		writeJson(w, http.StatusInternalServerError, m.GetServiceResponseError(err.Error()))
		return
	}

	writeJson(w, http.StatusOK, m.GetServiceResponseOk(response))
}

func syncUniverse(w http.ResponseWriter, req *http.Request, sc ServiceContext) {
	var request UniverseSyncRequest
	if err := json.NewDecoder(req.Body).Decode(&request); err != nil {
		writeJson(w, http.StatusBadRequest, m.GetServiceResponseError(err.Error()))
		return
	}
	if len(request.Symbols) == 0 {
		writeJson(w, http.StatusBadRequest, m.GetServiceResponseError("at least one symbol is required"))
		return
	}

	response := UniverseSyncResponse{LastRefreshed: make(map[string]time.Time, len(request.Symbols))}
	for _, symbol := range request.Symbols {
		lastRefreshed, err := sc.SyncSymbolHistory(symbol)
		if err != nil {
			writeJson(w, http.StatusInternalServerError, m.GetServiceResponseError(err.Error()))
			return
		}
		response.LastRefreshed[symbol] = lastRefreshed
	}

	writeJson(w, http.StatusOK, m.GetServiceResponseOk(&response))
}

// fillDefaultParams substitutes defaults for any tunable the caller left at
// zero. Epsilon stays as-is since zero already means auto.
func fillDefaultParams(params m.SelectionParams) m.SelectionParams {
	defaults := m.DefaultSelectionParams()
	if params.NumFeatures == 0 {
		params.NumFeatures = defaults.NumFeatures
	}
	if params.MinSamples == 0 {
		params.MinSamples = defaults.MinSamples
	}
	if params.PValueThreshold == 0 {
		params.PValueThreshold = defaults.PValueThreshold
	}
	if params.HurstThreshold == 0 {
		params.HurstThreshold = defaults.HurstThreshold
	}
	if params.MaxLag == 0 {
		params.MaxLag = defaults.MaxLag
	}
	if params.MinCrossoversPerYear == 0 {
		params.MinCrossoversPerYear = defaults.MinCrossoversPerYear
	}
	if params.TestWindow == 0 {
		params.TestWindow = defaults.TestWindow
	}
	return params
}

func writeJson(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("error encoding response body")
	}
}
