package main

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/ureshvahalia/bridge-deals-ingest/store"
)

// Router exposes stored reconciliation results: batches, canonical board
// records with their trust tags, head-to-head comparisons, and the degraded
// audit view.
func Router(db *store.DB, log *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/api/health", func(w http.ResponseWriter, req *http.Request) {
		if err := db.Ping(req.Context()); err != nil {
			writeErr(w, http.StatusServiceUnavailable, err)
			return
		}
		writeJSON(w, map[string]any{"ok": true})
	})

	r.Get("/api/batches", func(w http.ResponseWriter, req *http.Request) {
		limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
		batches, err := db.ListBatches(req.Context(), limit)
		if err != nil {
			logErr(log, "list batches", err)
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, batches)
	})

	r.Get("/api/batches/{id}/boards", func(w http.ResponseWriter, req *http.Request) {
		boards, err := db.ListBoards(req.Context(), chi.URLParam(req, "id"))
		if err != nil {
			logErr(log, "list boards", err)
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, boards)
	})

	r.Get("/api/batches/{id}/comparisons", func(w http.ResponseWriter, req *http.Request) {
		comparisons, err := db.ListComparisons(req.Context(), chi.URLParam(req, "id"))
		if err != nil {
			logErr(log, "list comparisons", err)
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, comparisons)
	})

	r.Get("/api/batches/{id}/degraded", func(w http.ResponseWriter, req *http.Request) {
		degraded, err := db.DegradedBoards(req.Context(), chi.URLParam(req, "id"))
		if err != nil {
			logErr(log, "list degraded boards", err)
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, degraded)
	})

	r.Get("/api/boards/{id}", func(w http.ResponseWriter, req *http.Request) {
		board, err := db.GetBoard(req.Context(), chi.URLParam(req, "id"))
		if err != nil {
			logErr(log, "get board", err)
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		if board == nil {
			writeErr(w, http.StatusNotFound, nil)
			return
		}
		writeJSON(w, board)
	})

	return r
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := http.StatusText(code)
	if err != nil {
		msg = err.Error()
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func logErr(log *zap.Logger, what string, err error) {
	if log != nil {
		log.Error(what, zap.Error(err))
	}
}
