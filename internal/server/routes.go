/*
Copyright (C) 2026 Squonk Labs

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/squonklabs/squonk_radio/internal/library"
	"github.com/squonklabs/squonk_radio/internal/playback"
	"github.com/squonklabs/squonk_radio/internal/session"
	"github.com/squonklabs/squonk_radio/internal/telemetry"
	"github.com/squonklabs/squonk_radio/internal/version"
)

// maxUploadBytes bounds track upload size (Telegram caps bot files at 50MB).
const maxUploadBytes = 50 << 20

func (s *Server) configureRoutes() {
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version.Version,
		})
	})

	s.router.Handle("/metrics", telemetry.Handler())

	s.router.Route("/v1", func(r chi.Router) {
		r.Get("/tenants", s.handleListTenants)
		r.Route("/tenants/{tenantID}", func(r chi.Router) {
			r.Post("/activate", s.handleActivate)
			r.Post("/play", s.handlePlay)
			r.Get("/playlist", s.handlePlaylist)
			r.Get("/history", s.handleHistory)
		})

		r.Route("/operators/{operatorID}", func(r chi.Router) {
			r.Post("/bind", s.handleBind)
			r.Post("/tracks", s.handleUpload)
		})

		r.Get("/rotation/journal", s.handleJournal)
		r.Post("/rotation/run", s.handleRotateNow)
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

func (s *Server) handleListTenants(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"tenants": s.registry.Snapshot(),
	})
}

func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request) {
	tenantID, err := pathID(r, "tenantID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid tenant id")
		return
	}

	added, err := s.commands.OnActivate(r.Context(), tenantID)
	if err != nil {
		s.logger.Error().Err(err).Int64("tenant_id", tenantID).Msg("activation failed")
		writeError(w, http.StatusInternalServerError, "activation failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"tenant_id": tenantID,
		"added":     added,
	})
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	tenantID, err := pathID(r, "tenantID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid tenant id")
		return
	}

	trackID := r.URL.Query().Get("track")
	res, err := s.commands.OnPlayRequest(r.Context(), tenantID, trackID)
	if err != nil {
		switch {
		case errors.Is(err, library.ErrLibraryNotFound):
			writeError(w, http.StatusNotFound, "no songs found for this tenant")
		case errors.Is(err, playback.ErrNoTracks):
			writeError(w, http.StatusNotFound, "no tracks available")
		case errors.Is(err, library.ErrTrackNotFound):
			writeError(w, http.StatusNotFound, "track not found")
		default:
			s.logger.Error().Err(err).Int64("tenant_id", tenantID).Msg("play request failed")
			writeError(w, http.StatusInternalServerError, "delivery failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"track_id":   res.TrackID,
		"message_id": res.MessageID,
		"title":      res.Title,
		"artist":     res.Artist,
		"duration_s": int(res.Duration.Seconds()),
	})
}

func (s *Server) handlePlaylist(w http.ResponseWriter, r *http.Request) {
	tenantID, err := pathID(r, "tenantID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid tenant id")
		return
	}

	pl, err := s.selector.RenderPlaylist(r.Context(), tenantID)
	if err != nil {
		s.logger.Error().Err(err).Int64("tenant_id", tenantID).Msg("playlist render failed")
		writeError(w, http.StatusInternalServerError, "playlist render failed")
		return
	}

	tracks := make([]map[string]string, 0, len(pl.Entries))
	for _, entry := range pl.Entries {
		tracks = append(tracks, map[string]string{
			"track_id": entry.TrackID,
			"title":    entry.Title,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"text":   pl.Text,
		"tracks": tracks,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	tenantID, err := pathID(r, "tenantID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid tenant id")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	events, err := s.history.RecentForTenant(r.Context(), tenantID, limit)
	if err != nil {
		s.logger.Error().Err(err).Int64("tenant_id", tenantID).Msg("history query failed")
		writeError(w, http.StatusInternalServerError, "history query failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

func (s *Server) handleBind(w http.ResponseWriter, r *http.Request) {
	operatorID, err := pathID(r, "operatorID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid operator id")
		return
	}

	var body struct {
		TenantID string `json:"tenant_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tenantID, err := s.commands.OnBind(r.Context(), operatorID, body.TenantID)
	if err != nil {
		if errors.Is(err, session.ErrInvalidTenantID) {
			writeError(w, http.StatusBadRequest, "invalid tenant id format")
			return
		}
		s.logger.Error().Err(err).Int64("operator_id", operatorID).Msg("bind failed")
		writeError(w, http.StatusInternalServerError, "bind failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"operator_id": operatorID,
		"tenant_id":   tenantID,
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	operatorID, err := pathID(r, "operatorID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid operator id")
		return
	}

	fileID := r.URL.Query().Get("file_id")
	if fileID == "" {
		writeError(w, http.StatusBadRequest, "file_id is required")
		return
	}
	title := r.URL.Query().Get("title")

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read payload")
		return
	}
	if len(payload) == 0 {
		writeError(w, http.StatusBadRequest, "empty payload")
		return
	}

	trackID, meta, err := s.commands.OnUpload(r.Context(), operatorID, fileID, payload, title)
	if err != nil {
		if errors.Is(err, session.ErrNotBound) {
			writeError(w, http.StatusConflict, "operator is not bound to a tenant")
			return
		}
		s.logger.Error().Err(err).Int64("operator_id", operatorID).Msg("upload failed")
		writeError(w, http.StatusInternalServerError, "upload failed")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"track_id": trackID,
		"title":    meta.Title,
		"artist":   meta.Artist,
	})
}

func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	writeJSON(w, http.StatusOK, map[string]any{
		"entries": s.journal.Recent(limit),
	})
}

func (s *Server) handleRotateNow(w http.ResponseWriter, r *http.Request) {
	s.rotation.Tick(r.Context())
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "cycle started"})
}
