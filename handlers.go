package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/glyphd/glyphd/internal/audit"
	"github.com/glyphd/glyphd/internal/avatar"
)

// handleGetAvatar serves the placeholder for a user at the requested
// size. The artifact is generated and cached on first request; later
// requests are served from the store.
func handleGetAvatar(avatars *avatar.Service, maxSize int, dark bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer drainRequestBody(r)

		user := r.PathValue("user")

		size, err := strconv.Atoi(r.PathValue("size"))
		if err != nil {
			requestError(w, http.StatusBadRequest)
			return
		}
		if size > maxSize {
			log.Info().Int("size", size).Int("max", maxSize).Msg("avatar size above configured maximum")
			requestError(w, http.StatusBadRequest)
			return
		}

		artifact, err := avatars.For(user).File(r.Context(), size, dark)
		if err != nil {
			if errors.Is(err, avatar.ErrNotFound) {
				requestError(w, http.StatusNotFound)
				return
			}
			log.Warn().Err(err).Str("user", user).Msg("avatar retrieval failed")
			requestError(w, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Length", strconv.Itoa(len(artifact.Data)))
		w.Header().Set("Cache-Control", "public, max-age=86400")
		if _, err := w.Write(artifact.Data); err != nil {
			log.Info().Msgf("failed to write response: %v", err)
		}
	})
}

// handleDeleteAvatar clears every cached artifact for the user. The
// identity provider calls this when avatar state is reset.
func handleDeleteAvatar(avatars *avatar.Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer drainRequestBody(r)

		user := r.PathValue("user")
		audit.Log(r.Context()).UserID = user

		if err := avatars.For(user).Remove(r.Context()); err != nil {
			audit.Log(r.Context()).Error = err.Error()

			if errors.Is(err, avatar.ErrNotPermitted) {
				requestError(w, http.StatusForbidden)
				return
			}
			log.Warn().Err(err).Str("user", user).Msg("avatar removal failed")
			requestError(w, http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	})
}

// userChangedRequest is the notification payload sent by the identity
// provider when a user feature changes.
type userChangedRequest struct {
	User     string `json:"user"`
	Feature  string `json:"feature"`
	OldValue string `json:"oldValue"`
	NewValue string `json:"newValue"`
}

// handleUserChanged invalidates a user's cached avatars after a
// rendering input (such as the display name) changed.
func handleUserChanged(avatars *avatar.Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer drainRequestBody(r)

		var req userChangedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.User == "" {
			requestError(w, http.StatusBadRequest)
			return
		}

		audit.Log(r.Context()).UserID = req.User

		err := avatars.For(req.User).UserChanged(r.Context(), req.Feature, req.OldValue, req.NewValue)
		if err != nil {
			audit.Log(r.Context()).Error = err.Error()

			if errors.Is(err, avatar.ErrNotPermitted) {
				requestError(w, http.StatusForbidden)
				return
			}
			log.Warn().Err(err).Str("user", req.User).Msg("avatar invalidation failed")
			requestError(w, http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	})
}

func handleHealthCheck() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer drainRequestBody(r)

		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

func maxRequestSize(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.MaxBytesHandler(next, limit)
	}
}

func requestError(w http.ResponseWriter, statusCode int) {
	http.Error(w, http.StatusText(statusCode), statusCode)
}

// drainRequestBody reads and discards the remaining request body so
// HTTP/1 connections can be reused.
func drainRequestBody(r *http.Request) {
	if r.Body != nil {
		// bounded: past this the client is assumed broken or malicious
		io.CopyN(io.Discard, r.Body, 5*1024*1024)
	}
}
