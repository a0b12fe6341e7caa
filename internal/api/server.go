// Package api exposes the operational HTTP surface: health, synchronous message
// submission and job status.
package api

import (
	"net/http"
	"strings"

	"github.com/dvloznov/household-ledger/internal/api/handlers"
	"github.com/dvloznov/household-ledger/internal/api/middleware"
	"github.com/dvloznov/household-ledger/internal/jobs"
	"github.com/dvloznov/household-ledger/internal/segment"
	"github.com/rs/zerolog"
)

// Deps are the collaborators of the HTTP surface.
type Deps struct {
	Processor handlers.Processor
	Segmenter *segment.Segmenter
	Jobs      jobs.JobStore
	APIToken  string
	Logger    zerolog.Logger
}

// NewRouter builds the HTTP handler with middleware applied.
// /health is public; /api/ routes require the bearer token when one is configured.
func NewRouter(deps Deps) http.Handler {
	healthHandler := handlers.NewHealthHandler(deps.Processor.Ready)
	messagesHandler := handlers.NewMessagesHandler(deps.Processor, deps.Segmenter)
	jobsHandler := handlers.NewJobsHandler(deps.Jobs)

	apiMux := http.NewServeMux()

	apiMux.HandleFunc("/api/messages", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			messagesHandler.CreateMessage(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	apiMux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobsHandler.ListJobs(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	apiMux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
			if jobID == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
				return
			}
			jobsHandler.GetJob(w, r, jobID)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux := http.NewServeMux()
	mux.Handle("/api/", middleware.BearerAuth(deps.APIToken)(apiMux))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			healthHandler.Health(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	return middleware.Recovery(deps.Logger)(
		middleware.RequestID(
			middleware.Logger(deps.Logger)(mux),
		),
	)
}
