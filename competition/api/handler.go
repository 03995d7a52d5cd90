// competition/api/handler.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/Tokioace/N64-Nexus-sub006/competition/service"
	"github.com/Tokioace/N64-Nexus-sub006/shared/api"
	"github.com/gorilla/mux"
)

// CompetitionAPIHandlers holds references to the services that handle business logic.
type CompetitionAPIHandlers struct {
	Teams       *service.TeamService
	Events      *service.EventService
	Submissions *service.SubmissionService
	Stats       *service.StatsService

	logger  *slog.Logger
	timeout time.Duration
}

// NewCompetitionAPIHandlers is the constructor for the API handlers. timeout bounds every request.
func NewCompetitionAPIHandlers(teams *service.TeamService, events *service.EventService, submissions *service.SubmissionService,
	stats *service.StatsService, logger *slog.Logger, timeout time.Duration) *CompetitionAPIHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &CompetitionAPIHandlers{
		Teams:       teams,
		Events:      events,
		Submissions: submissions,
		Stats:       stats,
		logger:      logger,
		timeout:     timeout,
	}
}

// RegisterRoutes registers all competition-service API routes with the provided router.
func (h *CompetitionAPIHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/teams", h.CreateTeamHandler).Methods(http.MethodPost)
	router.HandleFunc("/teams", h.ListTeamsHandler).Methods(http.MethodGet)
	router.HandleFunc("/teams/{teamID}", h.GetTeamHandler).Methods(http.MethodGet)
	router.HandleFunc("/teams/{teamID}/members", h.JoinTeamHandler).Methods(http.MethodPost)
	router.HandleFunc("/teams/{teamID}/members/{userID}", h.LeaveTeamHandler).Methods(http.MethodDelete)
	router.HandleFunc("/teams/{teamID}/messages", h.SendTeamMessageHandler).Methods(http.MethodPost)
	router.HandleFunc("/teams/{teamID}/status", h.UpdateTeamStatusHandler).Methods(http.MethodPost)
	router.HandleFunc("/teams/{teamID}/motivation", h.SendMotivationHandler).Methods(http.MethodPost)
	router.HandleFunc("/users/{userID}/team", h.TeamOfHandler).Methods(http.MethodGet)

	router.HandleFunc("/events", h.CreateEventHandler).Methods(http.MethodPost)
	router.HandleFunc("/events", h.ListEventsHandler).Methods(http.MethodGet)
	router.HandleFunc("/events/{eventID}", h.GetEventHandler).Methods(http.MethodGet)
	router.HandleFunc("/events/{eventID}/teams", h.RegisterTeamHandler).Methods(http.MethodPost)
	router.HandleFunc("/events/{eventID}/start", h.StartEventHandler).Methods(http.MethodPost)
	router.HandleFunc("/events/{eventID}/end", h.EndEventHandler).Methods(http.MethodPost)
	router.HandleFunc("/events/{eventID}/submissions", h.SubmitTimeHandler).Methods(http.MethodPost)
	router.HandleFunc("/events/{eventID}/rankings", h.GetRankingsHandler).Methods(http.MethodGet)
	router.HandleFunc("/events/{eventID}/stats", h.GetEventStatsHandler).Methods(http.MethodGet)

	router.HandleFunc("/profiles/{userID}", h.GetProfileHandler).Methods(http.MethodGet)
	router.HandleFunc("/profiles/{userID}/results", h.ReportEventResultHandler).Methods(http.MethodPost)

	router.HandleFunc("/healthz", h.HealthHandler).Methods(http.MethodGet)
}

func (h *CompetitionAPIHandlers) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.timeout)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		api.WriteBadRequest(w, "Invalid request body")
		return false
	}
	return true
}

// writeServiceError maps service-layer errors to HTTP status codes.
func (h *CompetitionAPIHandlers) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	code := service.Code(err)
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		api.WriteError(w, http.StatusBadRequest, code, err.Error())
	case errors.Is(err, service.ErrNotFound):
		api.WriteError(w, http.StatusNotFound, code, err.Error())
	case errors.Is(err, service.ErrAlreadyInTeam),
		errors.Is(err, service.ErrTeamFull),
		errors.Is(err, service.ErrEventFull),
		errors.Is(err, service.ErrAlreadyRegistered),
		errors.Is(err, service.ErrDuplicateSubmission),
		errors.Is(err, service.ErrInvalidTransition):
		api.WriteError(w, http.StatusConflict, code, err.Error())
	case errors.Is(err, service.ErrNotMember),
		errors.Is(err, service.ErrRegistrationClosed):
		api.WriteError(w, http.StatusUnprocessableEntity, code, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		api.WriteError(w, http.StatusGatewayTimeout, service.CodeInternal, "Request timed out")
	default:
		h.logger.Error("Unhandled error", slog.String("method", r.Method), slog.String("path", r.URL.Path), slog.Any("error", err))
		api.WriteInternalServerError(w, "Internal server error")
	}
}

func (h *CompetitionAPIHandlers) HealthHandler(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
