// competition/api/event_handlers.go
package api

import (
	"net/http"

	"github.com/Tokioace/N64-Nexus-sub006/competition/service"
	"github.com/Tokioace/N64-Nexus-sub006/shared/api"
	"github.com/gorilla/mux"
)

// CreateEventHandler creates an upcoming event.
// POST /events
func (h *CompetitionAPIHandlers) CreateEventHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateEventRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	event, err := h.Events.CreateEvent(ctx, service.CreateEventInput{
		Name:        req.Name,
		Game:        req.Game,
		Category:    req.Category,
		Region:      req.Region,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		MaxTeams:    req.MaxTeams,
		MinTeamSize: req.MinTeamSize,
		MaxTeamSize: req.MaxTeamSize,
		Rules:       req.Rules,
		Rewards:     req.Rewards,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, event)
}

// ListEventsHandler returns events, optionally filtered with ?status=.
// GET /events
func (h *CompetitionAPIHandlers) ListEventsHandler(w http.ResponseWriter, r *http.Request) {
	events, err := h.Events.ListEvents(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, events)
}

// GetEventHandler returns a single event.
// GET /events/{eventID}
func (h *CompetitionAPIHandlers) GetEventHandler(w http.ResponseWriter, r *http.Request) {
	event, err := h.Events.GetEvent(r.Context(), mux.Vars(r)["eventID"])
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, event)
}

// RegisterTeamHandler enters a team for the event.
// POST /events/{eventID}/teams
func (h *CompetitionAPIHandlers) RegisterTeamHandler(w http.ResponseWriter, r *http.Request) {
	eventID := mux.Vars(r)["eventID"]
	var req RegisterTeamRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	event, err := h.Events.RegisterTeam(ctx, eventID, req.TeamID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, event)
}

// StartEventHandler moves the event to active.
// POST /events/{eventID}/start
func (h *CompetitionAPIHandlers) StartEventHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	event, err := h.Events.StartEvent(ctx, mux.Vars(r)["eventID"])
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, event)
}

// EndEventHandler completes the event.
// POST /events/{eventID}/end
func (h *CompetitionAPIHandlers) EndEventHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	event, err := h.Events.EndEvent(ctx, mux.Vars(r)["eventID"])
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, event)
}

// SubmitTimeHandler records a member's time.
// POST /events/{eventID}/submissions
func (h *CompetitionAPIHandlers) SubmitTimeHandler(w http.ResponseWriter, r *http.Request) {
	eventID := mux.Vars(r)["eventID"]
	var req SubmitTimeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	res, err := h.Submissions.SubmitTime(ctx, service.SubmitTimeInput{
		EventID: eventID,
		TeamID:  req.TeamID,
		UserID:  req.UserID,
		Time:    req.Time,
		Proof:   req.Proof,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, res)
}

// GetRankingsHandler returns the leaderboard.
// GET /events/{eventID}/rankings
func (h *CompetitionAPIHandlers) GetRankingsHandler(w http.ResponseWriter, r *http.Request) {
	rankings, err := h.Events.GetRankings(r.Context(), mux.Vars(r)["eventID"])
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, rankings)
}

// GetEventStatsHandler returns participation and submission metrics.
// GET /events/{eventID}/stats
func (h *CompetitionAPIHandlers) GetEventStatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Events.GetStats(r.Context(), mux.Vars(r)["eventID"])
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, stats)
}
