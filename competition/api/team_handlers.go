// competition/api/team_handlers.go
package api

import (
	"net/http"

	"github.com/Tokioace/N64-Nexus-sub006/competition/service"
	"github.com/Tokioace/N64-Nexus-sub006/shared/api"
	"github.com/gorilla/mux"
)

// CreateTeamHandler creates a team with the caller as captain.
// POST /teams
func (h *CompetitionAPIHandlers) CreateTeamHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateTeamRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	team, err := h.Teams.CreateTeam(ctx, service.CreateTeamInput{
		Name:        req.Name,
		Logo:        req.Logo,
		CaptainID:   req.CaptainID,
		CaptainName: req.CaptainName,
		MaxMembers:  req.MaxMembers,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, team)
}

// ListTeamsHandler returns every team.
// GET /teams
func (h *CompetitionAPIHandlers) ListTeamsHandler(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, h.Teams.ListTeams(r.Context()))
}

// GetTeamHandler returns a single team.
// GET /teams/{teamID}
func (h *CompetitionAPIHandlers) GetTeamHandler(w http.ResponseWriter, r *http.Request) {
	team, err := h.Teams.GetTeam(r.Context(), mux.Vars(r)["teamID"])
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, team)
}

// JoinTeamHandler adds a member.
// POST /teams/{teamID}/members
func (h *CompetitionAPIHandlers) JoinTeamHandler(w http.ResponseWriter, r *http.Request) {
	teamID := mux.Vars(r)["teamID"]
	var req JoinTeamRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	team, err := h.Teams.JoinTeam(ctx, teamID, req.UserID, req.UserName)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, team)
}

// LeaveTeamHandler removes a member, disbanding the team when nobody is left.
// DELETE /teams/{teamID}/members/{userID}
func (h *CompetitionAPIHandlers) LeaveTeamHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	ctx, cancel := h.requestContext(r)
	defer cancel()

	res, err := h.Teams.LeaveTeam(ctx, vars["teamID"], vars["userID"])
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, res)
}

// SendTeamMessageHandler posts a chat line to the team topic.
// POST /teams/{teamID}/messages
func (h *CompetitionAPIHandlers) SendTeamMessageHandler(w http.ResponseWriter, r *http.Request) {
	teamID := mux.Vars(r)["teamID"]
	var req TeamMessageRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	msg, err := h.Teams.SendTeamMessage(ctx, teamID, req.UserID, req.Message)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, msg)
}

// UpdateTeamStatusHandler broadcasts the team's run status.
// POST /teams/{teamID}/status
func (h *CompetitionAPIHandlers) UpdateTeamStatusHandler(w http.ResponseWriter, r *http.Request) {
	teamID := mux.Vars(r)["teamID"]
	var req TeamStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	if err := h.Teams.UpdateTeamStatus(ctx, teamID, req.UserID, req.Status, req.Message); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Team status updated"})
}

// SendMotivationHandler broadcasts a motivational message to the team.
// POST /teams/{teamID}/motivation
func (h *CompetitionAPIHandlers) SendMotivationHandler(w http.ResponseWriter, r *http.Request) {
	teamID := mux.Vars(r)["teamID"]
	var req MotivationRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	if err := h.Teams.SendMotivation(ctx, teamID, req.Type, req.Message); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Motivation sent"})
}

// TeamOfHandler returns the team a user currently belongs to.
// GET /users/{userID}/team
func (h *CompetitionAPIHandlers) TeamOfHandler(w http.ResponseWriter, r *http.Request) {
	team, err := h.Teams.TeamOf(r.Context(), mux.Vars(r)["userID"])
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, team)
}
