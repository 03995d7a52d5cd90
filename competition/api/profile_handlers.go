// competition/api/profile_handlers.go
package api

import (
	"net/http"

	"github.com/Tokioace/N64-Nexus-sub006/competition/service"
	"github.com/Tokioace/N64-Nexus-sub006/shared/api"
	"github.com/gorilla/mux"
)

// ReportEventResultHandler folds an event outcome into a user's profile.
// POST /profiles/{userID}/results
func (h *CompetitionAPIHandlers) ReportEventResultHandler(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]
	var req ReportEventResultRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	res, err := h.Stats.ReportEventResult(ctx, service.ReportEventResultInput{
		UserID:       userID,
		UserName:     req.UserName,
		EventID:      req.EventID,
		TeamID:       req.TeamID,
		TeamRank:     req.TeamRank,
		TeamTime:     req.TeamTime,
		PersonalTime: req.PersonalTime,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, res)
}

// GetProfileHandler returns a user profile.
// GET /profiles/{userID}
func (h *CompetitionAPIHandlers) GetProfileHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	profile, err := h.Stats.GetProfile(ctx, mux.Vars(r)["userID"])
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, profile)
}
