// shared/service/competitionclient.go
package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/Tokioace/N64-Nexus-sub006/shared/api"
	"github.com/Tokioace/N64-Nexus-sub006/shared/models"
)

// CompetitionClient is a client for the competition coordinator.
// It uses an internal apiClient to make HTTP requests to the coordinator.
type CompetitionClient struct {
	apiClient *api.Client
}

// NewCompetitionClient creates a client for the coordinator at baseURL. A nil
// httpClient uses api.NewDefaultHTTPClient.
func NewCompetitionClient(baseURL string, httpClient *http.Client) *CompetitionClient {
	return &CompetitionClient{
		apiClient: api.NewClient(baseURL, httpClient),
	}
}

// --- Request/Response DTOs ---
// These mirror the DTOs of competition/api.

type CreateTeamRequest struct {
	Name        string `json:"name"`
	Logo        string `json:"logo,omitempty"`
	CaptainID   string `json:"captainId"`
	CaptainName string `json:"captainName"`
	MaxMembers  int    `json:"maxMembers,omitempty"`
}

type joinTeamRequest struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

type CreateEventRequest struct {
	Name        string    `json:"name"`
	Game        string    `json:"game"`
	Category    string    `json:"category,omitempty"`
	Region      string    `json:"region,omitempty"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
	MaxTeams    int       `json:"maxTeams,omitempty"`
	MinTeamSize int       `json:"minTeamSize,omitempty"`
	MaxTeamSize int       `json:"maxTeamSize,omitempty"`
	Rules       []string  `json:"rules,omitempty"`
	Rewards     []string  `json:"rewards,omitempty"`
}

type registerTeamRequest struct {
	TeamID string `json:"teamId"`
}

type SubmitTimeRequest struct {
	TeamID string  `json:"teamId"`
	UserID string  `json:"userId"`
	Time   float64 `json:"time"`
	Proof  string  `json:"proof,omitempty"`
}

type ReportEventResultRequest struct {
	UserName     string  `json:"userName"`
	EventID      string  `json:"eventId"`
	TeamID       string  `json:"teamId"`
	TeamRank     int     `json:"teamRank"`
	TeamTime     float64 `json:"teamTime"`
	PersonalTime float64 `json:"personalTime"`
}

// LeaveTeamResponse is returned by LeaveTeam. Team is nil when the team was disbanded.
type LeaveTeamResponse struct {
	Team      *models.Team `json:"team,omitempty"`
	Disbanded bool         `json:"disbanded"`
}

type SubmitTimeResponse struct {
	Submission models.Submission `json:"submission"`
	TeamTotal  float64           `json:"teamTotal"`
}

type ReportEventResultResponse struct {
	Stats           models.TeamStats     `json:"stats"`
	NewAchievements []models.Achievement `json:"newAchievements"`
}

// --- Teams ---

func (c *CompetitionClient) CreateTeam(ctx context.Context, req CreateTeamRequest) (*models.Team, error) {
	team := &models.Team{}
	if err := c.apiClient.Post(ctx, "/teams", req, team); err != nil {
		return nil, fmt.Errorf("failed to create team %q: %w", req.Name, err)
	}
	return team, nil
}

func (c *CompetitionClient) GetTeam(ctx context.Context, teamID string) (*models.Team, error) {
	team := &models.Team{}
	if err := c.apiClient.Get(ctx, "/teams/"+url.PathEscape(teamID), team); err != nil {
		return nil, fmt.Errorf("failed to get team %s: %w", teamID, err)
	}
	return team, nil
}

func (c *CompetitionClient) ListTeams(ctx context.Context) ([]models.Team, error) {
	var teams []models.Team
	if err := c.apiClient.Get(ctx, "/teams", &teams); err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	return teams, nil
}

func (c *CompetitionClient) JoinTeam(ctx context.Context, teamID, userID, userName string) (*models.Team, error) {
	team := &models.Team{}
	path := fmt.Sprintf("/teams/%s/members", url.PathEscape(teamID))
	if err := c.apiClient.Post(ctx, path, joinTeamRequest{UserID: userID, UserName: userName}, team); err != nil {
		return nil, fmt.Errorf("failed to join team %s as %s: %w", teamID, userID, err)
	}
	return team, nil
}

func (c *CompetitionClient) LeaveTeam(ctx context.Context, teamID, userID string) (*LeaveTeamResponse, error) {
	res := &LeaveTeamResponse{}
	path := fmt.Sprintf("/teams/%s/members/%s", url.PathEscape(teamID), url.PathEscape(userID))
	if err := c.apiClient.Delete(ctx, path, res); err != nil {
		return nil, fmt.Errorf("failed to leave team %s as %s: %w", teamID, userID, err)
	}
	return res, nil
}

// TeamOf returns the user's current team; api.ErrNotFound when they have none.
func (c *CompetitionClient) TeamOf(ctx context.Context, userID string) (*models.Team, error) {
	team := &models.Team{}
	if err := c.apiClient.Get(ctx, fmt.Sprintf("/users/%s/team", url.PathEscape(userID)), team); err != nil {
		return nil, fmt.Errorf("failed to get team of %s: %w", userID, err)
	}
	return team, nil
}

// --- Events ---

func (c *CompetitionClient) CreateEvent(ctx context.Context, req CreateEventRequest) (*models.Event, error) {
	event := &models.Event{}
	if err := c.apiClient.Post(ctx, "/events", req, event); err != nil {
		return nil, fmt.Errorf("failed to create event %q: %w", req.Name, err)
	}
	return event, nil
}

func (c *CompetitionClient) GetEvent(ctx context.Context, eventID string) (*models.Event, error) {
	event := &models.Event{}
	if err := c.apiClient.Get(ctx, "/events/"+url.PathEscape(eventID), event); err != nil {
		return nil, fmt.Errorf("failed to get event %s: %w", eventID, err)
	}
	return event, nil
}

// ListEvents lists events, filtered by status unless it is empty.
func (c *CompetitionClient) ListEvents(ctx context.Context, status string) ([]models.Event, error) {
	path := "/events"
	if status != "" {
		path += "?status=" + url.QueryEscape(status)
	}
	var events []models.Event
	if err := c.apiClient.Get(ctx, path, &events); err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

func (c *CompetitionClient) RegisterTeam(ctx context.Context, eventID, teamID string) (*models.Event, error) {
	event := &models.Event{}
	path := fmt.Sprintf("/events/%s/teams", url.PathEscape(eventID))
	if err := c.apiClient.Post(ctx, path, registerTeamRequest{TeamID: teamID}, event); err != nil {
		return nil, fmt.Errorf("failed to register team %s for event %s: %w", teamID, eventID, err)
	}
	return event, nil
}

func (c *CompetitionClient) StartEvent(ctx context.Context, eventID string) (*models.Event, error) {
	return c.transition(ctx, eventID, "start")
}

func (c *CompetitionClient) EndEvent(ctx context.Context, eventID string) (*models.Event, error) {
	return c.transition(ctx, eventID, "end")
}

func (c *CompetitionClient) transition(ctx context.Context, eventID, action string) (*models.Event, error) {
	event := &models.Event{}
	path := fmt.Sprintf("/events/%s/%s", url.PathEscape(eventID), action)
	if err := c.apiClient.Post(ctx, path, nil, event); err != nil {
		return nil, fmt.Errorf("failed to %s event %s: %w", action, eventID, err)
	}
	return event, nil
}

func (c *CompetitionClient) SubmitTime(ctx context.Context, eventID string, req SubmitTimeRequest) (*SubmitTimeResponse, error) {
	res := &SubmitTimeResponse{}
	path := fmt.Sprintf("/events/%s/submissions", url.PathEscape(eventID))
	if err := c.apiClient.Post(ctx, path, req, res); err != nil {
		return nil, fmt.Errorf("failed to submit time for %s in event %s: %w", req.UserID, eventID, err)
	}
	return res, nil
}

func (c *CompetitionClient) GetRankings(ctx context.Context, eventID string) ([]models.RankingEntry, error) {
	var rankings []models.RankingEntry
	if err := c.apiClient.Get(ctx, fmt.Sprintf("/events/%s/rankings", url.PathEscape(eventID)), &rankings); err != nil {
		return nil, fmt.Errorf("failed to get rankings of event %s: %w", eventID, err)
	}
	return rankings, nil
}

func (c *CompetitionClient) GetEventStats(ctx context.Context, eventID string) (*models.EventStats, error) {
	stats := &models.EventStats{}
	if err := c.apiClient.Get(ctx, fmt.Sprintf("/events/%s/stats", url.PathEscape(eventID)), stats); err != nil {
		return nil, fmt.Errorf("failed to get stats of event %s: %w", eventID, err)
	}
	return stats, nil
}

// --- Profiles ---

func (c *CompetitionClient) ReportEventResult(ctx context.Context, userID string, req ReportEventResultRequest) (*ReportEventResultResponse, error) {
	res := &ReportEventResultResponse{}
	path := fmt.Sprintf("/profiles/%s/results", url.PathEscape(userID))
	if err := c.apiClient.Post(ctx, path, req, res); err != nil {
		return nil, fmt.Errorf("failed to report result of event %s for %s: %w", req.EventID, userID, err)
	}
	return res, nil
}

func (c *CompetitionClient) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	profile := &models.UserProfile{}
	if err := c.apiClient.Get(ctx, "/profiles/"+url.PathEscape(userID), profile); err != nil {
		return nil, fmt.Errorf("failed to get profile %s: %w", userID, err)
	}
	return profile, nil
}
