// competition/api/dto.go
package api

import "time"

// --- Request DTOs ---

type CreateTeamRequest struct {
	Name        string `json:"name"`
	Logo        string `json:"logo"`
	CaptainID   string `json:"captainId"`
	CaptainName string `json:"captainName"`
	MaxMembers  int    `json:"maxMembers"`
}

type JoinTeamRequest struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

type TeamMessageRequest struct {
	UserID  string `json:"userId"`
	Message string `json:"message"`
}

type TeamStatusRequest struct {
	UserID  string `json:"userId"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

type MotivationRequest struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type CreateEventRequest struct {
	Name        string    `json:"name"`
	Game        string    `json:"game"`
	Category    string    `json:"category"`
	Region      string    `json:"region"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
	MaxTeams    int       `json:"maxTeams"`
	MinTeamSize int       `json:"minTeamSize"`
	MaxTeamSize int       `json:"maxTeamSize"`
	Rules       []string  `json:"rules"`
	Rewards     []string  `json:"rewards"`
}

type RegisterTeamRequest struct {
	TeamID string `json:"teamId"`
}

type SubmitTimeRequest struct {
	TeamID string  `json:"teamId"`
	UserID string  `json:"userId"`
	Time   float64 `json:"time"`
	Proof  string  `json:"proof"`
}

type ReportEventResultRequest struct {
	UserName     string  `json:"userName"`
	EventID      string  `json:"eventId"`
	TeamID       string  `json:"teamId"`
	TeamRank     int     `json:"teamRank"`
	TeamTime     float64 `json:"teamTime"`
	PersonalTime float64 `json:"personalTime"`
}

// --- Response DTOs ---

type MessageResponse struct {
	Message string `json:"message"`
}
