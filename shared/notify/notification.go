// shared/notify/notification.go
package notify

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Tokioace/N64-Nexus-sub006/shared/models"
	"github.com/google/uuid"
)

// Topic prefixes. A topic is either team-scoped, event-scoped or the single global topic.
const (
	teamTopicPrefix  = "team:"
	eventTopicPrefix = "event:"

	GlobalTopic = "global"
)

// Notification event names carried in Notification.Event.
const (
	EventMemberJoined        = "member-joined"
	EventMemberLeft          = "member-left"
	EventTeamMessage         = "team-message"
	EventTimeSubmitted       = "time-submitted"
	EventRankingsUpdated     = "rankings-updated"
	EventTeamStatusUpdate    = "team-status-update"
	EventMotivation          = "motivation"
	EventStarted             = "event-started"
	EventEnded               = "event-ended"
	EventAchievementUnlocked = "achievement-unlocked"
)

// TeamTopic returns the topic for membership, chat and submission notices of a team.
func TeamTopic(teamID string) string { return teamTopicPrefix + teamID }

// EventTopic returns the topic for lifecycle and ranking signals of an event.
func EventTopic(eventID string) string { return eventTopicPrefix + eventID }

// TopicKind returns "team", "event" or "global", or "" for an unknown topic.
func TopicKind(topic string) string {
	switch {
	case topic == GlobalTopic:
		return "global"
	case strings.HasPrefix(topic, teamTopicPrefix) && len(topic) > len(teamTopicPrefix):
		return "team"
	case strings.HasPrefix(topic, eventTopicPrefix) && len(topic) > len(eventTopicPrefix):
		return "event"
	default:
		return ""
	}
}

// ValidTopic reports whether a client may subscribe to topic.
func ValidTopic(topic string) bool { return TopicKind(topic) != "" }

// Notification is a single fire-and-forget message. There is no replay and no acknowledgment.
type Notification struct {
	ID        string          `json:"id"`
	Topic     string          `json:"topic"`
	Event     string          `json:"event"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// New builds a notification with a fresh id, marshalling payload as JSON.
func New(topic, event string, payload interface{}) (Notification, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Notification{}, fmt.Errorf("failed to marshal %s payload: %w", event, err)
	}
	return Notification{
		ID:        uuid.New().String(),
		Topic:     topic,
		Event:     event,
		Payload:   data,
		Timestamp: time.Now().UTC(),
	}, nil
}

// Decode unmarshals the payload into v.
func (n Notification) Decode(v interface{}) error {
	if err := json.Unmarshal(n.Payload, v); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", n.Event, err)
	}
	return nil
}

// --- Payloads ---

// MemberPayload is sent with member-joined and member-left.
type MemberPayload struct {
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Timestamp time.Time `json:"timestamp"`
	Disbanded bool      `json:"disbanded,omitempty"`
	CaptainID string    `json:"captainId,omitempty"`
}

// TeamMessagePayload is a chat line sent to a team.
type TeamMessagePayload struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// TimeSubmittedPayload announces a member's submission and the new team total.
type TimeSubmittedPayload struct {
	EventID   string    `json:"eventId"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Time      float64   `json:"time"`
	TeamTotal float64   `json:"teamTotal"`
	Timestamp time.Time `json:"timestamp"`
}

// RankingsUpdatedPayload signals that an event leaderboard should be refetched.
type RankingsUpdatedPayload struct {
	EventID   string    `json:"eventId"`
	Timestamp time.Time `json:"timestamp"`
}

// TeamStatusPayload is sent with team-status-update.
type TeamStatusPayload struct {
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// MotivationPayload is sent with motivation.
type MotivationPayload struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// EventLifecyclePayload is sent with event-started and event-ended.
type EventLifecyclePayload struct {
	EventID       string                `json:"eventId"`
	EventName     string                `json:"eventName"`
	Timestamp     time.Time             `json:"timestamp"`
	FinalRankings []models.RankingEntry `json:"finalRankings,omitempty"`
}

// AchievementPayload is broadcast on the global topic.
type AchievementPayload struct {
	UserID      string             `json:"userId"`
	UserName    string             `json:"userName"`
	Achievement models.Achievement `json:"achievement"`
}
