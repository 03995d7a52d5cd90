// competition/service/stats_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/Tokioace/N64-Nexus-sub006/competition/store"
	"github.com/Tokioace/N64-Nexus-sub006/shared/models"
	"github.com/Tokioace/N64-Nexus-sub006/shared/notify"
)

// StatsService records event outcomes into user profiles and runs the achievement evaluator.
type StatsService struct {
	base
	profiles store.ProfileStore
	rules    []AchievementRule
	// mu serializes read-modify-write cycles on profiles.
	mu sync.Mutex
}

func NewStatsService(profiles store.ProfileStore, opts Options) *StatsService {
	return &StatsService{base: newBase(opts), profiles: profiles, rules: DefaultAchievementRules}
}

// ReportEventResultInput is one user's outcome in one event.
type ReportEventResultInput struct {
	UserID       string
	UserName     string
	EventID      string
	TeamID       string
	TeamRank     int
	TeamTime     float64
	PersonalTime float64
}

// ReportResult is the user's updated stats and anything unlocked by this report.
type ReportResult struct {
	Stats           models.TeamStats     `json:"stats"`
	NewAchievements []models.Achievement `json:"newAchievements"`
}

// ReportEventResult appends to the user's team history, folds the result into the
// aggregate stats without ever regressing them, persists newly unlocked achievements
// and broadcasts each one on the global topic.
func (s *StatsService) ReportEventResult(ctx context.Context, in ReportEventResultInput) (res ReportResult, err error) {
	defer s.track("reportEventResult", time.Now(), &err)

	if strings.TrimSpace(in.UserID) == "" || strings.TrimSpace(in.EventID) == "" || strings.TrimSpace(in.TeamID) == "" {
		return res, reject(ErrInvalidInput, "userId, eventId and teamId are required")
	}
	if in.TeamRank < 1 {
		return res, reject(ErrInvalidInput, "teamRank must be at least 1 (got %d)", in.TeamRank)
	}
	if !validSeconds(in.TeamTime) || in.TeamTime == 0 {
		return res, reject(ErrInvalidInput, "teamTime must be a positive number of seconds")
	}
	if !validSeconds(in.PersonalTime) {
		return res, reject(ErrInvalidInput, "personalTime must be a non-negative number of seconds")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	profile, err := s.profiles.GetProfile(ctx, in.UserID)
	switch {
	case errors.Is(err, store.ErrProfileNotFound):
		profile = &models.UserProfile{ID: in.UserID, Achievements: []string{}, TeamHistory: []models.TeamHistoryEntry{}}
	case err != nil:
		return res, fmt.Errorf("failed to load profile %s: %w", in.UserID, err)
	}
	if in.UserName != "" {
		profile.DisplayName = in.UserName
	}

	now := s.now()
	profile.TeamHistory = append(profile.TeamHistory, models.TeamHistoryEntry{
		EventID:      in.EventID,
		TeamID:       in.TeamID,
		TeamRank:     in.TeamRank,
		TeamTime:     in.TeamTime,
		PersonalTime: in.PersonalTime,
		Date:         now,
	})
	profile.Stats = applyResult(profile.Stats, profile.TeamHistory, in.TeamRank, in.TeamTime)

	unlocked := EvaluateAchievements(s.rules, profile.Stats, profile.Achievements)
	for _, a := range unlocked {
		profile.Achievements = append(profile.Achievements, a.ID)
	}
	profile.UpdatedAt = &now

	if err := s.profiles.SaveProfile(ctx, profile); err != nil {
		return res, fmt.Errorf("failed to save profile %s: %w", in.UserID, err)
	}

	s.logger.Info("Event result reported",
		slog.String("user_id", in.UserID),
		slog.String("event_id", in.EventID),
		slog.Int("team_rank", in.TeamRank),
		slog.Int("new_achievements", len(unlocked)),
	)
	for _, a := range unlocked {
		s.publish(ctx, notify.GlobalTopic, notify.EventAchievementUnlocked, notify.AchievementPayload{
			UserID:      in.UserID,
			UserName:    profile.DisplayName,
			Achievement: a,
		})
	}

	if unlocked == nil {
		unlocked = []models.Achievement{}
	}
	return ReportResult{Stats: profile.Stats, NewAchievements: unlocked}, nil
}

// GetProfile returns the stored profile for userID.
func (s *StatsService) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	profile, err := s.profiles.GetProfile(ctx, userID)
	if errors.Is(err, store.ErrProfileNotFound) {
		return nil, reject(ErrNotFound, "profile %s", userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile %s: %w", userID, err)
	}
	return profile, nil
}

// applyResult folds one result into stats. Counters only grow; best rank and
// fastest time only improve. The average covers the whole history.
func applyResult(stats models.TeamStats, history []models.TeamHistoryEntry, rank int, teamTime float64) models.TeamStats {
	stats.TotalTeamEvents++
	if rank == 1 {
		stats.TotalTeamWins++
	}
	if rank <= 3 {
		stats.TotalTeamPodiums++
	}
	if stats.BestTeamRank == 0 || rank < stats.BestTeamRank {
		stats.BestTeamRank = rank
	}
	if stats.FastestTeamTime == 0 || teamTime < stats.FastestTeamTime {
		stats.FastestTeamTime = teamTime
	}
	var sum float64
	for _, h := range history {
		sum += h.TeamTime
	}
	if len(history) > 0 {
		stats.AverageTeamTime = sum / float64(len(history))
	}
	return stats
}

func validSeconds(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
