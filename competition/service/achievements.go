// competition/service/achievements.go
package service

import "github.com/Tokioace/N64-Nexus-sub006/shared/models"

// SpeedDemonThreshold is the fastest team time, in seconds, that unlocks speed-demon.
const SpeedDemonThreshold = 600.0

// AchievementRule unlocks Achievement when Unlocked holds for a user's stats.
type AchievementRule struct {
	Achievement models.Achievement
	Unlocked    func(models.TeamStats) bool
}

// DefaultAchievementRules is the fixed rule list, evaluated in order.
var DefaultAchievementRules = []AchievementRule{
	{
		Achievement: models.Achievement{ID: "first-team-event", Name: "Team Player", Description: "Finish your first team event"},
		Unlocked:    func(s models.TeamStats) bool { return s.TotalTeamEvents >= 1 },
	},
	{
		Achievement: models.Achievement{ID: "first-team-win", Name: "Victory Together", Description: "Win a team event"},
		Unlocked:    func(s models.TeamStats) bool { return s.TotalTeamWins >= 1 },
	},
	{
		Achievement: models.Achievement{ID: "podium-regular", Name: "Podium Regular", Description: "Reach the podium in 3 team events"},
		Unlocked:    func(s models.TeamStats) bool { return s.TotalTeamPodiums >= 3 },
	},
	{
		Achievement: models.Achievement{ID: "champion", Name: "Champion", Description: "Win 5 team events"},
		Unlocked:    func(s models.TeamStats) bool { return s.TotalTeamWins >= 5 },
	},
	{
		Achievement: models.Achievement{ID: "speed-demon", Name: "Speed Demon", Description: "Post a team time under 10 minutes"},
		Unlocked: func(s models.TeamStats) bool {
			return s.FastestTeamTime > 0 && s.FastestTeamTime < SpeedDemonThreshold
		},
	},
	{
		Achievement: models.Achievement{ID: "team-veteran", Name: "Team Veteran", Description: "Play 10 team events"},
		Unlocked:    func(s models.TeamStats) bool { return s.TotalTeamEvents >= 10 },
	},
}

// EvaluateAchievements returns the rules that hold for stats and are not in unlocked.
// It has no side effects; running it again with the result merged in returns nothing.
func EvaluateAchievements(rules []AchievementRule, stats models.TeamStats, unlocked []string) []models.Achievement {
	have := make(map[string]bool, len(unlocked))
	for _, id := range unlocked {
		have[id] = true
	}
	var out []models.Achievement
	for _, r := range rules {
		if have[r.Achievement.ID] || !r.Unlocked(stats) {
			continue
		}
		out = append(out, r.Achievement)
		have[r.Achievement.ID] = true
	}
	return out
}
