// competition/service/ranking.go
package service

import (
	"sort"

	"github.com/Tokioace/N64-Nexus-sub006/shared/models"
)

// ComputeRankings orders the teams that have at least one submission for eventID
// by ascending total time. Equal totals go to the team whose last contributing
// submission came first, then to the lower team id. Ranks run 1..n.
func ComputeRankings(teams []*models.Team, eventID string) []models.RankingEntry {
	type candidate struct {
		team *models.Team
		st   *models.TeamEventState
	}
	var cands []candidate
	for _, t := range teams {
		st, ok := t.PerEventState[eventID]
		if !ok || len(st.Submissions) == 0 {
			continue
		}
		cands = append(cands, candidate{team: t, st: st})
	}

	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.st.TotalTime != b.st.TotalTime {
			return a.st.TotalTime < b.st.TotalTime
		}
		la, lb := a.st.LastSubmittedAt(), b.st.LastSubmittedAt()
		if !la.Equal(lb) {
			return la.Before(lb)
		}
		return a.team.ID < b.team.ID
	})

	rankings := make([]models.RankingEntry, 0, len(cands))
	for i, c := range cands {
		rankings = append(rankings, models.RankingEntry{
			TeamID:      c.team.ID,
			TeamName:    c.team.Name,
			TotalTime:   c.st.TotalTime,
			Rank:        i + 1,
			MemberCount: len(c.team.Members),
		})
	}
	return rankings
}
