// competition/store/team_store.go
package store

import (
	"sort"
	"sync"

	"github.com/Tokioace/N64-Nexus-sub006/shared/models"
)

// TeamStore is the in-memory repository behind the team registry and the
// submission ledger. Every mutation runs inside Update, which holds the store
// lock for the whole check-then-act sequence. Nothing is persisted.
type TeamStore struct {
	mu sync.Mutex

	teams map[string]*models.Team
	// memberOf maps a user id to the id of the one team holding it.
	memberOf map[string]string
	// submitted maps event id -> user id -> team the submission was credited to.
	submitted map[string]map[string]string
}

// NewTeamStore creates an empty TeamStore.
func NewTeamStore() *TeamStore {
	return &TeamStore{
		teams:     make(map[string]*models.Team),
		memberOf:  make(map[string]string),
		submitted: make(map[string]map[string]string),
	}
}

// TeamTx is the view handed to Update. Teams returned by Get are live; change
// them only through the TeamTx methods so the indexes stay consistent.
type TeamTx struct {
	s *TeamStore
}

// Update runs fn with exclusive access to the store. fn's error is returned unchanged.
func (s *TeamStore) Update(fn func(tx *TeamTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&TeamTx{s: s})
}

func (tx *TeamTx) Get(teamID string) (*models.Team, bool) {
	t, ok := tx.s.teams[teamID]
	return t, ok
}

// TeamOf returns the id of the team userID belongs to.
func (tx *TeamTx) TeamOf(userID string) (string, bool) {
	id, ok := tx.s.memberOf[userID]
	return id, ok
}

// Insert adds a new team and indexes its members.
func (tx *TeamTx) Insert(t *models.Team) {
	tx.s.teams[t.ID] = t
	for _, m := range t.Members {
		tx.s.memberOf[m.UserID] = t.ID
	}
}

// AddMember appends m to the team's member list.
func (tx *TeamTx) AddMember(t *models.Team, m models.Member) {
	t.Members = append(t.Members, m)
	tx.s.memberOf[m.UserID] = t.ID
}

// RemoveMember drops userID from the team, keeping the order of the others.
func (tx *TeamTx) RemoveMember(t *models.Team, userID string) {
	kept := t.Members[:0]
	for _, m := range t.Members {
		if m.UserID != userID {
			kept = append(kept, m)
		}
	}
	t.Members = kept
	if tx.s.memberOf[userID] == t.ID {
		delete(tx.s.memberOf, userID)
	}
}

// Delete removes the team and releases its members. Submission records stay in
// the ledger index so a user can never submit twice for the same event.
func (tx *TeamTx) Delete(teamID string) {
	t, ok := tx.s.teams[teamID]
	if !ok {
		return
	}
	for _, m := range t.Members {
		if tx.s.memberOf[m.UserID] == teamID {
			delete(tx.s.memberOf, m.UserID)
		}
	}
	delete(tx.s.teams, teamID)
}

// HasSubmitted reports whether userID already has a submission for eventID on any team.
func (tx *TeamTx) HasSubmitted(eventID, userID string) bool {
	_, ok := tx.s.submitted[eventID][userID]
	return ok
}

// RecordSubmission appends sub to the team's state for eventID and returns the new team total.
func (tx *TeamTx) RecordSubmission(t *models.Team, eventID string, sub models.Submission) float64 {
	if t.PerEventState == nil {
		t.PerEventState = make(map[string]*models.TeamEventState)
	}
	st, ok := t.PerEventState[eventID]
	if !ok {
		st = &models.TeamEventState{}
		t.PerEventState[eventID] = st
	}
	st.Submissions = append(st.Submissions, sub)
	st.TotalTime += sub.Time

	byUser, ok := tx.s.submitted[eventID]
	if !ok {
		byUser = make(map[string]string)
		tx.s.submitted[eventID] = byUser
	}
	byUser[sub.UserID] = t.ID
	return st.TotalTime
}

// Get returns a copy of the team.
func (s *TeamStore) Get(teamID string) (*models.Team, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.teams[teamID]
	return t.Clone(), ok
}

// TeamOf returns a copy of the team userID belongs to.
func (s *TeamStore) TeamOf(userID string) (*models.Team, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.memberOf[userID]
	if !ok {
		return nil, false
	}
	return s.teams[id].Clone(), true
}

// List returns copies of every team, oldest first.
func (s *TeamStore) List() []*models.Team {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Team, 0, len(s.teams))
	for _, t := range s.teams {
		out = append(out, t.Clone())
	}
	sortTeams(out)
	return out
}

// WithEventState returns copies of the teams that have at least one submission for eventID.
func (s *TeamStore) WithEventState(eventID string) []*models.Team {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Team
	for _, t := range s.teams {
		if st, ok := t.PerEventState[eventID]; ok && len(st.Submissions) > 0 {
			out = append(out, t.Clone())
		}
	}
	sortTeams(out)
	return out
}

func sortTeams(teams []*models.Team) {
	sort.Slice(teams, func(i, j int) bool {
		if !teams[i].CreatedAt.Equal(teams[j].CreatedAt) {
			return teams[i].CreatedAt.Before(teams[j].CreatedAt)
		}
		return teams[i].ID < teams[j].ID
	})
}
