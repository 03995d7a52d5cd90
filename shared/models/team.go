// shared/models/team.go
package models

import "time"

// MemberRole is a team member's role.
type MemberRole string

const (
	RoleCaptain MemberRole = "captain"
	RoleMember  MemberRole = "member"
)

// DefaultTeamMaxMembers is used when a team is created without an explicit capacity.
const DefaultTeamMaxMembers = 4

// Member is one user on a team. Members are kept in join order.
type Member struct {
	UserID      string     `bson:"user_id" json:"userId"`
	DisplayName string     `bson:"display_name" json:"displayName"`
	Role        MemberRole `bson:"role" json:"role"`
	JoinedAt    time.Time  `bson:"joined_at" json:"joinedAt"`
}

// Submission is one user's recorded time toward their team's event total.
// It is immutable once recorded.
type Submission struct {
	UserID      string    `bson:"user_id" json:"userId"`
	DisplayName string    `bson:"display_name" json:"displayName"`
	Time        float64   `bson:"time" json:"time"` // seconds
	Proof       string    `bson:"proof,omitempty" json:"proof,omitempty"`
	SubmittedAt time.Time `bson:"submitted_at" json:"submittedAt"`
}

// TeamEventState is a team's running aggregate for a single event.
type TeamEventState struct {
	Submissions []Submission `bson:"submissions" json:"submissions"`
	TotalTime   float64      `bson:"total_time" json:"totalTime"`
}

// LastSubmittedAt returns the timestamp of the latest contributing submission.
func (s *TeamEventState) LastSubmittedAt() time.Time {
	var last time.Time
	for _, sub := range s.Submissions {
		if sub.SubmittedAt.After(last) {
			last = sub.SubmittedAt
		}
	}
	return last
}

// Team is a named group of users competing jointly in events.
type Team struct {
	ID            string                     `bson:"_id" json:"id"`
	Name          string                     `bson:"name" json:"name"`
	Logo          string                     `bson:"logo,omitempty" json:"logo,omitempty"`
	CaptainID     string                     `bson:"captain_id" json:"captainId"`
	MaxMembers    int                        `bson:"max_members" json:"maxMembers"`
	Members       []Member                   `bson:"members" json:"members"`
	CreatedAt     time.Time                  `bson:"created_at" json:"createdAt"`
	PerEventState map[string]*TeamEventState `bson:"per_event_state" json:"perEventState"`
}

// Member returns the member with the given user id.
func (t *Team) Member(userID string) (Member, bool) {
	for _, m := range t.Members {
		if m.UserID == userID {
			return m, true
		}
	}
	return Member{}, false
}

// IsFull reports whether the team is at capacity.
func (t *Team) IsFull() bool {
	return len(t.Members) >= t.MaxMembers
}

// Clone returns a deep copy so callers never share state with the registry.
func (t *Team) Clone() *Team {
	if t == nil {
		return nil
	}
	c := *t
	c.Members = append([]Member(nil), t.Members...)
	c.PerEventState = make(map[string]*TeamEventState, len(t.PerEventState))
	for eventID, st := range t.PerEventState {
		c.PerEventState[eventID] = &TeamEventState{
			Submissions: append([]Submission(nil), st.Submissions...),
			TotalTime:   st.TotalTime,
		}
	}
	return &c
}
