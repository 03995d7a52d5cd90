package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopicKind(t *testing.T) {
	tests := []struct {
		topic string
		want  string
	}{
		{TeamTopic("abc"), "team"},
		{EventTopic("e1"), "event"},
		{GlobalTopic, "global"},
		{"team:", ""},
		{"event:", ""},
		{"users:1", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			assert.Equal(t, tt.want, TopicKind(tt.topic))
			assert.Equal(t, tt.want != "", ValidTopic(tt.topic))
		})
	}
}

func TestNew_AssignsIDAndPayload(t *testing.T) {
	a, err := New(TeamTopic("t"), EventMotivation, MotivationPayload{Type: "cheer", Message: "go"})
	require.NoError(t, err)
	b, err := New(TeamTopic("t"), EventMotivation, MotivationPayload{Type: "cheer", Message: "go"})
	require.NoError(t, err)

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.False(t, a.Timestamp.IsZero())
	assert.JSONEq(t, `{"type":"cheer","message":"go","timestamp":"0001-01-01T00:00:00Z"}`, string(a.Payload))
}

func TestNew_RejectsUnmarshalablePayload(t *testing.T) {
	_, err := New(GlobalTopic, EventAchievementUnlocked, make(chan int))
	assert.Error(t, err)
}
