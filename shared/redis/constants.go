// shared/redis/constants.go
package redis

import "strings"

const (
	// NotificationChannelPrefix prefixes every pub/sub channel used by the notification bus:
	// speedrun:notify:{topic}
	NotificationChannelPrefix = "speedrun:notify:"
	// NotificationChannelPattern matches every notification channel.
	NotificationChannelPattern = NotificationChannelPrefix + "*"
)

// NotificationChannel returns the Redis channel carrying topic.
func NotificationChannel(topic string) string {
	return NotificationChannelPrefix + topic
}

// TopicFromChannel reverses NotificationChannel.
func TopicFromChannel(channel string) (string, bool) {
	if !strings.HasPrefix(channel, NotificationChannelPrefix) {
		return "", false
	}
	topic := strings.TrimPrefix(channel, NotificationChannelPrefix)
	return topic, topic != ""
}
