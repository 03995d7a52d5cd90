// shared/notify/recorder.go
package notify

// Recorder receives fan-out measurements. Labels are topic kinds, never topic ids.
type Recorder interface {
	NotificationPublished(kind string)
	NotificationDelivered(kind string)
	NotificationDropped(kind string)
	SubscribersChanged(kind string, delta int)
}

// NopRecorder discards all measurements.
type NopRecorder struct{}

func (NopRecorder) NotificationPublished(string)   {}
func (NopRecorder) NotificationDelivered(string)   {}
func (NopRecorder) NotificationDropped(string)     {}
func (NopRecorder) SubscribersChanged(string, int) {}
