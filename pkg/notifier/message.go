package notifier

const (
	QueueName = "notification"

	// TopicProofRequest carries proof request status changes.
	TopicProofRequest = "proof-request"
)

type Notification struct {
	Topic     string      `json:"topic"`
	Event     string      `json:"event"`
	EventData interface{} `json:"message"`
}

type EventMessage struct {
	Event     string      `json:"event"`
	Timestamp int64       `json:"timestamp"`
	EventData interface{} `json:"message"`
}
