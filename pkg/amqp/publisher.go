package amqp

// ContentTypeJSON is the content type of every notification published by the bridge.
const ContentTypeJSON = "application/json"

//go:generate mockery -name=Publisher
type Publisher interface {
	Publish(body []byte, contentType string) error
	Close() error
}
