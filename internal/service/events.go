package service

// Live events pushed to connected consoles
const (
	EventSalesRefreshed    = "sales.refreshed"
	EventWorkflowTriggered = "workflow.triggered"
	EventSlackSent         = "slack.sent"
)

// EventPublisher fans an event out to connected clients without blocking
type EventPublisher interface {
	Publish(event string, data interface{})
}

type noopPublisher struct{}

func (noopPublisher) Publish(string, interface{}) {}

func publisherOrNoop(p EventPublisher) EventPublisher {
	if p == nil {
		return noopPublisher{}
	}
	return p
}
