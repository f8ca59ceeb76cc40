package events

import (
	"context"
	"errors"
	"time"

	"github.com/TatianaIng96/driverflow-service/prometheus"
)

// Event announces one successful membership change
type Event struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	OperatorID   string    `json:"operator_id,omitempty"`
	EntityID     string    `json:"entity_id,omitempty"`
	GroupID      string    `json:"group_id,omitempty"`
	GroupCreated bool      `json:"group_created,omitempty"`
	Message      string    `json:"message"`
	At           time.Time `json:"at"`
}

// Publisher delivers events to one destination
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Sink is a named Publisher; the name labels delivery metrics
type Sink struct {
	Name      string
	Publisher Publisher
}

// Fanout publishes every event to all sinks and joins their errors
type Fanout struct {
	sinks []Sink
}

// NewFanout creates a Fanout over the given sinks, skipping nil publishers
func NewFanout(sinks ...Sink) *Fanout {
	f := &Fanout{}
	for _, s := range sinks {
		if s.Publisher != nil {
			f.sinks = append(f.sinks, s)
		}
	}
	return f
}

// Publish implements Publisher
func (f *Fanout) Publish(ctx context.Context, ev Event) error {
	var errs []error
	for _, s := range f.sinks {
		err := s.Publisher.Publish(ctx, ev)
		prometheus.RecordEventPublished(s.Name, err)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops every event
type Discard struct{}

// Publish implements Publisher
func (Discard) Publish(context.Context, Event) error { return nil }
