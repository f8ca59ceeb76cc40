package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/TatianaIng96/driverflow-service/internal/membership"
	"github.com/TatianaIng96/driverflow-service/pkg/events"
	"github.com/TatianaIng96/driverflow-service/pkg/logger"
	"github.com/TatianaIng96/driverflow-service/prometheus"
)

// publishTimeout bounds the delivery of one event
const publishTimeout = 2 * time.Second

// Store persists snapshots
type Store interface {
	Load(ctx context.Context) (membership.Snapshot, error)
	Apply(ctx context.Context, c membership.Changes) error
}

// Service owns the current snapshot and serializes every write through the engine
type Service struct {
	mu        sync.RWMutex
	engine    *membership.Engine
	store     Store
	publisher events.Publisher
	log       *zap.Logger
	snap      membership.Snapshot

	// events are delivered outside mu, in the order their writes committed
	pubMu   sync.Mutex
	pubCond *sync.Cond
	tickets uint64
	turn    uint64
}

// New creates a Service with an empty snapshot; call Load to hydrate it
func New(engine *membership.Engine, store Store, publisher events.Publisher, log *zap.Logger) *Service {
	if publisher == nil {
		publisher = events.Discard{}
	}
	s := &Service{
		engine:    engine,
		store:     store,
		publisher: publisher,
		log:       log,
	}
	s.pubCond = sync.NewCond(&s.pubMu)
	return s
}

// Load replaces the in-memory snapshot with the stored one
func (s *Service) Load(ctx context.Context) error {
	snap, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}

	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()

	for _, o := range snap.Operators {
		s.recordOccupancy(snap, o.ID)
	}
	return nil
}

// Snapshot returns the current state. Callers must treat it as read-only;
// the engine never mutates a published snapshot in place.
func (s *Service) Snapshot() membership.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Execute applies op, persists the resulting changes and publishes an event.
// Engine rejections come back as the result's Err. A store failure leaves the
// in-memory state untouched. Publishing happens after the write lock is
// released, so a slow sink delays only the callers waiting on their own events.
func (s *Service) Execute(ctx context.Context, op membership.Operation) (membership.Result, error) {
	res, ev, ticket, err := s.apply(ctx, op)
	if ev != nil {
		s.publishInOrder(ctx, ticket, *ev)
	}
	return res, err
}

func (s *Service) apply(ctx context.Context, op membership.Operation) (membership.Result, *events.Event, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.log
	if reqLog, ok := logger.FromStdContext(ctx); ok {
		log = reqLog
	}
	log = log.With(zap.String("operation", op.Label()))

	next, res := s.engine.Apply(s.snap, op)
	if !res.Success {
		prometheus.RecordMembershipOperation(res.Operation, "rejected")
		log.Info("Operation rejected",
			zap.String("operator_id", res.OperatorID),
			zap.String("reason", res.Message))
		return res, nil, 0, res.Err
	}

	changes := membership.Diff(s.snap, next)
	if changes.Empty() {
		prometheus.RecordMembershipOperation(res.Operation, "noop")
		return res, nil, 0, nil
	}

	if err := s.store.Apply(ctx, changes); err != nil {
		prometheus.RecordMembershipOperation(res.Operation, "store_error")
		log.Error("Failed to persist operation", zap.Error(err))
		err = fmt.Errorf("failed to persist %s: %w", res.Operation, err)
		res.Success = false
		res.Message = err.Error()
		res.Err = err
		return res, nil, 0, err
	}

	s.snap = next
	prometheus.RecordMembershipOperation(res.Operation, "success")
	if res.GroupCreated {
		prometheus.RecordGroupCreated(res.OperatorID)
	}
	s.recordOccupancy(next, res.OperatorID)

	log.Info("Operation applied",
		zap.String("operator_id", res.OperatorID),
		zap.String("entity_id", res.EntityID),
		zap.String("group_id", res.GroupID),
		zap.Bool("group_created", res.GroupCreated),
		zap.String("message", res.Message))

	ev := newEvent(res)
	s.pubMu.Lock()
	ticket := s.tickets
	s.tickets++
	s.pubMu.Unlock()
	return res, &ev, ticket, nil
}

func newEvent(res membership.Result) events.Event {
	return events.Event{
		ID:           uuid.NewString(),
		Type:         res.Operation,
		OperatorID:   res.OperatorID,
		EntityID:     res.EntityID,
		GroupID:      res.GroupID,
		GroupCreated: res.GroupCreated,
		Message:      res.Message,
		At:           time.Now().UTC(),
	}
}

// publishInOrder waits for the events of earlier writes, then delivers ev
func (s *Service) publishInOrder(ctx context.Context, ticket uint64, ev events.Event) {
	s.pubMu.Lock()
	for s.turn != ticket {
		s.pubCond.Wait()
	}
	s.pubMu.Unlock()

	s.publish(ctx, ev)

	s.pubMu.Lock()
	s.turn++
	s.pubCond.Broadcast()
	s.pubMu.Unlock()
}

func (s *Service) publish(ctx context.Context, ev events.Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.log.Warn("Failed to publish event",
			zap.String("event_type", ev.Type),
			zap.String("operator_id", ev.OperatorID),
			zap.Error(err))
	}
}

func (s *Service) recordOccupancy(snap membership.Snapshot, operatorID string) {
	st, ok := snap.OperatorStats(operatorID)
	if !ok {
		return
	}
	prometheus.SetOperatorOccupancy(operatorID, st.Groups, st.Clients, st.Occupancy)
}
