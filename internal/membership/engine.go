package membership

import (
	"time"

	"github.com/google/uuid"
)

// IDGenerator produces opaque entity ids. prefix is one of "op", "d", "c", "g", "ban".
type IDGenerator interface {
	NewID(prefix string) string
}

// Clock supplies timestamps for createdAt/addedAt/date fields
type Clock interface {
	Now() time.Time
}

type uuidGenerator struct{}

func (uuidGenerator) NewID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Operation is one state transition understood by the Engine
type Operation interface {
	// Label is a stable snake_case name used in logs, metrics and events
	Label() string
	apply(e *Engine, s *Snapshot) (Result, error)
}

// Result is the outcome of applying an Operation.
// Err is nil exactly when Success is true.
type Result struct {
	Operation    string `json:"operation"`
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	OperatorID   string `json:"operator_id,omitempty"`
	EntityID     string `json:"entity_id,omitempty"`
	GroupID      string `json:"group_id,omitempty"`
	GroupCreated bool   `json:"group_created,omitempty"`
	Err          error  `json:"-"`
}

// Engine applies operations to snapshots. It holds no state besides its id and
// time sources, so a single Engine may be shared freely.
type Engine struct {
	ids   IDGenerator
	clock Clock
}

// Option configures an Engine
type Option func(*Engine)

// WithIDGenerator replaces the default uuid-based generator
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Engine) { e.ids = g }
}

// WithClock replaces the wall clock
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// NewEngine creates an Engine with uuid ids and UTC wall-clock time unless overridden
func NewEngine(opts ...Option) *Engine {
	e := &Engine{ids: uuidGenerator{}, clock: systemClock{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Apply runs op against a private copy of s. On success the copy is returned
// alongside the result; on failure s itself is returned untouched.
func (e *Engine) Apply(s Snapshot, op Operation) (Snapshot, Result) {
	next := s.Clone()
	res, err := op.apply(e, &next)
	res.Operation = op.Label()
	if err != nil {
		res.Success = false
		res.Message = err.Error()
		res.Err = err
		return s, res
	}
	res.Success = true
	return next, res
}

func (e *Engine) now() time.Time {
	return e.clock.Now()
}
