// Package session holds the state a host keeps between solver invocations.
//
// A Session starts out uninitialized. The first invocation, and every invocation that asks for a
// reset, rebuilds the chain from the invocation's segment count and length. Every invocation then
// updates the target, solves once and renders the chain.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/golang/geo/r3"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"go.viam.com/fabrik/kinematics"
	"go.viam.com/fabrik/logging"
	"go.viam.com/fabrik/spatialmath"
)

// ErrSessionClosed is returned by invocations made after Close.
var ErrSessionClosed = errors.New("session is closed")

// solveDrift sums how far a solved chain strays from rigid, connected segments. It is zero up
// to rounding.
var solveDrift = kinematics.CombineMetrics(kinematics.NewLengthResidualMetric(), kinematics.NewContinuityMetric())

// State is where a session is in its lifecycle.
type State int

const (
	// Uninitialized sessions have no chain; the next invocation builds one.
	Uninitialized State = iota
	// Ready sessions hold a chain that persists across invocations.
	Ready
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Ready:
		return "ready"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Input is what the host supplies on every invocation.
type Input struct {
	SegmentLength float64
	SegmentCount  int
	Target        r3.Vector
	Reset         bool
}

// Result is what the host gets back from Invoke. Lines is nil whenever Err is set; Messages
// carries human-readable diagnostics either way.
type Result struct {
	Lines    []spatialmath.Line
	Messages []string
	Err      error
}

// A Session owns one chain for the lifetime of a host session.
type Session struct {
	mu     sync.Mutex
	id     uuid.UUID
	logger logging.Logger
	opts   []kinematics.ChainOption

	chain  *kinematics.Chain
	state  State
	closed bool

	// beforeSolve is called with the chain right before each solve. Tests use it to inject faults.
	beforeSolve func(*kinematics.Chain)
}

// New makes a new session. The options are applied to every chain the session builds.
func New(logger logging.Logger, opts ...kinematics.ChainOption) *Session {
	return NewWithID(uuid.New(), logger, opts...)
}

// NewWithID makes a new session with an ID. A nil logger discards everything.
func NewWithID(id uuid.UUID, logger logging.Logger, opts ...kinematics.ChainOption) *Session {
	if logger == nil {
		logger = logging.NewBlankLogger("session")
	}
	return &Session{
		id:     id,
		logger: logger,
		opts:   opts,
	}
}

// ID returns the id of this session.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Segments returns a copy of the current chain's segments, or nil if there is no chain.
func (s *Session) Segments() []kinematics.Segment {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.chain == nil {
		return nil
	}
	return s.chain.Segments()
}

// Describe returns a table of the current chain, or the empty string if there is no chain.
func (s *Session) Describe() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.chain == nil {
		return ""
	}
	return s.chain.String()
}

// TipDistance returns how far the free end of the chain is from its target. The second return
// value is false if there is no chain.
func (s *Session) TipDistance() (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.chain == nil {
		return 0, false
	}
	return kinematics.NewTipDistanceMetric()(s.chain), true
}

// Reset drops the chain. The next invocation rebuilds it regardless of its reset flag.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chain = nil
	s.state = Uninitialized
}

// Close tears the session down. Invocations after Close fail with ErrSessionClosed.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chain = nil
	s.state = Uninitialized
	s.closed = true
	return nil
}

// Step runs one invocation: rebuild the chain if needed, move the target, solve and render.
// Errors are returned as is. If the rebuild, the target or the solve is rejected, the session
// keeps the chain and state it had before the call.
func (s *Session) Step(ctx context.Context, in Input) ([]spatialmath.Line, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSessionClosed
	}

	// a rebuilt chain replaces the current one only once it has solved
	chain := s.chain
	rebuilt := s.state == Uninitialized || in.Reset
	if rebuilt {
		var err error
		chain, err = kinematics.NewChain(in.SegmentCount, in.SegmentLength, in.Target, s.opts...)
		if err != nil {
			return nil, errors.Wrap(err, "cannot rebuild chain")
		}
	} else if in.SegmentCount != chain.Len() || in.SegmentLength != chain.SegmentLength() {
		s.logger.Debugw("segment configuration changed without a reset, keeping the current chain",
			"segments", in.SegmentCount, "length", in.SegmentLength)
	}

	if s.beforeSolve != nil {
		s.beforeSolve(chain)
	}
	prevTarget := chain.Target()
	if err := chain.SetTarget(in.Target); err != nil {
		return nil, err
	}
	if err := chain.Solve(); err != nil {
		// Solve already left the joints alone; put the target back as well
		//nolint:errcheck
		chain.SetTarget(prevTarget)
		s.logger.Warnw("solve failed", "session", s.id.String(), "rebuild", rebuilt, "error", err)
		return nil, err
	}

	if rebuilt {
		s.chain = chain
		s.state = Ready
		s.logger.Infow("rebuilt chain", "session", s.id.String(), "segments", in.SegmentCount, "length", in.SegmentLength,
			"anchor", spatialmath.FormatVector(chain.Anchor()))
	}
	s.logger.Debugw("solved",
		"tip_distance", kinematics.NewTipDistanceMetric()(chain),
		"drift", solveDrift(chain),
		"solves", chain.Solves())
	return chain.Render(), nil
}

// Invoke is Step for hosts that cannot handle errors or panics. Every fault, including a
// panic inside the solver, is turned into a message on the result and the lines are left nil.
func (s *Session) Invoke(ctx context.Context, in Input) (res *Result) {
	res = &Result{}
	defer func() {
		if r := recover(); r != nil {
			err := errors.Errorf("unexpected fault: %v", r)
			s.logger.Errorw("invocation panicked", "session", s.id.String(), "error", err)
			res.Lines = nil
			res.Err = err
			res.Messages = append(res.Messages, fmt.Sprintf("Solver exception: %v", err))
		}
	}()

	lines, err := s.Step(ctx, in)
	if err != nil {
		res.Err = err
		res.Messages = append(res.Messages, fmt.Sprintf("Solver error: %v", err))
		return res
	}
	res.Lines = lines
	return res
}
