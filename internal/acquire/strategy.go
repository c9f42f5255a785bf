// Package acquire implements the live-then-cached cell acquisition strategy.
//
// One call issues at most one live request and at most one cached read:
//
//	Idle -> RequestingLive -> LiveSucceeded
//	Idle -> RequestingLive -> LiveFailed -> RequestingCached -> ...
//	Idle -> RequestingCached -> CachedSucceeded
//	Idle -> RequestingCached -> CachedFailed -> EmptyResult
//
// Failures never escape Acquire. A failed live request falls back to the
// cached read, a failed cached read yields an empty result, and any panic
// collapses the call to EmptyResult.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/radio-control/cellinfo/internal/adapter"
	"github.com/radio-control/cellinfo/internal/cell"
	"github.com/radio-control/cellinfo/internal/extract"
)

// State is one step of the acquisition state machine.
type State int

// Acquisition states.
const (
	Idle State = iota
	RequestingLive
	LiveSucceeded
	LiveFailed
	RequestingCached
	CachedSucceeded
	CachedFailed
	EmptyResult
)

var stateNames = [...]string{
	Idle:             "Idle",
	RequestingLive:   "RequestingLive",
	LiveSucceeded:    "LiveSucceeded",
	LiveFailed:       "LiveFailed",
	RequestingCached: "RequestingCached",
	CachedSucceeded:  "CachedSucceeded",
	CachedFailed:     "CachedFailed",
	EmptyResult:      "EmptyResult",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// Path names the source of the final result.
type Path string

// Result sources.
const (
	PathLive   Path = "live"
	PathCached Path = "cached"
	PathEmpty  Path = "empty"
)

// Result is the outcome of one acquisition.
type Result struct {
	// Records is never nil.
	Records []cell.Record
	Path    Path
	Trace   []State

	// LiveErr and CachedErr hold the absorbed failures, if any.
	LiveErr   error
	CachedErr error

	Duration time.Duration
}

// Final returns the last state reached.
func (r Result) Final() State {
	if len(r.Trace) == 0 {
		return Idle
	}
	return r.Trace[len(r.Trace)-1]
}

func (r *Result) enter(s State) {
	r.Trace = append(r.Trace, s)
}

func (r *Result) empty() {
	r.Records = []cell.Record{}
	r.Path = PathEmpty
	if r.Final() != EmptyResult {
		r.enter(EmptyResult)
	}
}

// Strategy runs acquisitions against one platform adapter.
type Strategy struct {
	source    adapter.ITelephonyAdapter
	extractor *extract.Extractor
	logger    *zap.Logger

	// liveTimeout bounds the wait for the live callback only; zero waits
	// for the platform or the caller.
	liveTimeout time.Duration
}

// New creates a strategy. A nil extractor or logger gets a default.
func New(source adapter.ITelephonyAdapter, extractor *extract.Extractor, logger *zap.Logger) *Strategy {
	if logger == nil {
		logger = zap.NewNop()
	}
	if extractor == nil {
		extractor = extract.New(logger)
	}
	return &Strategy{source: source, extractor: extractor, logger: logger}
}

// SetLiveTimeout bounds the live callback wait. Expiry counts as a live
// failure and the cached read still runs under the caller's context.
func (s *Strategy) SetLiveTimeout(d time.Duration) *Strategy {
	s.liveTimeout = d
	return s
}

// Acquire runs the state machine once. It blocks on the live callback until
// it fires or ctx ends; ctx ending counts as a live failure.
func (s *Strategy) Acquire(ctx context.Context) (res Result) {
	start := time.Now()
	res.Trace = []State{Idle}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("acquisition panicked",
				zap.String("state", res.Final().String()),
				zap.String("panic", fmt.Sprint(r)))
			res.empty()
		}
		res.Duration = time.Since(start)
	}()

	if live, ok := s.source.(adapter.LiveRequester); ok && live.SupportsLiveUpdates() {
		res.enter(RequestingLive)
		cells, err := s.requestLive(ctx, live)
		if err == nil {
			res.enter(LiveSucceeded)
			res.Records = s.extractor.ExtractAll(cells)
			res.Path = PathLive
			return res
		}
		res.LiveErr = err
		res.enter(LiveFailed)
		s.logger.Info("live cell request failed, falling back to cached cells",
			zap.String("reason", adapter.Reason(err)),
			zap.Error(err))
	}

	res.enter(RequestingCached)
	cells, err := s.readCached(ctx)
	if err != nil {
		res.CachedErr = err
		res.enter(CachedFailed)
		s.logger.Warn("cached cell read failed, returning empty result",
			zap.String("reason", adapter.Reason(err)),
			zap.Error(err))
		res.empty()
		return res
	}

	res.enter(CachedSucceeded)
	res.Records = s.extractor.ExtractAll(cells)
	res.Path = PathCached
	return res
}

func (s *Strategy) requestLive(ctx context.Context, live adapter.LiveRequester) (cells []adapter.RawCell, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: live request panicked: %v", adapter.ErrInternal, r)
		}
	}()

	if s.liveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.liveTimeout)
		defer cancel()
	}

	cb := newCallback()
	if err := live.RequestCellUpdate(ctx, cb); err != nil {
		return nil, s.normalize(err)
	}

	select {
	case out := <-cb.done:
		return out.cells, out.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Strategy) readCached(ctx context.Context) (cells []adapter.RawCell, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: cached read panicked: %v", adapter.ErrInternal, r)
		}
	}()

	cells, err = s.source.CachedCells(ctx)
	if err != nil {
		return nil, s.normalize(err)
	}
	return cells, nil
}

func (s *Strategy) normalize(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	platform := "generic"
	if p, ok := s.source.(interface{ GetPlatformID() string }); ok {
		platform = p.GetPlatformID()
	}
	return adapter.NormalizePlatformErrorFor(err, platform)
}

type outcome struct {
	cells []adapter.RawCell
	err   error
}

// callback funnels the platform's answer into a one-slot channel. Only the
// first answer is kept.
type callback struct {
	once sync.Once
	done chan outcome
}

func newCallback() *callback {
	return &callback{done: make(chan outcome, 1)}
}

func (c *callback) deliver(o outcome) {
	c.once.Do(func() { c.done <- o })
}

// OnCellInfo implements adapter.CellCallback.
func (c *callback) OnCellInfo(cells []adapter.RawCell) {
	c.deliver(outcome{cells: cells})
}

// OnError implements adapter.CellCallback.
func (c *callback) OnError(code int, detail error) {
	c.deliver(outcome{err: &adapter.LiveError{Code: code, Detail: detail}})
}
