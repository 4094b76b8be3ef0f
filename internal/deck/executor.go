package deck

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dawsonpowell07/clashgpt/internal/events"
)

// Phase is the executor's request/response state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSearching
	PhaseSuccess
	PhaseRateLimited
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseSearching:
		return "SEARCHING"
	case PhaseSuccess:
		return "SUCCESS"
	case PhaseRateLimited:
		return "RATE_LIMITED"
	case PhaseFailed:
		return "FAILED"
	default:
		return "IDLE"
	}
}

// Event types published to the rendering layer.
const (
	EventSearching   events.Type = "deck:searching"
	EventResult      events.Type = "deck:result"
	EventRateLimited events.Type = "deck:rate_limited"
	EventFailed      events.Type = "deck:failed"
)

// StatusUpdate is the payload of every executor event. Result always
// carries the last good page (stale during RATE_LIMITED and FAILED), so
// the renderer never has to cache it separately.
type StatusUpdate struct {
	Phase      Phase
	Result     *SearchResult
	RetryAfter time.Duration
	Err        string
}

// DefaultDebounce is the minimum interval between accepted dispatches.
const DefaultDebounce = 500 * time.Millisecond

// Searcher executes one canonical query. *Client implements it.
type Searcher interface {
	Search(ctx context.Context, query string) (*SearchResult, error)
}

// ExecutorOptions configures the search executor.
type ExecutorOptions struct {
	Searcher   Searcher
	Dispatcher *events.Dispatcher
	Cache      *ResultCache  // optional response cache
	Logger     *slog.Logger  // default: slog.Default()
	Debounce   time.Duration // default: DefaultDebounce
}

// Executor dispatches deck searches with a debounce guard, tracks the
// request phase, special-cases rate limiting, and retains the last good
// result across failures ("stale-while-error").
//
// Overlapping searches are allowed and never cancelled; instead each
// dispatch carries a monotonically increasing sequence number and a
// completion older than the last one applied is discarded, so a slow
// early request can never overwrite a fresher result.
type Executor struct {
	searcher   Searcher
	dispatcher *events.Dispatcher
	cache      *ResultCache
	logger     *slog.Logger
	debounce   time.Duration

	mu           sync.Mutex
	lastDispatch time.Time
	nextSeq      uint64
	landedSeq    uint64
	phase        Phase
	result       *SearchResult
	retryAfter   time.Duration

	inflight sync.WaitGroup
}

// NewExecutor creates a search executor.
func NewExecutor(options ExecutorOptions) (*Executor, error) {
	if options.Searcher == nil {
		return nil, fmt.Errorf("searcher is required")
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	if options.Debounce == 0 {
		options.Debounce = DefaultDebounce
	}
	return &Executor{
		searcher:   options.Searcher,
		dispatcher: options.Dispatcher,
		cache:      options.Cache,
		logger:     options.Logger,
		debounce:   options.Debounce,
		phase:      PhaseIdle,
	}, nil
}

// Dispatch compiles the criteria and starts a search. It returns false
// when the attempt is dropped by the debounce guard: no network call,
// no state change. Dropped attempts are not queued; the caller's next
// explicit trigger goes through the guard again.
//
// A response-cache hit lands immediately as a success without a network
// call and without consuming the debounce window.
func (e *Executor) Dispatch(ctx context.Context, criteria Criteria) bool {
	query := BuildQuery(criteria)

	e.mu.Lock()

	if e.cache != nil {
		if cached := e.cache.Get(query); cached != nil {
			e.phase = PhaseSuccess
			e.result = cached
			e.retryAfter = 0
			e.mu.Unlock()
			e.logger.Debug("Search served from cache", "query", query)
			e.publish(EventResult, StatusUpdate{Phase: PhaseSuccess, Result: cached})
			return true
		}
	}

	now := time.Now()
	if !e.lastDispatch.IsZero() && now.Sub(e.lastDispatch) < e.debounce {
		e.mu.Unlock()
		e.logger.Debug("Search dropped by debounce guard", "query", query)
		return false
	}

	e.lastDispatch = now
	e.nextSeq++
	seq := e.nextSeq
	e.phase = PhaseSearching
	e.mu.Unlock()

	e.logger.Debug("Search dispatched", "seq", seq, "query", query)
	e.publish(EventSearching, StatusUpdate{Phase: PhaseSearching, Result: e.Result()})

	e.inflight.Add(1)
	go func() {
		defer e.inflight.Done()
		result, err := e.searcher.Search(ctx, query)
		e.complete(seq, query, result, err)
	}()

	return true
}

// complete applies one search completion, discarding it when a newer
// completion has already landed.
func (e *Executor) complete(seq uint64, query string, result *SearchResult, err error) {
	e.mu.Lock()

	if seq <= e.landedSeq {
		e.mu.Unlock()
		e.logger.Debug("Discarded stale search completion", "seq", seq, "landed", e.landedSeq)
		return
	}
	e.landedSeq = seq

	var rateLimited *RateLimitedError
	switch {
	case err == nil:
		e.phase = PhaseSuccess
		e.result = result
		e.retryAfter = 0
		e.mu.Unlock()

		if e.cache != nil {
			e.cache.Put(query, result)
		}
		e.publish(EventResult, StatusUpdate{Phase: PhaseSuccess, Result: result})

	case errors.As(err, &rateLimited):
		e.phase = PhaseRateLimited
		e.retryAfter = rateLimited.RetryAfter
		stale := e.result
		e.mu.Unlock()

		e.logger.Warn("Search rate limited", "seq", seq, "retryAfter", rateLimited.RetryAfter)
		e.publish(EventRateLimited, StatusUpdate{
			Phase:      PhaseRateLimited,
			Result:     stale,
			RetryAfter: rateLimited.RetryAfter,
			Err:        rateLimited.Error(),
		})

	default:
		e.phase = PhaseFailed
		stale := e.result
		e.mu.Unlock()

		e.logger.Warn("Search failed, retaining previous result", "seq", seq, "error", err)
		e.publish(EventFailed, StatusUpdate{Phase: PhaseFailed, Result: stale, Err: err.Error()})
	}
}

// Phase returns the current request/response phase.
func (e *Executor) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

// Result returns the last successful result page, or nil before the
// first success. It is retained unchanged across rate limits and
// failures.
func (e *Executor) Result() *SearchResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.result
}

// RetryAfter returns the server's retry hint from the last rate-limited
// response, or zero.
func (e *Executor) RetryAfter() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.retryAfter
}

func (e *Executor) publish(eventType events.Type, update StatusUpdate) {
	if e.dispatcher == nil {
		return
	}
	e.dispatcher.Dispatch(events.Event{Type: eventType, Data: update})
}
