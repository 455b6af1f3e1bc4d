package maps

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// LoadState is the state of the map library loader.
type LoadState int

const (
	StateIdle LoadState = iota
	StateLoading
	StateReady
	StateFailed
	StateFallbackLoading
)

func (s LoadState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	case StateFallbackLoading:
		return "fallback_loading"
	}
	return "unknown"
}

var allowedTransitions = map[LoadState][]LoadState{
	StateIdle:            {StateLoading},
	StateLoading:         {StateReady, StateFailed},
	StateFailed:          {StateFallbackLoading},
	StateFallbackLoading: {StateReady, StateFailed},
}

var (
	ErrMapUnavailable    = errors.New("map library could not be loaded")
	ErrInvalidTransition = errors.New("invalid loader state transition")
)

// AssetSource is one CDN location of the map library.
type AssetSource struct {
	Name          string
	StylesheetURL string
	ScriptURL     string
}

// HTTPClient is the subset of *http.Client used by this package.
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// Loader probes the map library assets, falling back to a second CDN
// before giving up. It is shared by all wizard sessions.
type Loader struct {
	mu            sync.Mutex
	state         LoadState
	fallbackTried bool
	active        AssetSource
	done          chan struct{}

	primary  AssetSource
	fallback AssetSource
	client   HTTPClient
	logger   *zap.Logger
	onChange func(from, to LoadState)
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLoaderHTTPClient sets the client used for probes.
func WithLoaderHTTPClient(c HTTPClient) LoaderOption {
	return func(l *Loader) { l.client = c }
}

// WithLoaderLogger sets the logger.
func WithLoaderLogger(logger *zap.Logger) LoaderOption {
	return func(l *Loader) { l.logger = logger }
}

// WithStateHook registers a callback run on every state transition.
func WithStateHook(fn func(from, to LoadState)) LoaderOption {
	return func(l *Loader) { l.onChange = fn }
}

// NewLoader creates an idle loader. fallback may be empty.
func NewLoader(primary, fallback AssetSource, opts ...LoaderOption) *Loader {
	l := &Loader{
		primary:  primary,
		fallback: fallback,
		client:   &http.Client{Timeout: 10 * time.Second},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// State returns the current state.
func (l *Loader) State() LoadState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Ready reports whether the library loaded from either source.
func (l *Loader) Ready() bool {
	return l.State() == StateReady
}

// Assets returns the source that loaded successfully.
func (l *Loader) Assets() (AssetSource, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active, l.state == StateReady
}

// Message returns the status line shown next to the map.
func (l *Loader) Message() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch l.state {
	case StateIdle, StateLoading:
		return "Loading map"
	case StateFallbackLoading:
		return "Loading map from backup source"
	case StateFailed:
		return "The map could not be loaded. Delivery pinning is unavailable, please choose self pickup."
	}
	return ""
}

// Load runs the state machine to completion. Concurrent callers wait for
// the in-flight load. A terminal failure returns ErrMapUnavailable.
func (l *Loader) Load(ctx context.Context) error {
	l.mu.Lock()
	switch {
	case l.state == StateReady:
		l.mu.Unlock()
		return nil
	case l.state == StateFailed && l.fallbackTried:
		l.mu.Unlock()
		return ErrMapUnavailable
	case l.done != nil:
		done := l.done
		l.mu.Unlock()
		select {
		case <-done:
			return l.Load(ctx)
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	l.done = make(chan struct{})
	if err := l.transition(StateLoading); err != nil {
		l.mu.Unlock()
		return err
	}
	l.mu.Unlock()

	err := l.probe(ctx, l.primary)

	l.mu.Lock()
	defer func() {
		close(l.done)
		l.done = nil
		l.mu.Unlock()
	}()

	if err == nil {
		l.active = l.primary
		return l.transition(StateReady)
	}
	l.logger.Warn("map library primary source failed",
		zap.String("source", l.primary.Name), zap.Error(err))
	if terr := l.transition(StateFailed); terr != nil {
		return terr
	}

	if l.fallback.ScriptURL == "" {
		l.fallbackTried = true
		return ErrMapUnavailable
	}
	if terr := l.transition(StateFallbackLoading); terr != nil {
		return terr
	}
	l.fallbackTried = true

	l.mu.Unlock()
	err = l.probe(ctx, l.fallback)
	l.mu.Lock()

	if err == nil {
		l.active = l.fallback
		return l.transition(StateReady)
	}
	l.logger.Error("map library fallback source failed",
		zap.String("source", l.fallback.Name), zap.Error(err))
	if terr := l.transition(StateFailed); terr != nil {
		return terr
	}
	return ErrMapUnavailable
}

// transition must be called with l.mu held.
func (l *Loader) transition(to LoadState) error {
	from := l.state
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			l.state = to
			l.logger.Debug("map loader state", zap.Stringer("from", from), zap.Stringer("to", to))
			if l.onChange != nil {
				l.onChange(from, to)
			}
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

// probe fetches the stylesheet and script of src in parallel.
func (l *Loader) probe(ctx context.Context, src AssetSource) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, u := range []string{src.StylesheetURL, src.ScriptURL} {
		if u == "" {
			continue
		}
		u := u
		g.Go(func() error {
			return l.fetch(ctx, u)
		})
	}
	return g.Wait()
}

func (l *Loader) fetch(ctx context.Context, u string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("fetching %s: status %d", u, resp.StatusCode)
	}
	return nil
}
