package binder

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// State is the observable view state of one screen section
type State[T any] struct {
	Loading bool   `json:"loading"`
	Loaded  bool   `json:"loaded"`
	Data    T      `json:"data"`
	Err     string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// Binder holds a State, fills it from asynchronous fetches and notifies
// observers after every change. Changes are applied on the Loop.
//
// Work runs in lanes: a new Run on a lane supersedes the previous one on the
// same lane. Once Unmount is called every pending result is dropped instead
// of being applied to a screen no longer shown.
type Binder[T any] struct {
	name      string
	loop      *Loop
	logger    *zap.Logger
	errorText func(error) string

	mu          sync.RWMutex
	state       State[T]
	observers   map[int]func(State[T])
	nextObs     int
	generations map[string]uint64
	cancels     map[string]context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc
	unmounted   bool
}

// New creates a Binder whose mutations run on loop
func New[T any](name string, loop *Loop, logger *zap.Logger) *Binder[T] {
	ctx, cancel := context.WithCancel(context.Background())
	return &Binder[T]{
		name:        name,
		loop:        loop,
		logger:      logger.With(zap.String("binder", name)),
		errorText:   func(err error) string { return err.Error() },
		observers:   make(map[int]func(State[T])),
		generations: make(map[string]uint64),
		cancels:     make(map[string]context.CancelFunc),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// WithErrorText sets how a failed Load is turned into State.Err
func (b *Binder[T]) WithErrorText(fn func(error) string) *Binder[T] {
	b.errorText = fn
	return b
}

// Snapshot returns the current state
func (b *Binder[T]) Snapshot() State[T] {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// Observe registers fn to run on the loop after every change and returns a
// function that removes it. fn must not call Mutate.
func (b *Binder[T]) Observe(fn func(State[T])) func() {
	b.mu.Lock()
	id := b.nextObs
	b.nextObs++
	b.observers[id] = fn
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		delete(b.observers, id)
		b.mu.Unlock()
	}
}

// Observable is anything that reports state changes
type Observable interface {
	OnChange(fn func()) func()
}

// OnChange registers fn to run on the loop after every change, without the
// state. It returns a function that removes fn.
func (b *Binder[T]) OnChange(fn func()) func() {
	return b.Observe(func(State[T]) { fn() })
}

// ObserveAll registers fn with every source and returns a function that
// removes it from all of them
func ObserveAll(fn func(), sources ...Observable) func() {
	stops := make([]func(), 0, len(sources))
	for _, src := range sources {
		stops = append(stops, src.OnChange(fn))
	}
	return func() {
		for _, stop := range stops {
			stop()
		}
	}
}

// LoadLane is the lane used by Load
const LoadLane = "load"

// Load starts fetch in the background and stores its result as Data. A failed
// fetch keeps the previous Data, clears Loaded and sets Err. then, when not
// nil, runs on the loop right after the result is stored. The returned
// channel is closed once the result has been applied or dropped.
func (b *Binder[T]) Load(fetch func(ctx context.Context) (T, error), then func(*State[T], error)) <-chan struct{} {
	return Run(b, LoadLane, fetch, func(s *State[T], value T, err error) {
		if err != nil {
			s.Loaded = false
			s.Err = b.errorText(err)
		} else {
			s.Data = value
			s.Loaded = true
			s.Err = ""
		}
		if then != nil {
			then(s, err)
		}
	})
}

// Run starts fetch in the background on lane and hands its outcome to apply
// on the loop. Loading stays set while any lane is in flight. The returned
// channel is closed once apply has run or the result has been dropped.
func Run[T, R any](b *Binder[T], lane string, fetch func(ctx context.Context) (R, error), apply func(s *State[T], value R, err error)) <-chan struct{} {
	done := make(chan struct{})

	b.mu.Lock()
	if b.unmounted {
		b.mu.Unlock()
		close(done)
		return done
	}
	if cancel, ok := b.cancels[lane]; ok {
		cancel()
	}
	ctx, cancel := context.WithCancel(b.ctx)
	b.cancels[lane] = cancel
	b.generations[lane]++
	generation := b.generations[lane]
	b.mu.Unlock()

	if err := b.post(func(s *State[T]) {
		s.Loading = true
		s.Err = ""
	}); err != nil {
		cancel()
		close(done)
		return done
	}

	task := Go(ctx, fetch)
	go func() {
		defer cancel()
		<-task.Done()
		value, err := task.value, task.err
		postErr := b.loop.Post(func() {
			defer close(done)
			b.mu.Lock()
			if b.unmounted || generation != b.generations[lane] {
				b.mu.Unlock()
				b.logger.Debug("dropped stale result", zap.String("lane", lane), zap.Uint64("generation", generation))
				return
			}
			delete(b.cancels, lane)
			b.state.Loading = len(b.cancels) > 0
			if err != nil {
				b.logger.Warn("fetch failed", zap.String("lane", lane), zap.Error(err))
			}
			apply(&b.state, value, err)
			snap := b.state
			b.mu.Unlock()
			b.notify(snap)
		})
		if postErr != nil {
			close(done)
		}
	}()
	return done
}

// Mutate applies fn to the state on the loop and waits for it. Use it for
// optimistic local updates and status messages.
func (b *Binder[T]) Mutate(fn func(*State[T])) error {
	var result error
	err := b.loop.Do(func() {
		result = b.apply(fn)
	})
	if err != nil {
		return err
	}
	return result
}

// Unmount cancels in-flight loads and stops accepting results
func (b *Binder[T]) Unmount() {
	b.mu.Lock()
	b.unmounted = true
	b.observers = make(map[int]func(State[T]))
	b.cancels = make(map[string]context.CancelFunc)
	b.mu.Unlock()
	b.cancel()
}

// Unmounted reports whether Unmount has been called
func (b *Binder[T]) Unmounted() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.unmounted
}

func (b *Binder[T]) post(fn func(*State[T])) error {
	return b.loop.Post(func() {
		_ = b.apply(fn)
	})
}

// apply runs on the loop
func (b *Binder[T]) apply(fn func(*State[T])) error {
	b.mu.Lock()
	if b.unmounted {
		b.mu.Unlock()
		return ErrUnmounted
	}
	fn(&b.state)
	snap := b.state
	b.mu.Unlock()
	b.notify(snap)
	return nil
}

func (b *Binder[T]) notify(snap State[T]) {
	b.mu.RLock()
	observers := make([]func(State[T]), 0, len(b.observers))
	for _, fn := range b.observers {
		observers = append(observers, fn)
	}
	b.mu.RUnlock()
	for _, fn := range observers {
		fn(snap)
	}
}
