package event

import (
	"context"
	"crypto/rand"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
)

// Handler receives dispatched events.
type Handler func(ctx context.Context, evt Event) error

// Bus is a synchronous topic-to-handler dispatcher.
type Bus struct {
	mu     sync.RWMutex
	subs   map[Topic][]subscription
	nextID uint64
	closed atomic.Bool

	idMu    sync.Mutex
	entropy io.Reader

	now     func() time.Time
	onError func(error)
	logger  *slog.Logger
}

type subscription struct {
	id      uint64
	handler Handler
}

// Option configures a Bus.
type Option func(*Bus)

// WithErrorHandler is called with a *HandlerError for every failed handler.
func WithErrorHandler(fn func(error)) Option {
	return func(b *Bus) { b.onError = fn }
}

// WithLogger logs failed handlers at warn level.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bus) { b.logger = l }
}

// WithClock sets the time source for event timestamps and ids.
func WithClock(now func() time.Time) Option {
	return func(b *Bus) {
		if now != nil {
			b.now = now
		}
	}
}

// NewBus creates an empty bus.
func NewBus(opts ...Option) *Bus {
	b := &Bus{
		subs:    make(map[Topic][]subscription),
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers h for topic and returns a function that removes it.
func (b *Bus) Subscribe(topic Topic, h Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs[topic] = append(b.subs[topic], subscription{id: id, handler: h})

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(topic, id) })
	}
}

func (b *Bus) remove(topic Topic, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[topic]
	for i, s := range subs {
		if s.id == id {
			b.subs[topic] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// Handle subscribes a typed handler to the topic of payload type T.
func Handle[T Payload](b *Bus, h func(ctx context.Context, p T) error) (unsubscribe func()) {
	var zero T
	return b.Subscribe(zero.Topic(), func(ctx context.Context, evt Event) error {
		p, ok := evt.Payload.(T)
		if !ok {
			return nil
		}
		return h(ctx, p)
	})
}

// Publish dispatches p to every handler subscribed to its topic when
// Publish is called, in subscription order, on the calling goroutine.
// Handler errors and panics go to the error handler and never stop later
// handlers. The returned error is non-nil only when the bus is closed.
func (b *Bus) Publish(ctx context.Context, p Payload) (Event, error) {
	now := b.now()
	evt := Event{
		ID:      b.newID(now),
		Topic:   p.Topic(),
		Payload: p,
		Time:    now,
	}
	if b.closed.Load() {
		return evt, ErrBusClosed
	}

	b.mu.RLock()
	subs := append([]subscription(nil), b.subs[evt.Topic]...)
	b.mu.RUnlock()

	for i, s := range subs {
		if err := invoke(ctx, s.handler, evt); err != nil {
			b.report(&HandlerError{Event: evt, Index: i, Err: err})
		}
	}
	return evt, nil
}

// Subscribers returns how many handlers are subscribed to topic.
func (b *Bus) Subscribers(topic Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}

// Close drops every subscription. Later publishes return ErrBusClosed.
func (b *Bus) Close() {
	if !b.closed.CompareAndSwap(false, true) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = make(map[Topic][]subscription)
}

func (b *Bus) newID(t time.Time) string {
	b.idMu.Lock()
	defer b.idMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), b.entropy).String()
}

func (b *Bus) report(err *HandlerError) {
	if b.logger != nil {
		b.logger.Warn("event handler failed",
			slog.String("event_id", err.Event.ID),
			slog.String("topic", string(err.Event.Topic)),
			slog.String("error", err.Err.Error()),
		)
	}
	if b.onError != nil {
		b.onError(err)
	}
}

func invoke(ctx context.Context, h Handler, evt Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()
	return h(ctx, evt)
}
