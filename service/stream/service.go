package stream

import (
	"context"
	"errors"
	"sync"

	"github.com/cheggaaa/mb/v3"
	"go.uber.org/zap"

	"github.com/deltapad/go-deltapad/app"
	"github.com/deltapad/go-deltapad/app/logger"
	"github.com/deltapad/go-deltapad/model"
)

const CName = "stream.service"

const defaultQueueSize = 100

var log = logger.NewNamed(CName)

type Config struct {
	QueueSize int `yaml:"queueSize"`
}

type configSource interface {
	GetStream() Config
}

// DeltaEvent is published once per committed transaction and carries
// the applied deltas together with their inverses, both in
// application order
type DeltaEvent struct {
	DocId    string
	TxId     string
	Version  int64
	Deltas   []model.Delta
	Inverses []model.Delta
}

type Service interface {
	// Publish fans the event out to all current subscribers.
	// A subscriber with a full queue misses the event.
	Publish(ev DeltaEvent)
	Subscribe() *Subscription
	app.ComponentRunnable
}

func New() Service {
	return new(service)
}

type service struct {
	queueSize int

	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	closed bool
}

func (s *service) Init(a *app.App) (err error) {
	s.subs = make(map[*Subscription]struct{})
	s.queueSize = a.MustComponent("config").(configSource).GetStream().QueueSize
	if s.queueSize <= 0 {
		s.queueSize = defaultQueueSize
	}
	return nil
}

func (s *service) Name() string {
	return CName
}

func (s *service) Run(ctx context.Context) error {
	return nil
}

func (s *service) Publish(ev DeltaEvent) {
	s.mu.Lock()
	subs := make([]*Subscription, 0, len(s.subs))
	for sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()
	for _, sub := range subs {
		if err := sub.q.TryAdd(ev); err != nil {
			if errors.Is(err, mb.ErrOverflowed) {
				log.Warn("subscriber queue full, event dropped",
					zap.String("docId", ev.DocId), zap.String("txId", ev.TxId))
				continue
			}
			// queue closed, subscriber is on its way out
		}
	}
}

func (s *service) Subscribe() *Subscription {
	sub := &Subscription{
		q:   mb.New[DeltaEvent](s.queueSize),
		svc: s,
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = sub.q.Close()
		return sub
	}
	s.subs[sub] = struct{}{}
	s.mu.Unlock()
	return sub
}

func (s *service) unsubscribe(sub *Subscription) {
	s.mu.Lock()
	delete(s.subs, sub)
	s.mu.Unlock()
}

func (s *service) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	subs := make([]*Subscription, 0, len(s.subs))
	for sub := range s.subs {
		subs = append(subs, sub)
	}
	s.subs = map[*Subscription]struct{}{}
	s.mu.Unlock()
	for _, sub := range subs {
		_ = sub.q.Close()
	}
	return nil
}

// Subscription is a private queue of committed-transaction events
type Subscription struct {
	q   *mb.MB[DeltaEvent]
	svc *service
}

// WaitOne blocks until the next event, ctx cancellation or queue close
func (s *Subscription) WaitOne(ctx context.Context) (DeltaEvent, error) {
	return s.q.WaitOne(ctx)
}

func (s *Subscription) Close() error {
	s.svc.unsubscribe(s)
	return s.q.Close()
}
