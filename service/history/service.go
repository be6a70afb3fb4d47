package history

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/deltapad/go-deltapad/app"
	"github.com/deltapad/go-deltapad/app/logger"
	"github.com/deltapad/go-deltapad/model"
	"github.com/deltapad/go-deltapad/service/document"
	"github.com/deltapad/go-deltapad/service/stream"
)

const CName = "history.service"

const defaultLimit = 100

var ErrNothingToUndo = errors.New("nothing to undo")

var log = logger.NewNamed(CName)

type Config struct {
	// Limit bounds the undo depth kept per document
	Limit int `yaml:"limit"`
}

type configSource interface {
	GetHistory() Config
}

// Service keeps a bounded per-document undo stack, fed by the
// committed-delta stream, and can roll the latest committed
// transaction back by committing its inverses.
type Service interface {
	// Undo reverts the most recent committed transaction of the document
	Undo(ctx context.Context, docId string) error
	// Depth returns the current undo depth for the document
	Depth(docId string) int
	app.ComponentRunnable
}

func New() Service {
	return new(service)
}

type record struct {
	txId     string
	inverses []model.Delta
}

type service struct {
	limit     int
	documents document.Service
	stream    stream.Service

	mu     sync.Mutex
	stacks map[string][]record
	ownTxs map[string]struct{}

	sub  *stream.Subscription
	done chan struct{}
}

func (s *service) Init(a *app.App) (err error) {
	s.stacks = make(map[string][]record)
	s.ownTxs = make(map[string]struct{})
	s.limit = a.MustComponent("config").(configSource).GetHistory().Limit
	if s.limit <= 0 {
		s.limit = defaultLimit
	}
	s.documents = a.MustComponent(document.CName).(document.Service)
	s.stream = a.MustComponent(stream.CName).(stream.Service)
	return nil
}

func (s *service) Name() string {
	return CName
}

func (s *service) Run(ctx context.Context) error {
	s.sub = s.stream.Subscribe()
	s.done = make(chan struct{})
	go s.readStream()
	return nil
}

func (s *service) Close(ctx context.Context) error {
	if s.sub == nil {
		return nil
	}
	_ = s.sub.Close()
	select {
	case <-s.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func (s *service) readStream() {
	defer close(s.done)
	for {
		ev, err := s.sub.WaitOne(context.Background())
		if err != nil {
			// queue closed, shutting down
			return
		}
		s.push(ev)
	}
}

func (s *service) push(ev stream.DeltaEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// transactions committed by Undo itself do not land on the stack,
	// otherwise every undo would become undoable again
	if _, own := s.ownTxs[ev.TxId]; own {
		delete(s.ownTxs, ev.TxId)
		return
	}
	if len(ev.Inverses) == 0 {
		return
	}
	stack := append(s.stacks[ev.DocId], record{txId: ev.TxId, inverses: ev.Inverses})
	if len(stack) > s.limit {
		stack = stack[len(stack)-s.limit:]
	}
	s.stacks[ev.DocId] = stack
}

func (s *service) pop(docId string) (record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stack := s.stacks[docId]
	if len(stack) == 0 {
		return record{}, false
	}
	rec := stack[len(stack)-1]
	s.stacks[docId] = stack[:len(stack)-1]
	return rec, true
}

func (s *service) Undo(ctx context.Context, docId string) error {
	rec, ok := s.pop(docId)
	if !ok {
		return ErrNothingToUndo
	}
	doc, err := s.documents.GetDocument(ctx, docId)
	if err != nil {
		return err
	}
	tx := doc.NewTransaction()
	// inverses are applied in reverse to walk the state back
	for i := len(rec.inverses) - 1; i >= 0; i-- {
		tx.AddDelta(rec.inverses[i])
	}
	s.mu.Lock()
	s.ownTxs[tx.Id()] = struct{}{}
	s.mu.Unlock()
	if err = s.documents.Commit(ctx, tx); err != nil {
		return err
	}
	log.DebugCtx(ctx, "transaction undone",
		zap.String("docId", docId), zap.String("undoneTxId", rec.txId))
	return nil
}

func (s *service) Depth(docId string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.stacks[docId])
}
