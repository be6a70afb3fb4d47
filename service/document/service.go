package document

import (
	"context"

	"go.uber.org/zap"

	"github.com/deltapad/go-deltapad/app"
	"github.com/deltapad/go-deltapad/app/logger"
	"github.com/deltapad/go-deltapad/app/ocache"
	"github.com/deltapad/go-deltapad/metric"
	"github.com/deltapad/go-deltapad/model"
	"github.com/deltapad/go-deltapad/service/stream"
)

const CName = "document.service"

var log = logger.NewNamed(CName)

// Service owns the process-wide operation registry and the set of
// open documents. The registry is created at Init, before any
// document or transaction exists, with the built-in operations
// already in place; embedders extend it through RegisterOperation.
type Service interface {
	// RegisterOperation makes name invocable on every transaction,
	// existing and future ones
	RegisterOperation(name string, h model.Handler) error
	Registry() *model.Registry

	CreateDocument(ctx context.Context) (*model.Document, error)
	GetDocument(ctx context.Context, id string) (*model.Document, error)
	CloseDocument(ctx context.Context, id string) error

	NewTransaction(ctx context.Context, docId string) (*model.Transaction, error)
	// Invoke dispatches a registered operation on tx, forwarding args
	Invoke(ctx context.Context, tx *model.Transaction, name string, args ...any) error
	// Commit applies the transaction to its document and publishes
	// the resulting delta event
	Commit(ctx context.Context, tx *model.Transaction) error

	app.ComponentRunnable
}

func New() Service {
	return new(service)
}

type service struct {
	registry *model.Registry
	docs     ocache.OCache
	stream   stream.Service
	metric   metric.Metric
}

func (s *service) Init(a *app.App) (err error) {
	s.registry = model.NewRegistry()
	s.docs = ocache.New()
	s.stream = a.MustComponent(stream.CName).(stream.Service)
	// metrics are optional, the service works without the component
	if m := a.Component(metric.CName); m != nil {
		s.metric = m.(metric.Metric)
	}
	return nil
}

func (s *service) Name() string {
	return CName
}

func (s *service) Run(ctx context.Context) error {
	return nil
}

func (s *service) Close(ctx context.Context) error {
	return s.docs.Close()
}

func (s *service) RegisterOperation(name string, h model.Handler) error {
	if err := s.registry.Register(name, h); err != nil {
		return err
	}
	if s.metric != nil {
		s.metric.OperationRegistered()
	}
	return nil
}

func (s *service) Registry() *model.Registry {
	return s.registry
}

func (s *service) CreateDocument(ctx context.Context) (*model.Document, error) {
	doc := model.NewDocument(s.registry)
	if err := s.docs.Add(doc.Id(), doc); err != nil {
		return nil, err
	}
	log.DebugCtx(ctx, "document created", zap.String("docId", doc.Id()))
	return doc, nil
}

func (s *service) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	obj, err := s.docs.Get(id)
	if err != nil {
		return nil, err
	}
	return obj.(*model.Document), nil
}

func (s *service) CloseDocument(ctx context.Context, id string) error {
	ok, err := s.docs.Remove(id)
	if err != nil {
		return err
	}
	if !ok {
		return ocache.ErrNotExists
	}
	log.DebugCtx(ctx, "document closed", zap.String("docId", id))
	return nil
}

func (s *service) NewTransaction(ctx context.Context, docId string) (*model.Transaction, error) {
	doc, err := s.GetDocument(ctx, docId)
	if err != nil {
		return nil, err
	}
	return doc.NewTransaction(), nil
}

func (s *service) Invoke(ctx context.Context, tx *model.Transaction, name string, args ...any) (err error) {
	err = tx.Apply(name, args...)
	if s.metric != nil {
		s.metric.Dispatch(name, err)
	}
	if err != nil {
		log.WarnCtx(ctx, "operation dispatch failed",
			zap.String("op", name), zap.String("txId", tx.Id()), zap.Error(err))
	}
	return err
}

func (s *service) Commit(ctx context.Context, tx *model.Transaction) error {
	doc := tx.Document()
	inverses, err := doc.ApplyTransaction(tx)
	if err != nil {
		log.ErrorCtx(ctx, "transaction apply failed",
			zap.String("docId", doc.Id()), zap.String("txId", tx.Id()), zap.Error(err))
		return err
	}
	if s.metric != nil {
		s.metric.TransactionCommitted(tx.Len())
	}
	if tx.Len() > 0 {
		s.stream.Publish(stream.DeltaEvent{
			DocId:    doc.Id(),
			TxId:     tx.Id(),
			Version:  doc.Version(),
			Deltas:   tx.Deltas(),
			Inverses: inverses,
		})
	}
	log.DebugCtx(ctx, "transaction committed",
		zap.String("docId", doc.Id()), zap.String("txId", tx.Id()), zap.Int("deltas", tx.Len()))
	return nil
}
