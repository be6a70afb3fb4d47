package document

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deltapad/go-deltapad/app"
	"github.com/deltapad/go-deltapad/app/ocache"
	"github.com/deltapad/go-deltapad/metric"
	"github.com/deltapad/go-deltapad/model"
	"github.com/deltapad/go-deltapad/service/stream"
	"github.com/deltapad/go-deltapad/util/cerror"
)

type testConfig struct{}

func (c *testConfig) Init(a *app.App) error { return nil }

func (c *testConfig) Name() string { return "config" }

func (c *testConfig) GetStream() stream.Config { return stream.Config{} }

func (c *testConfig) GetMetric() metric.Config { return metric.Config{} }

type fixture struct {
	svc    Service
	stream stream.Service
	a      *app.App
}

func newFixture(t *testing.T) *fixture {
	fx := &fixture{
		svc:    New(),
		stream: stream.New(),
		a:      app.New(),
	}
	fx.a.Register(&testConfig{}).
		Register(metric.New()).
		Register(fx.stream).
		Register(fx.svc)
	require.NoError(t, fx.a.Start(context.Background()))
	t.Cleanup(func() {
		require.NoError(t, fx.a.Close(context.Background()))
	})
	return fx
}

func TestService_Documents(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	doc, err := fx.svc.CreateDocument(ctx)
	require.NoError(t, err)

	t.Run("get returns the created document", func(t *testing.T) {
		got, err := fx.svc.GetDocument(ctx, doc.Id())
		require.NoError(t, err)
		assert.Same(t, doc, got)
	})
	t.Run("unknown id", func(t *testing.T) {
		_, err := fx.svc.GetDocument(ctx, "missing")
		assert.ErrorIs(t, err, ocache.ErrNotExists)
	})
	t.Run("close removes the document", func(t *testing.T) {
		other, err := fx.svc.CreateDocument(ctx)
		require.NoError(t, err)
		require.NoError(t, fx.svc.CloseDocument(ctx, other.Id()))
		_, err = fx.svc.GetDocument(ctx, other.Id())
		assert.ErrorIs(t, err, ocache.ErrNotExists)
	})
}

func TestService_RegisterOperation(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	require.NoError(t, fx.svc.RegisterOperation("setTitle", func(tx *model.Transaction, args ...any) error {
		return tx.Apply(model.OpSetAttr, "title", args[0])
	}))

	t.Run("duplicate name", func(t *testing.T) {
		err := fx.svc.RegisterOperation("setTitle", func(tx *model.Transaction, args ...any) error {
			return nil
		})
		require.Error(t, err)
		assert.Equal(t, model.ErrCodeRegisterTaken, cerror.Code(err))
	})
	t.Run("registered operation is invocable", func(t *testing.T) {
		doc, err := fx.svc.CreateDocument(ctx)
		require.NoError(t, err)
		tx, err := fx.svc.NewTransaction(ctx, doc.Id())
		require.NoError(t, err)
		require.NoError(t, fx.svc.Invoke(ctx, tx, "setTitle", "hello"))
		require.NoError(t, fx.svc.Commit(ctx, tx))

		v, ok := doc.Attr("title")
		require.True(t, ok)
		assert.Equal(t, "hello", v)
	})
	t.Run("undefined operation", func(t *testing.T) {
		doc, err := fx.svc.CreateDocument(ctx)
		require.NoError(t, err)
		tx, err := fx.svc.NewTransaction(ctx, doc.Id())
		require.NoError(t, err)
		err = fx.svc.Invoke(ctx, tx, "neverRegistered")
		require.Error(t, err)
		assert.Equal(t, model.ErrCodeOperationUndefined, cerror.Code(err))
	})
}

func TestService_Commit(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	sub := fx.stream.Subscribe()
	defer sub.Close()

	doc, err := fx.svc.CreateDocument(ctx)
	require.NoError(t, err)
	tx, err := fx.svc.NewTransaction(ctx, doc.Id())
	require.NoError(t, err)
	require.NoError(t, fx.svc.Invoke(ctx, tx, model.OpSetAttr, "title", "hello"))
	require.NoError(t, fx.svc.Commit(ctx, tx))

	waitCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	ev, err := sub.WaitOne(waitCtx)
	require.NoError(t, err)
	assert.Equal(t, doc.Id(), ev.DocId)
	assert.Equal(t, tx.Id(), ev.TxId)
	assert.EqualValues(t, 1, ev.Version)
	require.Len(t, ev.Deltas, 1)
	require.Len(t, ev.Inverses, 1)

	t.Run("empty transaction publishes nothing", func(t *testing.T) {
		empty, err := fx.svc.NewTransaction(ctx, doc.Id())
		require.NoError(t, err)
		require.NoError(t, fx.svc.Commit(ctx, empty))

		shortCtx, shortCancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer shortCancel()
		_, err = sub.WaitOne(shortCtx)
		assert.Error(t, err)
	})
}
