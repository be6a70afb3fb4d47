package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppServiceRegistry(t *testing.T) {
	app := New()
	t.Run("Register", func(t *testing.T) {
		app.Register(newTestComponent("c1", nil))
		app.Register(newTestRunnable("r1", nil, nil, nil))
		app.Register(newTestComponent("s1", nil))
	})
	t.Run("Component", func(t *testing.T) {
		assert.Nil(t, app.Component("not-registered"))
		for _, name := range []string{"c1", "r1", "s1"} {
			s := app.Component(name)
			require.NotNil(t, s, name)
			assert.Equal(t, name, s.Name())
		}
	})
	t.Run("MustComponent", func(t *testing.T) {
		for _, name := range []string{"c1", "r1", "s1"} {
			assert.NotPanics(t, func() { app.MustComponent(name) }, name)
		}
		assert.Panics(t, func() { app.MustComponent("not-registered") })
	})
	t.Run("ComponentNames", func(t *testing.T) {
		assert.Equal(t, []string{"c1", "r1", "s1"}, app.ComponentNames())
	})
	t.Run("Duplicate name panics", func(t *testing.T) {
		assert.Panics(t, func() { app.Register(newTestComponent("c1", nil)) })
	})
}

func TestAppStart(t *testing.T) {
	ctx := context.Background()
	t.Run("init and run order", func(t *testing.T) {
		app := New()
		var order []string
		app.Register(newTestComponent("c1", func() { order = append(order, "init:c1") }))
		app.Register(newTestRunnable("r1",
			func() { order = append(order, "init:r1") },
			func() { order = append(order, "run:r1") },
			func() { order = append(order, "close:r1") },
		))
		require.NoError(t, app.Start(ctx))
		require.NoError(t, app.Close(ctx))
		assert.Equal(t, []string{"init:c1", "init:r1", "run:r1", "close:r1"}, order)
	})
	t.Run("init error aborts start", func(t *testing.T) {
		app := New()
		initErr := errors.New("init failed")
		app.Register(newTestComponent("bad", nil).withInitErr(initErr))
		err := app.Start(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, initErr)
	})
	t.Run("run error closes started components", func(t *testing.T) {
		app := New()
		var closed bool
		app.Register(newTestRunnable("r1", nil, nil, func() { closed = true }))
		runErr := errors.New("run failed")
		bad := newTestRunnable("bad", nil, nil, nil)
		bad.runErr = runErr
		app.Register(bad)
		err := app.Start(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, runErr)
		assert.True(t, closed)
	})
}

type testComponent struct {
	name    string
	onInit  func()
	initErr error
}

func newTestComponent(name string, onInit func()) *testComponent {
	return &testComponent{name: name, onInit: onInit}
}

func (t *testComponent) withInitErr(err error) *testComponent {
	t.initErr = err
	return t
}

func (t *testComponent) Init(a *App) error {
	if t.onInit != nil {
		t.onInit()
	}
	return t.initErr
}

func (t *testComponent) Name() string { return t.name }

type testRunnable struct {
	testComponent
	onRun    func()
	onClose  func()
	runErr   error
	closeErr error
}

func newTestRunnable(name string, onInit, onRun, onClose func()) *testRunnable {
	return &testRunnable{
		testComponent: testComponent{name: name, onInit: onInit},
		onRun:         onRun,
		onClose:       onClose,
	}
}

func (t *testRunnable) Run(ctx context.Context) error {
	if t.onRun != nil {
		t.onRun()
	}
	return t.runErr
}

func (t *testRunnable) Close(ctx context.Context) error {
	if t.onClose != nil {
		t.onClose()
	}
	return t.closeErr
}
