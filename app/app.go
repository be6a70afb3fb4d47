package app

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/deltapad/go-deltapad/app/logger"
)

var log = logger.NewNamed("app")

// Component is a minimal interface for a common app.Component
type Component interface {
	// Init will be called first
	// When returned error is not nil - app start will be aborted
	Init(a *App) (err error)
	// Name must return unique service name
	Name() (name string)
}

// ComponentRunnable is an interface for components that start background
// processes or need a deeper configuration stage
type ComponentRunnable interface {
	Component
	// Run will be called after the init stage
	// Non-nil error will also abort app start
	Run(ctx context.Context) (err error)
	// Close will be called when the app is shutting down
	// It is also called when a component returns an error on Init or Run
	Close(ctx context.Context) (err error)
}

// App is the central part of the application
// It contains and manages all components
type App struct {
	components []Component
	mu         sync.RWMutex
}

// New creates a new app
func New() *App {
	return &App{}
}

// Register adds a component to the registry
// All components will be started in the order they were registered
func (app *App) Register(s Component) *App {
	app.mu.Lock()
	defer app.mu.Unlock()
	for _, es := range app.components {
		if s.Name() == es.Name() {
			panic(fmt.Errorf("component '%s' already registered", s.Name()))
		}
	}
	app.components = append(app.components, s)
	return app
}

// Component returns a component by name
// If the component wasn't registered, nil will be returned
func (app *App) Component(name string) Component {
	app.mu.RLock()
	defer app.mu.RUnlock()
	for _, s := range app.components {
		if s.Name() == name {
			return s
		}
	}
	return nil
}

// MustComponent is like Component, but it will panic if the component wasn't found
func (app *App) MustComponent(name string) Component {
	s := app.Component(name)
	if s == nil {
		panic(fmt.Errorf("component '%s' not registered", name))
	}
	return s
}

// ComponentNames returns all registered names
func (app *App) ComponentNames() (names []string) {
	app.mu.RLock()
	defer app.mu.RUnlock()
	names = make([]string, len(app.components))
	for i, c := range app.components {
		names[i] = c.Name()
	}
	return
}

// Start initializes all components then runs the runnable ones
// On any error the already-started components are closed in reverse order
func (app *App) Start(ctx context.Context) (err error) {
	app.mu.RLock()
	defer app.mu.RUnlock()

	closeServices := func(idx int) {
		for i := idx; i >= 0; i-- {
			if serviceClose, ok := app.components[i].(ComponentRunnable); ok {
				if e := serviceClose.Close(ctx); e != nil {
					log.Info("close error", zap.String("component", serviceClose.Name()), zap.Error(e))
				}
			}
		}
	}

	for i, s := range app.components {
		if err = s.Init(app); err != nil {
			closeServices(i)
			return fmt.Errorf("can't init service '%s': %w", s.Name(), err)
		}
	}

	for i, s := range app.components {
		if serviceRun, ok := s.(ComponentRunnable); ok {
			if err = serviceRun.Run(ctx); err != nil {
				closeServices(i)
				return fmt.Errorf("can't run service '%s': %w", serviceRun.Name(), err)
			}
		}
	}
	log.Debug("all components started")
	return
}

// Close stops the application
// All components with ComponentRunnable implementation will be closed in reverse order
func (app *App) Close(ctx context.Context) error {
	log.Debug("close components...")
	app.mu.RLock()
	defer app.mu.RUnlock()

	var errs []error
	for i := len(app.components) - 1; i >= 0; i-- {
		if serviceClose, ok := app.components[i].(ComponentRunnable); ok {
			if e := serviceClose.Close(ctx); e != nil {
				log.Info("close error", zap.String("component", serviceClose.Name()), zap.Error(e))
				errs = append(errs, fmt.Errorf("close '%s': %w", serviceClose.Name(), e))
			}
		}
	}
	if len(errs) > 0 {
		return errs[0]
	}
	log.Debug("all components closed")
	return nil
}
