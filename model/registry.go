package model

import (
	"sort"
	"sync"

	"github.com/deltapad/go-deltapad/app/logger"
	"github.com/deltapad/go-deltapad/util/cerror"
	"go.uber.org/zap"
)

// Error codes raised by the operation registry
const (
	ErrCodeRegisterTaken      = "transaction-register-taken"
	ErrCodeRegisterEmpty      = "transaction-register-empty"
	ErrCodeOperationUndefined = "transaction-operation-undefined"
	ErrCodeOperationArguments = "transaction-operation-arguments"
)

var log = logger.NewNamed("model")

// Handler is the logic behind a registered operation. It is invoked
// with the transaction it was called on as the explicit receiver and
// typically appends one or more deltas to it. Appending zero deltas
// is legal.
type Handler func(tx *Transaction, args ...any) error

// Registry maps operation names to handlers. One registry is shared
// by all documents and transactions; a name registered here becomes
// invocable on every transaction, including ones created earlier.
//
// Registration is one-way: there is no unregister, and re-registering
// a taken name always fails, never silently overwrites.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates a registry with the built-in operations
// (setAttr, removeAttr) already registered.
func NewRegistry() *Registry {
	r := &Registry{
		handlers: make(map[string]Handler),
	}
	registerBuiltins(r)
	return r
}

// Register binds name to h. The name must be non-empty and not taken;
// on conflict the registry is left unchanged and the returned error
// carries the "transaction-register-taken" code.
func (r *Registry) Register(name string, h Handler) error {
	if name == "" {
		return cerror.New(ErrCodeRegisterEmpty, "operation name must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[name]; exists {
		return cerror.Newf(ErrCodeRegisterTaken, "operation '%s' is already registered", name).
			WithData(map[string]any{"name": name})
	}
	r.handlers[name] = h
	log.Debug("operation registered", zap.String("name", name))
	return nil
}

// Has reports whether name is registered
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handlers[name]
	return ok
}

// Operations returns the sorted names of all registered operations
func (r *Registry) Operations() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) handler(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[name]
	return h, ok
}
