package model

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/atomic"

	"github.com/deltapad/go-deltapad/util/cerror"
)

const ErrCodeDocumentClosed = "document-closed"

// Document is the state deltas act on: a root element with a flat
// attribute map and a version that grows by one per applied
// transaction.
//
// The registry is injected at construction and shared between
// documents; the document itself owns no operation state.
type Document struct {
	id       string
	registry *Registry

	mu      sync.Mutex
	attrs   map[string]any
	version atomic.Int64
	closed  atomic.Bool
}

func NewDocument(registry *Registry) *Document {
	return NewDocumentWithId(uuid.New().String(), registry)
}

func NewDocumentWithId(id string, registry *Registry) *Document {
	return &Document{
		id:       id,
		registry: registry,
		attrs:    make(map[string]any),
	}
}

func (d *Document) Id() string {
	return d.id
}

func (d *Document) Version() int64 {
	return d.version.Load()
}

// NewTransaction starts a new editing session against this document
func (d *Document) NewTransaction() *Transaction {
	return newTransaction(d, d.registry)
}

// Attr returns the current value of a root attribute
func (d *Document) Attr(key string) (value any, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	value, ok = d.attrs[key]
	return
}

// Attrs returns a copy of the root attribute map
func (d *Document) Attrs() map[string]any {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[string]any, len(d.attrs))
	for k, v := range d.attrs {
		out[k] = v
	}
	return out
}

// ApplyTransaction applies the transaction's deltas to the document
// in log order and returns the inverse deltas in the same order.
// Deltas that do not implement Appliable are recorded but produce no
// state change and no inverse.
//
// On a mid-transaction failure the deltas applied before the failing
// one stay applied; the returned inverses cover exactly those.
func (d *Document) ApplyTransaction(tx *Transaction) (inverses []Delta, err error) {
	if d.closed.Load() {
		return nil, cerror.Newf(ErrCodeDocumentClosed, "document '%s' is closed", d.id)
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, delta := range tx.deltas {
		ad, ok := delta.(Appliable)
		if !ok {
			continue
		}
		inverse, aerr := ad.Apply(d)
		if aerr != nil {
			return inverses, aerr
		}
		if inverse != nil {
			inverses = append(inverses, inverse)
		}
	}
	if len(tx.deltas) > 0 {
		d.version.Inc()
	}
	return inverses, nil
}

// Close releases the document, further transactions cannot be applied to it
func (d *Document) Close() error {
	d.closed.Store(true)
	return nil
}

// unexported accessors used by Appliable deltas, called with d.mu held

func (d *Document) getAttr(key string) (value any, ok bool) {
	value, ok = d.attrs[key]
	return
}

func (d *Document) setAttr(key string, value any) {
	d.attrs[key] = value
}

func (d *Document) removeAttr(key string) {
	delete(d.attrs, key)
}
