package model

import (
	"github.com/deltapad/go-deltapad/util/cerror"
	"github.com/google/uuid"
)

// Transaction is a mutable editing session against a single document.
// It accumulates deltas in application order; the log is append-only
// for the transaction's whole life.
//
// A transaction is not safe for concurrent use.
type Transaction struct {
	id       string
	doc      *Document
	registry *Registry
	deltas   []Delta
}

func newTransaction(doc *Document, registry *Registry) *Transaction {
	return &Transaction{
		id:       uuid.New().String(),
		doc:      doc,
		registry: registry,
	}
}

func (tx *Transaction) Id() string {
	return tx.id
}

// Document returns the document this transaction was created from
func (tx *Transaction) Document() *Document {
	return tx.doc
}

// AddDelta appends d to the transaction's delta log, preserving call order
func (tx *Transaction) AddDelta(d Delta) {
	tx.deltas = append(tx.deltas, d)
}

// Deltas returns the accumulated deltas in application order.
// The returned slice is a copy, mutating it does not affect the transaction.
func (tx *Transaction) Deltas() []Delta {
	out := make([]Delta, len(tx.deltas))
	copy(out, tx.deltas)
	return out
}

func (tx *Transaction) Len() int {
	return len(tx.deltas)
}

// Apply invokes the operation registered under name with this
// transaction as the receiver, forwarding args to the handler.
//
// An unknown name fails with the "transaction-operation-undefined"
// code. When the handler fails after appending some deltas, the
// appended deltas remain attached: there is no rollback at this layer.
func (tx *Transaction) Apply(name string, args ...any) error {
	h, ok := tx.registry.handler(name)
	if !ok {
		return cerror.Newf(ErrCodeOperationUndefined, "operation '%s' is not registered", name).
			WithData(map[string]any{"name": name})
	}
	return h(tx, args...)
}
