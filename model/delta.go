package model

// Delta is an opaque unit of change recorded against a transaction.
// The transaction layer never inspects delta contents, it only keeps
// them in application order.
type Delta interface {
	DeltaType() string
}

// Appliable is implemented by deltas that know how to mutate document
// state. Apply mutates the document and returns the inverse delta,
// which undoes the mutation when applied later. A nil inverse means
// the delta was a no-op.
//
// Apply is called with the document lock held, so implementations use
// the unexported document accessors and must not call back into the
// locking API.
type Appliable interface {
	Delta
	Apply(doc *Document) (inverse Delta, err error)
}

// AttributeDelta sets or removes a single attribute of the document root.
type AttributeDelta struct {
	Key    string
	Value  any
	Remove bool
}

func (d *AttributeDelta) DeltaType() string {
	if d.Remove {
		return "removeAttr"
	}
	return "setAttr"
}

func (d *AttributeDelta) Apply(doc *Document) (inverse Delta, err error) {
	old, had := doc.getAttr(d.Key)
	if d.Remove {
		if !had {
			return nil, nil
		}
		doc.removeAttr(d.Key)
		return &AttributeDelta{Key: d.Key, Value: old}, nil
	}
	doc.setAttr(d.Key, d.Value)
	if !had {
		return &AttributeDelta{Key: d.Key, Remove: true}, nil
	}
	return &AttributeDelta{Key: d.Key, Value: old}, nil
}
