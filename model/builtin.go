package model

import (
	"github.com/deltapad/go-deltapad/util/cerror"
)

// Built-in operation names, present in every registry
const (
	OpSetAttr    = "setAttr"
	OpRemoveAttr = "removeAttr"
)

func registerBuiltins(r *Registry) {
	// a fresh registry cannot have conflicts, errors here are impossible
	_ = r.Register(OpSetAttr, setAttrHandler)
	_ = r.Register(OpRemoveAttr, removeAttrHandler)
}

// setAttr(key string, value any) appends a delta setting one root attribute
func setAttrHandler(tx *Transaction, args ...any) error {
	if len(args) != 2 {
		return cerror.Newf(ErrCodeOperationArguments, "setAttr expects (key, value), got %d arguments", len(args))
	}
	key, ok := args[0].(string)
	if !ok {
		return cerror.New(ErrCodeOperationArguments, "setAttr key must be a string")
	}
	tx.AddDelta(&AttributeDelta{Key: key, Value: args[1]})
	return nil
}

// removeAttr(key string) appends a delta removing one root attribute
func removeAttrHandler(tx *Transaction, args ...any) error {
	if len(args) != 1 {
		return cerror.Newf(ErrCodeOperationArguments, "removeAttr expects (key), got %d arguments", len(args))
	}
	key, ok := args[0].(string)
	if !ok {
		return cerror.New(ErrCodeOperationArguments, "removeAttr key must be a string")
	}
	tx.AddDelta(&AttributeDelta{Key: key, Remove: true})
	return nil
}
