package testutil

import (
	"fmt"

	"github.com/calvinalkan/evslot/pkg/evslot"
)

// Operation is a single public-API call we apply to both the model and the
// real map.
type Operation interface {
	Name() string
	String() string
}

// -----------------------------------------------------------------------------
// Writer operations.
// -----------------------------------------------------------------------------

// OpInsert represents an Insert(value) call.
type OpInsert struct {
	Value string
}

// Name returns the operation name.
func (OpInsert) Name() string { return "Insert" }
func (operation OpInsert) String() string {
	return fmt.Sprintf("Insert(%q)", operation.Value)
}

// OpUpdate represents an Update(key, value) call.
type OpUpdate struct {
	Key   evslot.Key
	Value string
}

// Name returns the operation name.
func (OpUpdate) Name() string { return "Update" }
func (operation OpUpdate) String() string {
	return fmt.Sprintf("Update(%s,%q)", operation.Key, operation.Value)
}

// OpRemove represents a Remove(key) call.
type OpRemove struct {
	Key evslot.Key
}

// Name returns the operation name.
func (OpRemove) Name() string { return "Remove" }
func (operation OpRemove) String() string {
	return fmt.Sprintf("Remove(%s)", operation.Key)
}

// OpClear represents a Clear() call.
type OpClear struct{}

// Name returns the operation name.
func (OpClear) Name() string   { return "Clear" }
func (OpClear) String() string { return "Clear()" }

// -----------------------------------------------------------------------------
// Reader operations.
// -----------------------------------------------------------------------------

// OpGet represents a Get(key) call.
type OpGet struct {
	Key evslot.Key
}

// Name returns the operation name.
func (OpGet) Name() string { return "Get" }
func (operation OpGet) String() string {
	return fmt.Sprintf("Get(%s)", operation.Key)
}

// OpContainsKey represents a ContainsKey(key) call.
type OpContainsKey struct {
	Key evslot.Key
}

// Name returns the operation name.
func (OpContainsKey) Name() string { return "ContainsKey" }
func (operation OpContainsKey) String() string {
	return fmt.Sprintf("ContainsKey(%s)", operation.Key)
}

// OpLen represents a Len() call.
type OpLen struct{}

// Name returns the operation name.
func (OpLen) Name() string   { return "Len" }
func (OpLen) String() string { return "Len()" }

// OpSnapshot represents a Read().Snapshot() call.
type OpSnapshot struct{}

// Name returns the operation name.
func (OpSnapshot) Name() string   { return "Snapshot" }
func (OpSnapshot) String() string { return "Snapshot()" }
