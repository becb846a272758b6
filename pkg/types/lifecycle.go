package types

// Lifecycle is the two-state record lifecycle. Rows are never removed;
// deletion moves a row to LifecycleDeleted.
type Lifecycle string

// Lifecycle states.
const (
	LifecycleActive  Lifecycle = "active"
	LifecycleDeleted Lifecycle = "deleted"
)

// IsActive reports whether l is LifecycleActive.
func (l Lifecycle) IsActive() bool {
	return l == LifecycleActive
}
