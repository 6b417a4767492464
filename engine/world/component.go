package world

import "github.com/kaisc/lemon-toolkit/common"

// Entity identifies a composite object within a World. It is a plain handle;
// all state lives in the world's component pools.
type Entity = common.Handle

// Component is the contract every component type satisfies. Concrete types
// embed BaseComponent, which supplies default implementations and the owner
// back-reference the world fills in after construction.
//
// Component memory is always managed by the world: instances live in paged
// pool storage and their addresses are stable until removal.
type Component interface {
	// Initialize runs after the component has been constructed and its owner
	// assigned. Returning false rolls the add back and tears the component
	// down again.
	Initialize() bool

	// Dispose runs just before the component is destroyed.
	Dispose()

	// Owner returns the entity this component is bound to.
	Owner() Entity

	bind(owner Entity)
}

// BaseComponent supplies the default Component behavior. Embed it as the first
// field of every concrete component type.
type BaseComponent struct {
	owner Entity
}

// Initialize accepts the add by default.
func (b *BaseComponent) Initialize() bool { return true }

// Dispose does nothing by default.
func (b *BaseComponent) Dispose() {}

// Owner returns the entity this component is bound to.
func (b *BaseComponent) Owner() Entity { return b.owner }

func (b *BaseComponent) bind(owner Entity) { b.owner = owner }

// ComponentPtr constrains PT to a pointer to a concrete component type. It is
// the glue that lets the generic world API be called with a single explicit
// type argument, e.g. Add[Transform](w, e).
type ComponentPtr[T any] interface {
	*T
	Component
}

// EntityModified is emitted whenever an entity's component mask changes, after
// the more specific ComponentAdded/ComponentRemoved event.
type EntityModified struct {
	Entity Entity
}

// ComponentAdded is emitted right after a component of type T has been
// constructed and bound to its owner.
type ComponentAdded[T any] struct {
	Entity    Entity
	Component *T
}

// ComponentRemoved is emitted right before a component of type T is torn down.
// The component pointer is still valid for the duration of delivery.
type ComponentRemoved[T any] struct {
	Entity    Entity
	Component *T
}
