package world

import "errors"

var (
	// ErrDeadEntity is returned when an operation targets a stale or null
	// entity handle.
	ErrDeadEntity = errors.New("world: entity is not alive")

	// ErrDuplicateComponent is returned when a component of the same type is
	// added to an entity twice.
	ErrDuplicateComponent = errors.New("world: entity already has this component")

	// ErrTooManyComponents is returned when registering a component type would
	// exceed MaxComponents.
	ErrTooManyComponents = errors.New("world: component type limit exceeded")

	// ErrComponentRejected is returned when a component's Initialize hook
	// refuses the add; the component has already been torn down again.
	ErrComponentRejected = errors.New("world: component initialize returned false")

	// ErrNotRegistered is returned when an operation references a component
	// type the world has never seen.
	ErrNotRegistered = errors.New("world: component type not registered")
)
