package world

// View is a value describing the set of entities whose mask contains a static
// query mask. Iteration is forward-only, ascending by entity index, and
// restartable; the null handle is the end sentinel.
//
// Structural mutation (spawn, recycle, add, remove) while a view is being
// walked is undefined; callers either iterate to completion or buffer their
// mutations.
type View struct {
	w    *World
	mask ComponentMask
}

// Find returns a view over entities whose mask contains the given mask. The
// empty mask matches every alive entity.
//
// Parameters:
//   - mask: the required component bits, built with MaskOf and Or
//
// Returns:
//   - View: the query view
func (w *World) Find(mask ComponentMask) View {
	return View{w: w, mask: mask}
}

// First returns the lowest-index matching entity, or the null handle if no
// entity matches.
func (v View) First() Entity {
	return v.scan(0)
}

// Next returns the matching entity after cur, or the null handle when the scan
// reaches the end.
//
// Parameters:
//   - cur: the previously yielded entity
//
// Returns:
//   - Entity: the next match, or the null handle
func (v View) Next(cur Entity) Entity {
	if cur.IsNil() {
		return cur
	}
	return v.scan(cur.Index() + 1)
}

// Visit walks every matching entity in ascending index order.
//
// Parameters:
//   - fn: the visitor invoked per entity
func (v View) Visit(fn func(Entity)) {
	for e := v.First(); !e.IsNil(); e = v.Next(e) {
		fn(e)
	}
}

// Count returns the number of matching entities.
func (v View) Count() int {
	n := 0
	for e := v.First(); !e.IsNil(); e = v.Next(e) {
		n++
	}
	return n
}

func (v View) scan(from uint32) Entity {
	capacity := uint32(v.w.handles.Capacity())
	for idx := from; idx < capacity; idx++ {
		h := v.w.handles.At(idx)
		if h.IsNil() {
			continue
		}
		if v.w.masks[idx].ContainsAll(v.mask) {
			return h
		}
	}
	return Entity{}
}

// FindWith returns the view selecting entities that hold component type T,
// registering T on first sight.
//
// Parameters:
//   - w: the world to query
//
// Returns:
//   - View: the query view
func FindWith[T any, PT ComponentPtr[T]](w *World) View {
	return w.Find(MaskOf[T, PT](w))
}

// FindWith2 returns the view selecting entities that hold both A and B.
//
// Parameters:
//   - w: the world to query
//
// Returns:
//   - View: the query view
func FindWith2[A, B any, PA ComponentPtr[A], PB ComponentPtr[B]](w *World) View {
	return w.Find(MaskOf[A, PA](w).Or(MaskOf[B, PB](w)))
}

// FindWith3 returns the view selecting entities that hold A, B and C.
//
// Parameters:
//   - w: the world to query
//
// Returns:
//   - View: the query view
func FindWith3[A, B, C any, PA ComponentPtr[A], PB ComponentPtr[B], PC ComponentPtr[C]](w *World) View {
	return w.Find(MaskOf[A, PA](w).Or(MaskOf[B, PB](w)).Or(MaskOf[C, PC](w)))
}

// Visit1 walks the view, resolving each entity's component of type T for the
// visitor.
//
// Parameters:
//   - v: the view to walk
//   - fn: the visitor invoked with the entity and its T
func Visit1[T any, PT ComponentPtr[T]](v View, fn func(Entity, PT)) {
	for e := v.First(); !e.IsNil(); e = v.Next(e) {
		fn(e, Get[T, PT](v.w, e))
	}
}

// Visit2 walks the view, resolving each entity's A and B components for the
// visitor.
//
// Parameters:
//   - v: the view to walk
//   - fn: the visitor invoked with the entity and its components
func Visit2[A, B any, PA ComponentPtr[A], PB ComponentPtr[B]](v View, fn func(Entity, PA, PB)) {
	for e := v.First(); !e.IsNil(); e = v.Next(e) {
		fn(e, Get[A, PA](v.w, e), Get[B, PB](v.w, e))
	}
}
