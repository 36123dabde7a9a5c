package core

// collection owns the records of one entity type in insertion order and
// indexes them by id. Records reference each other by id only.
type collection[T any] struct {
	items []T
	index map[int]int
	idOf  func(T) int
	clone func(T) T
}

func newCollection[T any](idOf func(T) int, clone func(T) T) *collection[T] {
	if clone == nil {
		clone = func(v T) T { return v }
	}
	return &collection[T]{index: make(map[int]int), idOf: idOf, clone: clone}
}

// insert appends v. It reports false, leaving the collection unchanged, when
// the id is already present.
func (c *collection[T]) insert(v T) bool {
	id := c.idOf(v)
	if _, ok := c.index[id]; ok {
		return false
	}
	c.index[id] = len(c.items)
	c.items = append(c.items, c.clone(v))
	return true
}

func (c *collection[T]) has(id int) bool {
	_, ok := c.index[id]
	return ok
}

func (c *collection[T]) get(id int) (T, bool) {
	i, ok := c.index[id]
	if !ok {
		var zero T
		return zero, false
	}
	return c.clone(c.items[i]), true
}

// ref returns a pointer into the collection for in-place mutation. The pointer
// is invalidated by the next insert or remove.
func (c *collection[T]) ref(id int) *T {
	i, ok := c.index[id]
	if !ok {
		return nil
	}
	return &c.items[i]
}

func (c *collection[T]) remove(id int) (T, bool) {
	i, ok := c.index[id]
	if !ok {
		var zero T
		return zero, false
	}
	removed := c.items[i]
	c.items = append(c.items[:i], c.items[i+1:]...)
	delete(c.index, id)
	for j := i; j < len(c.items); j++ {
		c.index[c.idOf(c.items[j])] = j
	}
	return removed, true
}

// values returns clones of all records in insertion order.
func (c *collection[T]) values() []T {
	out := make([]T, len(c.items))
	for i, v := range c.items {
		out[i] = c.clone(v)
	}
	return out
}

// each visits records in place until fn returns false.
func (c *collection[T]) each(fn func(*T) bool) {
	for i := range c.items {
		if !fn(&c.items[i]) {
			return
		}
	}
}

func (c *collection[T]) len() int {
	return len(c.items)
}

func (c *collection[T]) maxID() int {
	highest := 0
	for id := range c.index {
		if id > highest {
			highest = id
		}
	}
	return highest
}
