package workqueue

// Item is one unit of work.
//
// Begin is invoked exactly once, when the item becomes head of the queue, and
// produces the item's initial result. End is invoked exactly once, when the
// item is popped, with the last result stored for it. Either may be nil.
type Item[T any] struct {
	Begin func() T
	End   func(T)
}

// entry is an item plus its accumulated result.
type entry[T any] struct {
	item   Item[T]
	result T
	begun  bool
}

// Queue is a FIFO of work items with a single active head.
type Queue[T any] struct {
	entries []*entry[T]
}

// New creates an empty queue.
func New[T any]() *Queue[T] {
	return &Queue[T]{
		entries: make([]*entry[T], 0, 8),
	}
}

// Push appends an item to the tail of the queue.
// If the queue was empty, the item becomes head and its Begin runs before
// Push returns.
func (q *Queue[T]) Push(item Item[T]) {
	q.entries = append(q.entries, &entry[T]{item: item})
	if len(q.entries) == 1 {
		q.begin()
	}
}

// Update replaces the head item's result with fn applied to it.
// Panics if the queue is empty.
func (q *Queue[T]) Update(fn func(T) T) {
	if len(q.entries) == 0 {
		panic("workqueue: Update on empty queue")
	}
	head := q.entries[0]
	head.result = fn(head.result)
}

// Pop removes the head item, hands its final result to End, and returns that
// result. If another item remains it becomes head and is begun before Pop
// returns. Panics if the queue is empty.
func (q *Queue[T]) Pop() T {
	if len(q.entries) == 0 {
		panic("workqueue: Pop on empty queue")
	}

	head := q.entries[0]

	// Nil out the slot so the popped item's closures can be collected.
	q.entries[0] = nil
	if len(q.entries) == 1 {
		q.entries = q.entries[:0]
	} else {
		q.entries = q.entries[1:]
	}

	if head.item.End != nil {
		head.item.End(head.result)
	}

	if len(q.entries) > 0 {
		q.begin()
	}

	return head.result
}

// Head returns the current result of the head item.
// The second return value is false if the queue is empty.
func (q *Queue[T]) Head() (T, bool) {
	if len(q.entries) == 0 {
		var zero T
		return zero, false
	}
	return q.entries[0].result, true
}

// Len returns the number of items in the queue, head included.
func (q *Queue[T]) Len() int {
	return len(q.entries)
}

// begin starts the head item. Begin is never run twice for the same item.
func (q *Queue[T]) begin() {
	head := q.entries[0]
	if head.begun {
		return
	}
	head.begun = true
	if head.item.Begin != nil {
		head.result = head.item.Begin()
	}
}
