package pool

import "sync/atomic"

// mpscQueue is a lock-free multi-producer queue built on an atomic intrusive
// stack. Producers push from any goroutine; the single consumer detaches the
// whole stack at once and reverses it, so drain yields FIFO order. Across
// drains, ordering between producers is whatever the CAS race produced.
type mpscQueue[T any] struct {
	head atomic.Pointer[qnode[T]]
	size atomic.Int64
}

type qnode[T any] struct {
	value T
	next  *qnode[T]
}

// push never blocks and is safe from any goroutine.
func (q *mpscQueue[T]) push(v T) {
	n := &qnode[T]{value: v}
	for {
		old := q.head.Load()
		n.next = old
		if q.head.CompareAndSwap(old, n) {
			q.size.Add(1)
			return
		}
	}
}

// drain detaches everything queued so far and returns it oldest-first.
// Single-consumer only.
func (q *mpscQueue[T]) drain() []T {
	head := q.head.Swap(nil)
	if head == nil {
		return nil
	}
	n := 0
	for c := head; c != nil; c = c.next {
		n++
	}
	q.size.Add(int64(-n))
	out := make([]T, n)
	i := n - 1
	for c := head; c != nil; c = c.next {
		out[i] = c.value
		i--
	}
	return out
}

// pending is an approximate count; exact only when no producer is mid-push.
func (q *mpscQueue[T]) pending() int {
	return int(q.size.Load())
}

// clear discards everything queued so far and reports how many were dropped.
func (q *mpscQueue[T]) clear() int {
	head := q.head.Swap(nil)
	n := 0
	for c := head; c != nil; c = c.next {
		n++
	}
	q.size.Add(int64(-n))
	return n
}
