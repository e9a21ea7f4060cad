package sched

import "sync"

// Scheduler is the single global priority-ordered ready queue of
// spec.md §4.4: "get() returns the highest-priority ready thread, or
// the idle thread of the current core. put(thread) inserts by
// priority in FIFO-within-priority order."
type Scheduler struct {
	mu   sync.Mutex
	head *Thread
	tail *Thread
}

// New constructs an empty ready queue.
func New() *Scheduler { return &Scheduler{} }

// Put inserts t into the ready queue in priority order (lower number
// is higher priority), FIFO among threads that share a priority.
func (s *Scheduler) Put(t *Thread) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t.State = Ready
	t.Next = nil

	if s.head == nil {
		s.head, s.tail = t, t
		return
	}
	if t.Priority < s.head.Priority {
		t.Next = s.head
		s.head = t
		return
	}
	cur := s.head
	for cur.Next != nil && cur.Next.Priority <= t.Priority {
		cur = cur.Next
	}
	t.Next = cur.Next
	cur.Next = t
	if t.Next == nil {
		s.tail = t
	}
}

// Get pops and returns the highest-priority ready thread, or idle if
// the queue is empty.
func (s *Scheduler) Get(idle *Thread) *Thread {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.head == nil {
		return idle
	}
	t := s.head
	s.head = t.Next
	if s.head == nil {
		s.tail = nil
	}
	t.Next = nil
	return t
}

// HighestPriority reports the priority of the head of the ready
// queue and whether the queue is non-empty, used by the preemption
// rule (spec.md §4.4).
func (s *Scheduler) HighestPriority() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.head == nil {
		return 0, false
	}
	return s.head.Priority, true
}
