package traderoom

import (
	"container/heap"
	"sync"
	"time"
)

// Scheduler is an id-keyed deadline queue for position expirations. It is
// an explicit, cancellable replacement for per-position timers: the engine
// loop asks for the next deadline and pops whatever has come due, so an
// expiry can fire at most once and never against state that no longer owns
// it.
type Scheduler struct {
	mu   sync.Mutex
	pq   expiryQueue
	byID map[string]*expiryItem
}

func NewScheduler() *Scheduler {
	return &Scheduler{byID: make(map[string]*expiryItem)}
}

// Schedule sets the deadline for id, replacing any existing one.
func (s *Scheduler) Schedule(id string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if it, ok := s.byID[id]; ok {
		it.at = at
		heap.Fix(&s.pq, it.index)
		return
	}
	it := &expiryItem{id: id, at: at}
	s.byID[id] = it
	heap.Push(&s.pq, it)
}

// Cancel removes id's deadline and reports whether one existed.
func (s *Scheduler) Cancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.byID[id]
	if !ok {
		return false
	}
	heap.Remove(&s.pq, it.index)
	delete(s.byID, id)
	return true
}

// Next returns the earliest pending deadline.
func (s *Scheduler) Next() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pq.Len() == 0 {
		return time.Time{}, false
	}
	return s.pq[0].at, true
}

// PopDue removes and returns every id whose deadline is at or before now,
// earliest first.
func (s *Scheduler) PopDue(now time.Time) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []string
	for s.pq.Len() > 0 && !s.pq[0].at.After(now) {
		it := heap.Pop(&s.pq).(*expiryItem)
		delete(s.byID, it.id)
		due = append(due, it.id)
	}
	return due
}

func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pq.Len()
}

type expiryItem struct {
	id    string
	at    time.Time
	index int
}

type expiryQueue []*expiryItem

func (q expiryQueue) Len() int           { return len(q) }
func (q expiryQueue) Less(i, j int) bool { return q[i].at.Before(q[j].at) }

func (q expiryQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *expiryQueue) Push(x any) {
	it := x.(*expiryItem)
	it.index = len(*q)
	*q = append(*q, it)
}

func (q *expiryQueue) Pop() any {
	old := *q
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	it.index = -1
	*q = old[:n-1]
	return it
}
