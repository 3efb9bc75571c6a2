// Package workerset implements the job master's indexed worker registry:
// worker records kept simultaneously indexed by id and by network address
// under a single reader/writer lock, matching the "index by multiple
// keys" design note: a primary store keyed by id plus a secondary index
// mapping address to id, kept coherent under the exclusive-write lock.
// Heartbeats are frequent enough that Touch takes only the shared lock,
// mutating a worker's timestamp atomically instead of serializing against
// every other reader and writer.
package workerset

import (
	"sync"
	"sync/atomic"
)

// Address identifies a worker's network location.
type Address struct {
	Host       string
	RPCPort    int
	DataPort   int
	WebPort    int
	DomainSock string
}

// Worker is one registered worker's record. LastHeartbeat is mutated by
// Touch under only the set's shared lock (concurrently with any number of
// readers), so it is always accessed through atomic load/store rather
// than a plain field read.
type Worker struct {
	ID            int64
	Addr          Address
	LastHeartbeat int64 // ms, atomic
}

// HeartbeatMs returns the worker's last-heartbeat timestamp.
func (w *Worker) HeartbeatMs() int64 {
	return atomic.LoadInt64(&w.LastHeartbeat)
}

// Set is the indexed worker registry. The zero value is not usable; use
// New.
type Set struct {
	mu     sync.RWMutex
	byID   map[int64]*Worker
	byAddr map[Address]int64
}

// New creates an empty worker set.
func New() *Set {
	return &Set{
		byID:   make(map[int64]*Worker),
		byAddr: make(map[Address]int64),
	}
}

// Insert adds a worker record. Callers must ensure id and addr are not
// already present. The job master facade does not call Insert: it evicts
// any existing record at addr and inserts via InsertLocked, all under
// LockForWrite.
func (s *Set) Insert(w *Worker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[w.ID] = w
	s.byAddr[w.Addr] = w.ID
}

// Remove deletes the worker record with the given id, if present. Both
// indices are updated atomically under the exclusive lock.
func (s *Set) Remove(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.byID[id]
	if !ok {
		return
	}
	delete(s.byID, id)
	delete(s.byAddr, w.Addr)
}

// ContainsByAddr reports whether a worker is registered at addr.
func (s *Set) ContainsByAddr(addr Address) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byAddr[addr]
	return ok
}

// FirstByAddr returns the worker registered at addr, if any.
func (s *Set) FirstByAddr(addr Address) (*Worker, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byAddr[addr]
	if !ok {
		return nil, false
	}
	w := s.byID[id]
	return w, w != nil
}

// FirstByID returns the worker with the given id, if any.
func (s *Set) FirstByID(id int64) (*Worker, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.byID[id]
	return w, ok
}

// Iterate calls fn for every worker under the shared lock. fn must not
// mutate the set.
func (s *Set) Iterate(fn func(*Worker)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, w := range s.byID {
		fn(w)
	}
}

// Size returns the number of registered workers.
func (s *Set) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// Touch updates a worker's last-heartbeat timestamp. It takes only the
// shared lock: the lookup by id is a plain map read safe alongside other
// readers, and the timestamp itself is written atomically, so a
// heartbeat never serializes against the whole worker set the way
// register_worker's insert/evict does.
func (s *Set) Touch(id int64, nowMs int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.byID[id]
	if !ok {
		return false
	}
	atomic.StoreInt64(&w.LastHeartbeat, nowMs)
	return true
}

// LockForWrite/UnlockWrite expose the exclusive lock directly for callers
// that combine several steps into one atomic step: the job master facade's
// register_worker (lookup, eviction with failing the evicted worker's
// tasks in the plan coordinators, and insert) and the lost-worker
// detector (re-check and removal).
func (s *Set) LockForWrite() { s.mu.Lock() }
func (s *Set) UnlockWrite()  { s.mu.Unlock() }

// InsertLocked is like Insert but assumes the caller already holds the
// exclusive lock via LockForWrite.
func (s *Set) InsertLocked(w *Worker) {
	s.byID[w.ID] = w
	s.byAddr[w.Addr] = w.ID
}

// RemoveLocked is like Remove but assumes the caller already holds the
// exclusive lock via LockForWrite.
func (s *Set) RemoveLocked(id int64) {
	w, ok := s.byID[id]
	if !ok {
		return
	}
	delete(s.byID, id)
	delete(s.byAddr, w.Addr)
}

// FirstByAddrLocked is like FirstByAddr but assumes the caller already
// holds the exclusive lock via LockForWrite.
func (s *Set) FirstByAddrLocked(addr Address) (*Worker, bool) {
	id, ok := s.byAddr[addr]
	if !ok {
		return nil, false
	}
	w := s.byID[id]
	return w, w != nil
}

// FirstByIDLocked is like FirstByID but assumes the caller already holds
// the exclusive lock via LockForWrite.
func (s *Set) FirstByIDLocked(id int64) (*Worker, bool) {
	w, ok := s.byID[id]
	return w, ok
}
