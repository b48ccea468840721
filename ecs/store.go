package ecs

import "github.com/c360/complianceflow/errors"

// Store is a dense structure-of-arrays component store for one worker.
//
// The store holds exactly one batch at a time. AllocateBatch resizes every
// component array to the batch length and zeroes it, so a rule system never
// observes components left over from a previous batch. Stores are not safe
// for concurrent use; each worker owns one.
type Store struct {
	capacity int
	next     ID
	batch    IDRange

	services []AIService
	usages   []Usage
	statuses []ComplianceStatus
	risks    []RiskAssessment
}

// NewStore creates a store able to hold batches of up to capacity events.
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		panic(errors.Invariant("Store", "NewStore", "capacity must be positive, got %d", capacity))
	}
	return &Store{
		capacity: capacity,
		services: make([]AIService, 0, capacity),
		usages:   make([]Usage, 0, capacity),
		statuses: make([]ComplianceStatus, 0, capacity),
		risks:    make([]RiskAssessment, 0, capacity),
	}
}

// Capacity returns the largest batch the store accepts.
func (s *Store) Capacity() int {
	return s.capacity
}

// Next returns the first ID the next AllocateBatch will hand out.
func (s *Store) Next() ID {
	return s.next
}

// Batch returns the range of the current batch.
func (s *Store) Batch() IDRange {
	return s.batch
}

// Len returns the number of events in the current batch.
func (s *Store) Len() int {
	return s.batch.Len()
}

// Seek moves the ID cursor forward to first. IDs are never reused, so moving
// the cursor backwards panics.
func (s *Store) Seek(first ID) {
	if first < s.next {
		panic(errors.Invariant("Store", "Seek", "cursor %d cannot move back to %d", s.next, first))
	}
	s.next = first
}

// AllocateBatch starts a new batch of n events at the cursor and advances it.
// The previous batch is discarded.
func (s *Store) AllocateBatch(n int) IDRange {
	if n < 0 || n > s.capacity {
		panic(errors.Invariant("Store", "AllocateBatch", "batch of %d outside capacity %d", n, s.capacity))
	}
	if s.next+ID(n) < s.next {
		panic(errors.Invariant("Store", "AllocateBatch", "id space exhausted at %d", s.next))
	}

	s.batch = IDRange{First: s.next, End: s.next + ID(n)}
	s.next = s.batch.End

	s.services = resize(s.services, n)
	s.usages = resize(s.usages, n)
	s.statuses = resize(s.statuses, n)
	s.risks = resize(s.risks, n)

	return s.batch
}

// Reset discards the current batch without moving the cursor.
func (s *Store) Reset() {
	s.batch = IDRange{First: s.next, End: s.next}
	s.services = s.services[:0]
	s.usages = s.usages[:0]
	s.statuses = s.statuses[:0]
	s.risks = s.risks[:0]
}

// WriteService stores the service component of id.
func (s *Store) WriteService(id ID, service ServiceID, vendor VendorID) {
	i := s.index(id, "WriteService")
	if !service.Valid() || !vendor.Valid() {
		panic(errors.Invariant("Store", "WriteService", "event %d: service %d or vendor %d outside catalog", id, service, vendor))
	}
	s.services[i] = AIService{Service: service, Vendor: vendor}
}

// WriteUsage stores the usage component of id.
func (s *Store) WriteUsage(id ID, department DepartmentID, sensitivity Sensitivity) {
	i := s.index(id, "WriteUsage")
	if !department.Valid() || !sensitivity.Valid() {
		panic(errors.Invariant("Store", "WriteUsage", "event %d: department %d or sensitivity %d outside catalog", id, department, sensitivity))
	}
	s.usages[i] = Usage{Department: department, Sensitivity: sensitivity}
}

// Service returns the service component of id.
func (s *Store) Service(id ID) AIService {
	return s.services[s.index(id, "Service")]
}

// Usage returns the usage component of id.
func (s *Store) Usage(id ID) Usage {
	return s.usages[s.index(id, "Usage")]
}

// Status returns a mutable reference to the compliance status of id.
func (s *Store) Status(id ID) *ComplianceStatus {
	return &s.statuses[s.index(id, "Status")]
}

// Risk returns a mutable reference to the risk assessment of id.
func (s *Store) Risk(id ID) *RiskAssessment {
	return &s.risks[s.index(id, "Risk")]
}

func (s *Store) index(id ID, method string) int {
	if !s.batch.Contains(id) {
		panic(errors.Invariant("Store", method, "event %d outside batch [%d, %d)", id, s.batch.First, s.batch.End))
	}
	return int(id - s.batch.First)
}

func resize[T any](buf []T, n int) []T {
	buf = buf[:n]
	clear(buf)
	return buf
}
