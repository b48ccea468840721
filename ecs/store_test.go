package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/complianceflow/errors"
)

// requireInvariant asserts fn panics with a fatal invariant violation.
func requireInvariant(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected panic")
		err, ok := r.(error)
		require.True(t, ok, "panic value should be an error, got %T", r)
		assert.ErrorIs(t, err, errors.ErrInvariantViolation)
		assert.True(t, errors.IsFatal(err))
	}()
	fn()
}

func TestIDRange(t *testing.T) {
	r := IDRange{First: 10, End: 15}
	assert.Equal(t, 5, r.Len())
	assert.True(t, r.Contains(10))
	assert.True(t, r.Contains(14))
	assert.False(t, r.Contains(15))
	assert.False(t, r.Contains(9))
	assert.Equal(t, 0, IDRange{First: 4, End: 4}.Len())
	assert.Equal(t, 0, IDRange{First: 5, End: 4}.Len())
}

func TestStore_AllocateBatch(t *testing.T) {
	s := NewStore(8)

	r := s.AllocateBatch(5)
	assert.Equal(t, IDRange{First: 0, End: 5}, r)
	assert.Equal(t, 5, s.Len())
	assert.Equal(t, ID(5), s.Next())

	r = s.AllocateBatch(8)
	assert.Equal(t, IDRange{First: 5, End: 13}, r)
	assert.Equal(t, r, s.Batch())

	empty := s.AllocateBatch(0)
	assert.Equal(t, 0, empty.Len())
	assert.Equal(t, ID(13), s.Next())
}

func TestStore_AllocateBatchClearsComponents(t *testing.T) {
	s := NewStore(4)
	r := s.AllocateBatch(4)
	for id := r.First; id < r.End; id++ {
		s.WriteService(id, 4, 4)
		s.WriteUsage(id, 4, Restricted)
		*s.Status(id) |= AllRules
		*s.Risk(id) = RiskAssessment{Score: 100, Factors: FactorGDPR}
	}

	r = s.AllocateBatch(4)
	for id := r.First; id < r.End; id++ {
		assert.Equal(t, AIService{}, s.Service(id))
		assert.Equal(t, Usage{}, s.Usage(id))
		assert.True(t, s.Status(id).Compliant())
		assert.Equal(t, RiskAssessment{}, *s.Risk(id))
	}
}

func TestStore_ReadWrite(t *testing.T) {
	s := NewStore(4)
	s.Seek(100)
	r := s.AllocateBatch(3)
	require.Equal(t, ID(100), r.First)

	s.WriteService(101, 1, 3)
	s.WriteUsage(101, 2, Confidential)

	assert.Equal(t, AIService{Service: 1, Vendor: 3}, s.Service(101))
	assert.Equal(t, Usage{Department: 2, Sensitivity: Confidential}, s.Usage(101))

	*s.Status(101) |= GDPRCrossBorderTransfer
	assert.True(t, s.Status(101).Has(GDPRCrossBorderTransfer))
	assert.False(t, s.Status(100).Has(GDPRCrossBorderTransfer))

	s.Risk(102).Score = 42
	assert.Equal(t, uint8(42), s.Risk(102).Score)
}

func TestStore_Seek(t *testing.T) {
	s := NewStore(2)
	s.Seek(10)
	s.Seek(10)
	assert.Equal(t, ID(10), s.Next())

	s.AllocateBatch(2)
	requireInvariant(t, func() { s.Seek(11) })

	s.Seek(40)
	assert.Equal(t, IDRange{First: 40, End: 42}, s.AllocateBatch(2))
}

func TestStore_Reset(t *testing.T) {
	s := NewStore(4)
	s.AllocateBatch(4)
	s.Reset()

	assert.Equal(t, 0, s.Len())
	assert.Equal(t, ID(4), s.Next())
	requireInvariant(t, func() { s.Service(0) })
}

func TestStore_InvariantViolations(t *testing.T) {
	tests := []struct {
		name string
		fn   func(s *Store)
	}{
		{"batch over capacity", func(s *Store) { s.AllocateBatch(5) }},
		{"negative batch", func(s *Store) { s.AllocateBatch(-1) }},
		{"read before batch", func(s *Store) { s.Usage(0) }},
		{"read past batch", func(s *Store) { s.AllocateBatch(2); s.Service(2) }},
		{"status of previous batch", func(s *Store) { s.AllocateBatch(2); s.AllocateBatch(2); s.Status(1) }},
		{"risk outside batch", func(s *Store) { s.AllocateBatch(1); s.Risk(7) }},
		{"service outside catalog", func(s *Store) { s.AllocateBatch(1); s.WriteService(0, NumServices, 0) }},
		{"vendor outside catalog", func(s *Store) { s.AllocateBatch(1); s.WriteService(0, 0, NumVendors) }},
		{"department outside catalog", func(s *Store) { s.AllocateBatch(1); s.WriteUsage(0, NumDepartments, Public) }},
		{"sensitivity outside catalog", func(s *Store) { s.AllocateBatch(1); s.WriteUsage(0, 0, Restricted+1) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore(4)
			requireInvariant(t, func() { tt.fn(s) })
		})
	}
}

func TestNewStore_InvalidCapacity(t *testing.T) {
	requireInvariant(t, func() { NewStore(0) })
}

func TestComplianceStatus(t *testing.T) {
	var s ComplianceStatus
	assert.True(t, s.Compliant())
	assert.Equal(t, 0, s.Count())

	s |= EUAIActHighRiskUndeclared | InternalUnapprovedVendor
	assert.False(t, s.Compliant())
	assert.Equal(t, 2, s.Count())
	assert.True(t, s.Has(EUAIActHighRiskUndeclared))
	assert.False(t, s.Has(EUAIActHighRiskUndeclared|GDPRSpecialCategoryData))

	assert.Equal(t, NumRules, AllRules.Count())
}

func BenchmarkStore_Batch(b *testing.B) {
	s := NewStore(1024)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r := s.AllocateBatch(1024)
		for id := r.First; id < r.End; id++ {
			s.WriteService(id, 1, 1)
			s.WriteUsage(id, 2, Internal)
			*s.Status(id) |= GDPRCrossBorderTransfer
		}
	}
}
