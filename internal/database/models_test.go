package database

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestOrderParticipants(t *testing.T) {
	open := Order{Id: 1, ClientId: 10}
	assigned := Order{Id: 2, ClientId: 10, FreelancerId: sql.NullInt64{Int64: 20, Valid: true}}

	assert.True(t, open.HasParticipant(10))
	assert.False(t, open.HasParticipant(20))
	assert.True(t, assigned.HasParticipant(20))
	assert.False(t, assigned.HasParticipant(30))

	_, ok := open.Counterpart(10)
	assert.False(t, ok, "order without performer has no counterpart")

	other, ok := assigned.Counterpart(10)
	assert.True(t, ok)
	assert.Equal(t, 20, other)

	other, ok = assigned.Counterpart(20)
	assert.True(t, ok)
	assert.Equal(t, 10, other)

	_, ok = assigned.Counterpart(30)
	assert.False(t, ok)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(&pq.Error{Code: "23505"}))
	assert.True(t, IsUniqueViolation(fmt.Errorf("create bid: %w", &pq.Error{Code: "23505"})))
	assert.False(t, IsUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("boom")))
	assert.False(t, IsUniqueViolation(nil))
}

func TestNewRatingSummary(t *testing.T) {
	t.Run("no reviews", func(t *testing.T) {
		s := NewRatingSummary(nil)
		assert.Equal(t, 0, s.Count)
		assert.Equal(t, 0.0, s.Average)
		assert.Equal(t, map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}, s.Distribution)
	})

	t.Run("mixed ratings", func(t *testing.T) {
		s := NewRatingSummary(map[int]int{5: 2, 4: 1})
		assert.Equal(t, 3, s.Count)
		assert.InDelta(t, 14.0/3.0, s.Average, 1e-9)
		assert.Equal(t, map[int]int{1: 0, 2: 0, 3: 0, 4: 1, 5: 2}, s.Distribution)
	})
}
