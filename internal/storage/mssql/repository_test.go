package mssql

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassifyAction(t *testing.T) {
	tests := []struct {
		action      string
		wantNew     bool
		wantUpdated bool
	}{
		{"INSERT", true, false},
		{"UPDATE", false, true},
		{"", false, false},
		{"DELETE", false, false},
	}

	for _, tt := range tests {
		isNew, isUpdated := classifyAction(tt.action)
		assert.Equal(t, tt.wantNew, isNew, tt.action)
		assert.Equal(t, tt.wantUpdated, isUpdated, tt.action)
	}
}

func TestNullableTime(t *testing.T) {
	assert.False(t, nullableTime(time.Time{}).Valid)

	local := time.Date(2025, 9, 7, 10, 0, 0, 0, time.FixedZone("CEST", 2*3600))
	got := nullableTime(local)
	assert.True(t, got.Valid)
	assert.Equal(t, time.Date(2025, 9, 7, 8, 0, 0, 0, time.UTC), got.Time)
}
