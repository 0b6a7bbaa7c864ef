package sqlite

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/storage/storetest"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

func TestSchedulerStore(t *testing.T) {
	storetest.RunScheduler(t, func(t *testing.T) driven.SchedulerStore {
		return setupTestStore(t).SchedulerStore()
	})
}

func TestTimestamp_Value(t *testing.T) {
	v, err := timestamp(time.Time{}).Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	ts := time.Date(2025, 5, 1, 14, 0, 0, 0, time.FixedZone("CEST", 2*3600))
	v, err = timestamp(ts).Value()
	require.NoError(t, err)
	assert.Equal(t, "2025-05-01T12:00:00Z", v)
}

func TestTimestamp_Scan(t *testing.T) {
	want := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		src  any
		want time.Time
	}{
		{"null", nil, time.Time{}},
		{"text", "2025-05-01T12:00:00Z", want},
		{"bytes", []byte("2025-05-01T12:00:00Z"), want},
		{"time", want, want},
		{"garbage", "yesterday", time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts timestamp
			require.NoError(t, ts.Scan(tt.src))
			assert.True(t, tt.want.Equal(time.Time(ts)))
		})
	}

	var ts timestamp
	assert.Error(t, ts.Scan(42))
}

func TestOptionalText(t *testing.T) {
	assert.False(t, optionalText("").Valid)
	assert.Equal(t, sql.NullString{String: "x", Valid: true}, optionalText("x"))
}
