package dto_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"campus/internal/domains/equipment/model"
	"campus/internal/domains/equipment/model/dto"
)

func TestUsageStats_FromModels(t *testing.T) {
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	closedAt := func(start time.Time, minutes int) *time.Time {
		end := start.Add(time.Duration(minutes) * time.Minute)

		return &end
	}

	tests := []struct {
		name     string
		records  []model.UsageRecord
		callerID string
		want     dto.UsageStats
	}{
		{
			name:     "no records",
			records:  nil,
			callerID: "user-1",
			want:     dto.UsageStats{},
		},
		{
			name: "completed records accumulate minutes",
			records: []model.UsageRecord{
				{UserID: "user-1", StartedAt: base, EndedAt: closedAt(base, 45)},
				{UserID: "user-2", StartedAt: base.Add(time.Hour), EndedAt: closedAt(base.Add(time.Hour), 15)},
			},
			callerID: "user-1",
			want: dto.UsageStats{
				TotalCount:     2,
				CompletedCount: 2,
				TotalMinutes:   60,
			},
		},
		{
			name: "open record by the caller",
			records: []model.UsageRecord{
				{UserID: "user-1", StartedAt: base, EndedAt: nil},
				{UserID: "user-2", StartedAt: base.Add(-time.Hour), EndedAt: closedAt(base.Add(-time.Hour), 30)},
			},
			callerID: "user-1",
			want: dto.UsageStats{
				TotalCount:     2,
				CompletedCount: 1,
				TotalMinutes:   30,
				InUseByMe:      true,
			},
		},
		{
			name: "open record by someone else",
			records: []model.UsageRecord{
				{UserID: "user-2", StartedAt: base, EndedAt: nil},
			},
			callerID: "user-1",
			want: dto.UsageStats{
				TotalCount: 1,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stats dto.UsageStats
			stats.FromModels(tt.records, tt.callerID)

			assert.Equal(t, tt.want, stats)
		})
	}
}

func TestUsageRecordResponse_FromModel(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	open := model.UsageRecord{
		ID:          "usage-1",
		EquipmentID: "equipment-1",
		UserID:      "user-1",
		StartedAt:   start,
		EndedAt:     nil,
	}

	var openRes dto.UsageRecordResponse
	openRes.FromModel(open)

	assert.Nil(t, openRes.EndedAt)
	assert.Equal(t, "2025-03-10T09:00:00Z", openRes.StartedAt)

	closed := open
	closed.EndedAt = &end

	var closedRes dto.UsageRecordResponse
	closedRes.FromModel(closed)

	if assert.NotNil(t, closedRes.EndedAt) {
		assert.Equal(t, "2025-03-10T10:00:00Z", *closedRes.EndedAt)
	}
}
