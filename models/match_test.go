package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestMatchResult(t *testing.T) {
	tests := []struct {
		name     string
		home     int
		away     int
		expected Outcome
	}{
		{"draw", 2, 2, OutcomeDraw},
		{"home win", 3, 1, OutcomeHomeWin},
		{"away win", 0, 1, OutcomeAwayWin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Match{GoalsHome: intPtr(tt.home), GoalsAway: intPtr(tt.away)}
			require.True(t, m.IsFinished())
			result, err := m.Result()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestMatchResult_Undefined(t *testing.T) {
	for _, m := range []Match{
		{},
		{GoalsHome: intPtr(1)},
		{GoalsAway: intPtr(0)},
	} {
		assert.False(t, m.IsFinished())
		_, err := m.Result()
		assert.True(t, errors.Is(err, ErrResultUndefined))
	}
}

func TestMatchString(t *testing.T) {
	assert.Equal(t, "AR - BR", Match{Home: "AR", Away: "BR"}.String())
	assert.Equal(t, "AR 1 - 0 BR", Match{Home: "AR", Away: "BR", GoalsHome: intPtr(1), GoalsAway: intPtr(0)}.String())
}

func TestMatchEstimatedEnd(t *testing.T) {
	_, ok := Match{}.EstimatedEnd(2 * time.Hour)
	assert.False(t, ok)

	kickoff := time.Date(2026, 6, 11, 16, 0, 0, 0, time.UTC)
	end, ok := Match{KickoffAt: &kickoff}.EstimatedEnd(2 * time.Hour)
	assert.True(t, ok)
	assert.Equal(t, kickoff.Add(2*time.Hour), end)
}

func TestStageNextAction(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	draft := Stage{Public: false, Deadline: now.Add(time.Hour)}
	open := Stage{Public: true, Deadline: now.Add(time.Hour)}
	closed := Stage{Public: true, Deadline: now.Add(-time.Minute)}

	assert.Equal(t, StageActionEdit, draft.NextActionAt(now))
	assert.Equal(t, StageActionBet, open.NextActionAt(now))
	assert.Equal(t, StageActionResults, closed.NextActionAt(now))
	assert.False(t, open.ExpiredAt(now))
	assert.True(t, closed.ExpiredAt(now))
}

func TestUserRole(t *testing.T) {
	assert.True(t, RoleAdmin.IsPrivileged())
	assert.True(t, RoleOrganizer.IsPrivileged())
	assert.False(t, RolePlayer.IsPrivileged())
	assert.False(t, UserRole("guest").IsValid())
}
