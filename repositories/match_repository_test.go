package repositories

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Dosada05/prode/models"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var matchColumnNames = []string{"id", "stage_id", "kickoff_at", "home", "away", "goals_home", "goals_away"}

func TestMatchRepository_GetByID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresMatchRepository(db)
	kickoff := time.Date(2026, 6, 14, 18, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM matches m WHERE m.id = \$1`).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows(matchColumnNames).AddRow(3, 1, kickoff, "AR", "BR", nil, nil))

	m, err := repo.GetByID(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "AR", m.Home)
	assert.Equal(t, kickoff, *m.KickoffAt)
	assert.False(t, m.IsFinished())
}

func TestMatchRepository_GetByID_NotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresMatchRepository(db)

	mock.ExpectQuery(`FROM matches m WHERE m.id = \$1`).WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 3)
	assert.ErrorIs(t, err, ErrMatchNotFound)
}

func TestMatchRepository_ListByStage_Filters(t *testing.T) {
	now := time.Date(2026, 6, 14, 20, 0, 0, 0, time.UTC)
	duration := 2 * time.Hour

	tests := []struct {
		name    string
		filter  MatchFilter
		pattern string
		args    []driver.Value
	}{
		{"all", MatchFilterAll, `WHERE m.stage_id = \$1 ORDER BY`, []driver.Value{1}},
		{"played", MatchFilterPlayed, `AND m.kickoff_at < \$2`, []driver.Value{1, now.Add(-duration)}},
		{"upcoming", MatchFilterUpcoming, `AND m.kickoff_at > \$2`, []driver.Value{1, now}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMock(t)
			repo := NewPostgresMatchRepository(db)

			mock.ExpectQuery(tt.pattern).WithArgs(tt.args...).
				WillReturnRows(sqlmock.NewRows(matchColumnNames).AddRow(9, 1, nil, "DE", "FR", 1, 2))

			matches, err := repo.ListByStage(context.Background(), 1, tt.filter, now, duration)
			require.NoError(t, err)
			require.Len(t, matches, 1)
			assert.True(t, matches[0].IsFinished())
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestMatchRepository_Create_UnknownStage(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresMatchRepository(db)

	mock.ExpectQuery(`INSERT INTO matches`).
		WillReturnError(&pq.Error{Code: pqForeignKeyViolation})

	stageID := 42
	err := repo.Create(context.Background(), &models.Match{StageID: &stageID, Home: "AR", Away: "BR"})
	assert.ErrorIs(t, err, ErrMatchStageInvalid)
}

func TestMatchRepository_SetResult(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresMatchRepository(db)
	home, away := 3, 1

	mock.ExpectExec(`UPDATE matches SET goals_home = \$1, goals_away = \$2 WHERE id = \$3`).
		WithArgs(&home, &away, 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE matches SET goals_home`).
		WithArgs(nil, nil, 8).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.SetResult(context.Background(), 7, &home, &away))
	assert.ErrorIs(t, repo.SetResult(context.Background(), 8, nil, nil), ErrMatchNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
