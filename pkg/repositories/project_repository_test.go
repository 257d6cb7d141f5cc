//go:build integration

package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siddharth-k03/urgas/pkg/apperrors"
	"github.com/siddharth-k03/urgas/pkg/models"
)

func TestProjectRepository_CreateDefaultsToActive(t *testing.T) {
	tc := setupRepoTest(t)
	project := tc.createProject("Quantum sensing")

	require.NoError(t, tc.conn(func(ctx context.Context) error {
		got, err := NewProjectRepository().GetByID(ctx, project.ID)
		if err != nil {
			return err
		}
		assert.Equal(t, models.ProjectStateActive, got.State)
		assert.Equal(t, "Quantum sensing", got.Title)
		assert.Nil(t, got.EndDate)
		return nil
	}))
}

func TestProjectRepository_UpdateDetailsAndState(t *testing.T) {
	tc := setupRepoTest(t)
	repo := NewProjectRepository()
	project := tc.createProject("Old")
	end := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)

	tc.tx(func(ctx context.Context) error {
		p, err := repo.GetForUpdate(ctx, project.ID)
		if err != nil {
			return err
		}
		p.Title = "New"
		p.EndDate = &end
		if err := repo.UpdateDetails(ctx, p); err != nil {
			return err
		}
		return repo.SetState(ctx, p.ID, models.ProjectStateConverted)
	})

	require.NoError(t, tc.conn(func(ctx context.Context) error {
		got, err := repo.GetByID(ctx, project.ID)
		if err != nil {
			return err
		}
		assert.Equal(t, "New", got.Title)
		require.NotNil(t, got.EndDate)
		assert.True(t, end.Equal(got.EndDate.UTC()))
		assert.True(t, got.IsConverted())
		return nil
	}))
}

func TestProjectRepository_EndBeforeStartRejectedByStore(t *testing.T) {
	tc := setupRepoTest(t)
	end := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	err := tc.engineDB.DB.WithinTx(context.Background(), func(ctx context.Context) error {
		return NewProjectRepository().Create(ctx, &models.Project{
			Title:     "Backwards",
			StartDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   &end,
		})
	})
	require.Error(t, err)
}

func TestProjectRepository_DeleteMissing(t *testing.T) {
	tc := setupRepoTest(t)
	project := tc.createProject("Short lived")

	tc.tx(func(ctx context.Context) error { return NewProjectRepository().Delete(ctx, project.ID) })

	err := tc.engineDB.DB.WithinTx(context.Background(), func(ctx context.Context) error {
		return NewProjectRepository().Delete(ctx, project.ID)
	})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
