package models_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"assistance/models"
)

func TestNormalized(t *testing.T) {
	// при нуле отзывов возвращается заглушка 0.0, а не ошибка деления
	require.Equal(t, 0.0, models.Normalized(0, 0))
	require.Equal(t, 8.0, models.Normalized(8, 1))
	require.Equal(t, 6.0, models.Normalized(12, 2))
	require.Equal(t, 7.5, models.Normalized(15, 2))
}

func TestUserRatingAccumulators(t *testing.T) {
	u := models.User{}
	require.Equal(t, 0.0, u.AuthorRatingNormalized())
	require.Equal(t, 0.0, u.ImplementerRatingNormalized())

	// первый отзыв с оценкой 8, потом второй с оценкой 4
	u.ImplementerRating += 8
	u.ImplementerReviewCount++
	require.Equal(t, 8.0, u.ImplementerRatingNormalized())

	u.ImplementerRating += 4
	u.ImplementerReviewCount++
	require.Equal(t, 6.0, u.ImplementerRatingNormalized())
}

func TestTaskDateFieldNamesCoverTaskDates(t *testing.T) {
	for _, field := range []string{"created_at", "updated_at", "stop_accepting_at", "expires_at", "closed_at"} {
		require.Contains(t, models.TaskDateFieldNames, field)
	}
	require.NotContains(t, models.TaskDateFieldNames, "password_hash")
}
