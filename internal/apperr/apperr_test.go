package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"assistance/internal/apperr"
)

func TestStatusCode(t *testing.T) {
	require.Equal(t, http.StatusBadRequest, apperr.StatusCode(apperr.Validation("bad rating")))
	require.Equal(t, http.StatusNotFound, apperr.StatusCode(apperr.NotFound("task", 42)))
	require.Equal(t, http.StatusForbidden, apperr.StatusCode(apperr.Permission("not the author")))
	require.Equal(t, http.StatusConflict, apperr.StatusCode(apperr.Conflict("assigned concurrently")))
	require.Equal(t, http.StatusInternalServerError, apperr.StatusCode(errors.New("boom")))
}

func TestWrappedErrorsKeepStatus(t *testing.T) {
	wrapped := fmt.Errorf("assign: %w", apperr.Conflict("lost the race"))
	require.Equal(t, http.StatusConflict, apperr.StatusCode(wrapped))
}

func TestMessages(t *testing.T) {
	require.Equal(t, "task 42 not found", apperr.NotFound("task", 42).Error())
	require.Equal(t, "rating must be 5", apperr.Validation("rating must be %d", 5).Error())
}
