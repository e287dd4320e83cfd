package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ayush/spot-finder/backend/internal/apperr"
	"github.com/ayush/spot-finder/backend/internal/validation"
)

func TestValidation_WrapsMessageList(t *testing.T) {
	err := apperr.Validation(validation.Errors{"Name not provided", "Tags must be an array, got string"})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Equal(t, []string{"Name not provided", "Tags must be an array, got string"}, apperr.Messages(err))
	assert.Equal(t, http.StatusBadRequest, apperr.HTTPStatus(err))

	assert.NoError(t, apperr.Validation(nil))

	plain := errors.New("boom")
	assert.Same(t, plain, apperr.Validation(plain))
}

func TestPersistence_HidesCause(t *testing.T) {
	cause := errors.New("connection reset by peer")
	err := fmt.Errorf("update spot: %w", apperr.Persistence("Spot update failed!", cause))

	assert.Equal(t, []string{"Spot update failed!"}, apperr.Messages(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, http.StatusInternalServerError, apperr.HTTPStatus(err))
}

func TestKinds(t *testing.T) {
	assert.True(t, apperr.Is(apperr.NotFound("No spot with id of x"), apperr.KindNotFound))
	assert.Equal(t, http.StatusNotFound, apperr.HTTPStatus(apperr.NotFound("x")))
	assert.Equal(t, http.StatusForbidden, apperr.HTTPStatus(apperr.Forbidden("User is not the original poster")))
	assert.Equal(t, http.StatusUnauthorized, apperr.HTTPStatus(apperr.Unauthenticated("Invalid password for user someone!")))
	assert.Equal(t, http.StatusConflict, apperr.HTTPStatus(apperr.Conflict("dup")))
	assert.False(t, apperr.Is(nil, apperr.KindNotFound))
	assert.Equal(t, []string{"Internal server error"}, apperr.Messages(errors.New("raw")))
}
