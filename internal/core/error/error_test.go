package errx

import (
	"errors"
	"net/http"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapRedis(t *testing.T) {
	assert.NoError(t, WrapRedis(nil))

	err := WrapRedis(redis.Nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, redis.Nil))
	assert.Equal(t, http.StatusNotFound, StatusOf(err, 0))

	err = WrapRedis(errors.New("connection refused"))
	assert.Equal(t, http.StatusBadGateway, StatusOf(err, 0))
	assert.Contains(t, err.Error(), RedisErrorMessage)
}

func TestWrapCatalog(t *testing.T) {
	assert.NoError(t, WrapCatalog(nil))

	base := errors.New("disk I/O error")
	err := WrapCatalog(base)

	var appErr *AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusServiceUnavailable, appErr.Status)
	assert.ErrorIs(t, err, base)
}

func TestStatusOfPlainError(t *testing.T) {
	assert.Equal(t, 418, StatusOf(errors.New("plain"), 418))
}
