package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supportbot/internal/repository"
)

func TestAuthUsecase_EnsureAdminAndLogin(t *testing.T) {
	ctx := context.Background()
	auth := NewAuthUsecase(repository.NewUserRepository(newTestStore(t)), "secret", time.Hour)

	created, err := auth.EnsureAdmin(ctx, "admin", "s3cret")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = auth.EnsureAdmin(ctx, "admin", "other")
	require.NoError(t, err)
	assert.False(t, created, "existing admin is left alone")

	token, err := auth.Login(ctx, "admin", "s3cret")
	require.NoError(t, err)

	parsed, err := jwt.Parse(token, func(*jwt.Token) (interface{}, error) { return []byte("secret"), nil })
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, "admin", claims["role"])
	assert.Equal(t, "admin", claims["username"])

	_, err = auth.Login(ctx, "admin", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = auth.Login(ctx, "ghost", "x")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthUsecase_EnsureAdminSkipsWithoutPassword(t *testing.T) {
	auth := NewAuthUsecase(repository.NewUserRepository(newTestStore(t)), "secret", 0)
	created, err := auth.EnsureAdmin(context.Background(), "admin", "")
	require.NoError(t, err)
	assert.False(t, created)
}
