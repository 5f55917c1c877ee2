package services

import (
	"context"
	"testing"

	"github.com/Dosada05/prode/models"
	"github.com/Dosada05/prode/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestAuthService_RegisterAndLogin(t *testing.T) {
	utils.BcryptCost = bcrypt.MinCost
	repo := &fakeUserRepo{users: make(map[string]*models.User)}
	svc := NewAuthService(repo)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Username: "ana", Email: " Ana@Example.com ", Password: "secreto123"})
	require.NoError(t, err)
	assert.Equal(t, models.RolePlayer, user.Role)
	assert.Equal(t, "ana", user.Name)
	assert.Equal(t, "ana@example.com", user.Email)
	assert.Empty(t, user.PasswordHash)

	_, err = svc.Register(ctx, RegisterInput{Username: "ana", Email: "otra@example.com", Password: "secreto123"})
	assert.ErrorIs(t, err, ErrUserUsernameConflict)

	logged, err := svc.Login(ctx, LoginInput{Username: "ana", Password: "secreto123"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)

	_, err = svc.Login(ctx, LoginInput{Username: "ana", Password: "incorrecto"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, LoginInput{Username: "nadie", Password: "secreto123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_Register_Validation(t *testing.T) {
	svc := NewAuthService(&fakeUserRepo{users: make(map[string]*models.User)})

	tests := []struct {
		name  string
		input RegisterInput
		want  error
	}{
		{"short username", RegisterInput{Username: "ab", Email: "a@b.io", Password: "secreto123"}, ErrInvalidUsername},
		{"bad email", RegisterInput{Username: "ana", Email: "ana", Password: "secreto123"}, ErrInvalidEmail},
		{"short password", RegisterInput{Username: "ana", Email: "a@b.io", Password: "123"}, ErrPasswordTooShort},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.input)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
