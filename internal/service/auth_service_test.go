package service

import (
	"testing"
	"time"

	"nihongo_edu_backend/internal/config"
	"nihongo_edu_backend/internal/model"
	"nihongo_edu_backend/internal/repository"
	"nihongo_edu_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newAuthService(db *gorm.DB) *AuthService {
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret-long-enough-for-hs256-use"
	cfg.JWT.ExpireTime = time.Hour
	return NewAuthService(repository.NewUserRepository(db), cfg)
}

func TestRegisterHashesPasswordAndRejectsDuplicates(t *testing.T) {
	db := openTestDB(t)
	svc := newAuthService(db)

	user := &model.User{
		Name:        "Hana",
		Email:       "hana@example.com",
		Password:    "correct horse",
		Role:        model.Student,
		TargetLevel: 5,
	}
	require.NoError(t, svc.Register(user))
	assert.NotEqual(t, "correct horse", user.Password)

	dup := &model.User{Name: "Hana 2", Email: "hana@example.com", Password: "x", Role: model.Student, TargetLevel: 4}
	require.ErrorIs(t, svc.Register(dup), util.ErrEmailRegistered)
}

func TestRegisterValidatesTargetLevel(t *testing.T) {
	db := openTestDB(t)
	svc := newAuthService(db)

	for _, level := range []int{0, 6} {
		user := &model.User{Name: "x", Email: "x@example.com", Password: "pw", Role: model.Student, TargetLevel: level}
		require.ErrorIs(t, svc.Register(user), util.ErrValidation)
	}
}

func TestLogin(t *testing.T) {
	db := openTestDB(t)
	svc := newAuthService(db)

	user := &model.User{Name: "Hana", Email: "hana@example.com", Password: "correct horse", Role: model.Student, TargetLevel: 5}
	require.NoError(t, svc.Register(user))

	token, err := svc.Login("hana@example.com", "correct horse")
	require.NoError(t, err)

	claims, err := util.ParseJWT(token, "test-secret-long-enough-for-hs256-use")
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, model.Student, claims.Role)

	_, err = svc.Login("hana@example.com", "wrong")
	require.ErrorIs(t, err, util.ErrInvalidCredentials)

	_, err = svc.Login("nobody@example.com", "correct horse")
	require.ErrorIs(t, err, util.ErrInvalidCredentials)
}
