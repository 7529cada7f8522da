package services

import (
  "context"
  "testing"
  "time"

  "github.com/stretchr/testify/require"
  "gorm.io/gorm"

  "github.com/supplier-portal/assistant-backend/internal/logger"
  "github.com/supplier-portal/assistant-backend/internal/repos"
  "github.com/supplier-portal/assistant-backend/internal/types"
)

func newAuthService(db *gorm.DB) (AuthService, repos.UserTokenRepo) {
  log := logger.NewNop()
  userRepo := repos.NewUserRepo(db, log)
  tokenRepo := repos.NewUserTokenRepo(db, log)
  svc := NewAuthService(db, log, userRepo, tokenRepo, nil, "test-secret", time.Hour, 24*time.Hour)
  return svc, tokenRepo
}

func TestRegisterUser_IssuesTokenPair(t *testing.T) {
  db := newTestDB(t)
  svc, _ := newAuthService(db)

  access, refresh, created, err := svc.RegisterUser(context.Background(), &types.User{
    Username: "supplier1",
    Email:    "Supplier1@Example.com",
    Password: "secret123",
  })
  require.NoError(t, err)
  require.NotEmpty(t, access)
  require.NotEmpty(t, refresh)
  require.NotNil(t, created)
  require.Equal(t, "supplier1", created.Username)
  require.Equal(t, types.RoleUser, created.Role)

  userRepo := repos.NewUserRepo(db, logger.NewNop())
  users, err := userRepo.GetByUsernames(context.Background(), nil, []string{"supplier1"})
  require.NoError(t, err)
  require.Len(t, users, 1)
  require.Equal(t, types.RoleUser, users[0].Role)
  require.True(t, users[0].IsActive)
  // Email is stored normalized, password is not stored in the clear.
  require.Equal(t, "supplier1@example.com", users[0].Email)
  require.NotEqual(t, "secret123", users[0].Password)
}

func TestRegisterUser_RejectsDuplicateUsername(t *testing.T) {
  db := newTestDB(t)
  svc, _ := newAuthService(db)

  _, _, _, err := svc.RegisterUser(context.Background(), &types.User{
    Username: "supplier1", Email: "a@example.com", Password: "secret123",
  })
  require.NoError(t, err)

  _, _, _, err = svc.RegisterUser(context.Background(), &types.User{
    Username: "supplier1", Email: "b@example.com", Password: "secret123",
  })
  require.Error(t, err)
}

func TestLogin(t *testing.T) {
  db := newTestDB(t)
  svc, tokenRepo := newAuthService(db)
  user := newTestUser(t, db, "supplier1", types.RoleUser)

  access, refresh, loggedIn, err := svc.Login(context.Background(), "supplier1", "secret123")
  require.NoError(t, err)
  require.NotEmpty(t, access)
  require.NotEmpty(t, refresh)
  require.NotNil(t, loggedIn)
  require.Equal(t, user.ID, loggedIn.ID)
  require.Equal(t, "supplier1", loggedIn.Username)

  stored, err := tokenRepo.GetByAccessTokens(context.Background(), nil, []string{access})
  require.NoError(t, err)
  require.Len(t, stored, 1)
  require.Equal(t, user.ID, stored[0].UserID)
  require.Equal(t, refresh, stored[0].RefreshToken)

  _, _, _, err = svc.Login(context.Background(), "supplier1", "wrong-password")
  require.Error(t, err)
  _, _, _, err = svc.Login(context.Background(), "nobody", "secret123")
  require.Error(t, err)
}

func TestLogin_DeactivatedAccount(t *testing.T) {
  db := newTestDB(t)
  svc, _ := newAuthService(db)
  user := newTestUser(t, db, "supplier1", types.RoleUser)

  require.NoError(t, db.Model(&types.User{}).Where("id = ?", user.ID).Update("is_active", false).Error)

  _, _, _, err := svc.Login(context.Background(), "supplier1", "secret123")
  require.Error(t, err)
  require.Contains(t, err.Error(), "deactivated")
}

func TestSetContextFromToken(t *testing.T) {
  db := newTestDB(t)
  svc, _ := newAuthService(db)
  user := newTestUser(t, db, "supplier1", types.RoleUser)

  access, refresh, _, err := svc.Login(context.Background(), "supplier1", "secret123")
  require.NoError(t, err)

  ctx, err := svc.SetContextFromToken(context.Background(), access)
  require.NoError(t, err)
  rd := requestDataFrom(t, ctx)
  require.Equal(t, user.ID, rd.UserID)
  require.Equal(t, "supplier1", rd.Username)
  require.Equal(t, types.RoleUser, rd.Role)
  require.Equal(t, refresh, rd.RefreshToken)

  _, err = svc.SetContextFromToken(context.Background(), "not-a-jwt")
  require.Error(t, err)
}

func TestRefresh_RotatesTokenPair(t *testing.T) {
  db := newTestDB(t)
  svc, tokenRepo := newAuthService(db)
  newTestUser(t, db, "supplier1", types.RoleUser)

  access, _, _, err := svc.Login(context.Background(), "supplier1", "secret123")
  require.NoError(t, err)
  ctx, err := svc.SetContextFromToken(context.Background(), access)
  require.NoError(t, err)

  newAccess, newRefresh, err := svc.Refresh(ctx)
  require.NoError(t, err)
  require.NotEmpty(t, newAccess)
  require.NotEmpty(t, newRefresh)
  require.NotEqual(t, access, newAccess)

  // The old pair is revoked, the new one is live.
  old, err := tokenRepo.GetByAccessTokens(context.Background(), nil, []string{access})
  require.NoError(t, err)
  require.Empty(t, old)
  current, err := tokenRepo.GetByAccessTokens(context.Background(), nil, []string{newAccess})
  require.NoError(t, err)
  require.Len(t, current, 1)
}

func TestLogout_RevokesToken(t *testing.T) {
  db := newTestDB(t)
  svc, tokenRepo := newAuthService(db)
  newTestUser(t, db, "supplier1", types.RoleUser)

  access, _, _, err := svc.Login(context.Background(), "supplier1", "secret123")
  require.NoError(t, err)
  ctx, err := svc.SetContextFromToken(context.Background(), access)
  require.NoError(t, err)

  require.NoError(t, svc.Logout(ctx))

  stored, err := tokenRepo.GetByAccessTokens(context.Background(), nil, []string{access})
  require.NoError(t, err)
  require.Empty(t, stored)

  // A revoked token can no longer authenticate.
  _, err = svc.SetContextFromToken(context.Background(), access)
  require.Error(t, err)
}
