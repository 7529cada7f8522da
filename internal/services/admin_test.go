package services

import (
  "fmt"
  "testing"

  "github.com/stretchr/testify/require"
  "gorm.io/gorm"

  "github.com/supplier-portal/assistant-backend/internal/logger"
  "github.com/supplier-portal/assistant-backend/internal/repos"
  "github.com/supplier-portal/assistant-backend/internal/types"
)

func newAdminService(db *gorm.DB) AdminService {
  log := logger.NewNop()
  userRepo := repos.NewUserRepo(db, log)
  messageRepo := repos.NewChatMessageRepo(db, log)
  tokenRepo := repos.NewUserTokenRepo(db, log)
  return NewAdminService(db, log, userRepo, messageRepo, tokenRepo)
}

func TestListUsers_AdminOnly(t *testing.T) {
  db := newTestDB(t)
  svc := newAdminService(db)
  admin := newTestUser(t, db, "admin1", types.RoleAdmin)
  supplier := newTestUser(t, db, "supplier1", types.RoleUser)

  _, _, err := svc.ListUsers(ctxFor(supplier), 0, 10)
  require.Error(t, err)

  users, total, err := svc.ListUsers(ctxFor(admin), 0, 10)
  require.NoError(t, err)
  require.Equal(t, int64(2), total)
  require.Len(t, users, 2)
}

func TestListUsers_Pagination(t *testing.T) {
  db := newTestDB(t)
  svc := newAdminService(db)
  admin := newTestUser(t, db, "admin1", types.RoleAdmin)
  for i := 0; i < 24; i++ {
    newTestUser(t, db, fmt.Sprintf("supplier%02d", i), types.RoleUser)
  }

  ctx := ctxFor(admin)
  page1, total, err := svc.ListUsers(ctx, 0, 10)
  require.NoError(t, err)
  require.Equal(t, int64(25), total)
  require.Len(t, page1, 10)

  page3, _, err := svc.ListUsers(ctx, 20, 10)
  require.NoError(t, err)
  require.Len(t, page3, 5)
}

func TestUpdateUserRole(t *testing.T) {
  db := newTestDB(t)
  adminSvc := newAdminService(db)
  authSvc, tokenRepo := newAuthService(db)
  admin := newTestUser(t, db, "admin1", types.RoleAdmin)
  supplier := newTestUser(t, db, "supplier1", types.RoleUser)
  ctx := ctxFor(admin)

  // The target holds a live session that the role change must revoke.
  access, _, _, err := authSvc.Login(ctx, "supplier1", "secret123")
  require.NoError(t, err)

  updated, err := adminSvc.UpdateUserRole(ctx, supplier.ID, types.RoleOperator)
  require.NoError(t, err)
  require.Equal(t, types.RoleOperator, updated.Role)

  stored, err := tokenRepo.GetByAccessTokens(ctx, nil, []string{access})
  require.NoError(t, err)
  require.Empty(t, stored)

  _, err = adminSvc.UpdateUserRole(ctx, supplier.ID, "superuser")
  require.Error(t, err)
  _, err = adminSvc.UpdateUserRole(ctx, admin.ID, types.RoleUser)
  require.Error(t, err)
  _, err = adminSvc.UpdateUserRole(ctxFor(supplier), admin.ID, types.RoleUser)
  require.Error(t, err)
}

func TestSetUserActive(t *testing.T) {
  db := newTestDB(t)
  adminSvc := newAdminService(db)
  authSvc, tokenRepo := newAuthService(db)
  admin := newTestUser(t, db, "admin1", types.RoleAdmin)
  supplier := newTestUser(t, db, "supplier1", types.RoleUser)
  ctx := ctxFor(admin)

  access, _, _, err := authSvc.Login(ctx, "supplier1", "secret123")
  require.NoError(t, err)

  updated, err := adminSvc.SetUserActive(ctx, supplier.ID, false)
  require.NoError(t, err)
  require.False(t, updated.IsActive)

  // Blocking kicks the user out and closes the door behind them.
  stored, err := tokenRepo.GetByAccessTokens(ctx, nil, []string{access})
  require.NoError(t, err)
  require.Empty(t, stored)
  _, _, _, err = authSvc.Login(ctx, "supplier1", "secret123")
  require.Error(t, err)

  updated, err = adminSvc.SetUserActive(ctx, supplier.ID, true)
  require.NoError(t, err)
  require.True(t, updated.IsActive)
  _, _, _, err = authSvc.Login(ctx, "supplier1", "secret123")
  require.NoError(t, err)

  _, err = adminSvc.SetUserActive(ctx, admin.ID, false)
  require.Error(t, err)
}

func TestListUserChats(t *testing.T) {
  db := newTestDB(t)
  adminSvc := newAdminService(db)
  chatSvc := newChatService(db)
  admin := newTestUser(t, db, "admin1", types.RoleAdmin)
  supplier := newTestUser(t, db, "supplier1", types.RoleUser)

  _, err := chatSvc.SendMessage(ctxFor(supplier), "chat-1", "Как участвовать в тендере?", false)
  require.NoError(t, err)

  items, err := adminSvc.ListUserChats(ctxFor(admin), supplier.ID)
  require.NoError(t, err)
  require.Len(t, items, 1)
  require.Equal(t, "chat-1", items[0].ID)
  require.Equal(t, "Как участвовать в тендере?", items[0].Question)

  _, err = adminSvc.ListUserChats(ctxFor(supplier), admin.ID)
  require.Error(t, err)
}
