package services

import (
  "context"
  "fmt"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/supplier-portal/assistant-backend/internal/history"
  "github.com/supplier-portal/assistant-backend/internal/logger"
  "github.com/supplier-portal/assistant-backend/internal/repos"
  "github.com/supplier-portal/assistant-backend/internal/requestdata"
  "github.com/supplier-portal/assistant-backend/internal/types"
)

type AdminService interface {
  ListUsers(ctx context.Context, skip, limit int) ([]*types.User, int64, error)
  UpdateUserRole(ctx context.Context, userID uuid.UUID, role string) (*types.User, error)
  SetUserActive(ctx context.Context, userID uuid.UUID, active bool) (*types.User, error)
  ListUserChats(ctx context.Context, userID uuid.UUID) ([]history.Item, error)
}

type adminService struct {
  db            *gorm.DB
  log           *logger.Logger
  userRepo      repos.UserRepo
  messageRepo   repos.ChatMessageRepo
  userTokenRepo repos.UserTokenRepo
}

func NewAdminService(
  db *gorm.DB,
  log *logger.Logger,
  userRepo repos.UserRepo,
  messageRepo repos.ChatMessageRepo,
  userTokenRepo repos.UserTokenRepo,
) AdminService {
  serviceLog := log.With("service", "AdminService")
  return &adminService{
    db:            db,
    log:           serviceLog,
    userRepo:      userRepo,
    messageRepo:   messageRepo,
    userTokenRepo: userTokenRepo,
  }
}

func (as *adminService) ListUsers(ctx context.Context, skip, limit int) ([]*types.User, int64, error) {
  if err := as.requireAdmin(ctx); err != nil {
    return nil, 0, err
  }
  users, err := as.userRepo.List(ctx, nil, skip, limit)
  if err != nil {
    return nil, 0, err
  }
  total, err := as.userRepo.Count(ctx, nil)
  if err != nil {
    return nil, 0, err
  }
  return users, total, nil
}

func (as *adminService) UpdateUserRole(ctx context.Context, userID uuid.UUID, role string) (*types.User, error) {
  rd := requestdata.GetRequestData(ctx)
  if err := as.requireAdmin(ctx); err != nil {
    return nil, err
  }
  if rd.UserID == userID {
    as.log.Warn("Admin attempted to change own role, Cannot proceed.", "userID", userID)
    return nil, fmt.Errorf("cannot change your own role")
  }
  var updated *types.User
  err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    u, uErr := as.userRepo.UpdateRole(ctx, tx, userID, role)
    if uErr != nil {
      return uErr
    }
    // A role change invalidates any session issued under the old role.
    if dErr := as.userTokenRepo.FullDeleteByUserIDs(ctx, tx, []uuid.UUID{userID}); dErr != nil {
      return dErr
    }
    updated = u
    return nil
  })
  if err != nil {
    return nil, err
  }
  return updated, nil
}

func (as *adminService) SetUserActive(ctx context.Context, userID uuid.UUID, active bool) (*types.User, error) {
  rd := requestdata.GetRequestData(ctx)
  if err := as.requireAdmin(ctx); err != nil {
    return nil, err
  }
  if rd.UserID == userID {
    as.log.Warn("Admin attempted to block own account, Cannot proceed.", "userID", userID)
    return nil, fmt.Errorf("cannot block your own account")
  }
  var updated *types.User
  err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    found, fErr := as.userRepo.GetByIDs(ctx, tx, []uuid.UUID{userID})
    if fErr != nil {
      return fErr
    }
    if len(found) == 0 {
      return fmt.Errorf("no user with id %s", userID)
    }
    user := found[0]
    user.IsActive = active
    if _, uErr := as.userRepo.Update(ctx, tx, []*types.User{user}); uErr != nil {
      return uErr
    }
    if !active {
      if dErr := as.userTokenRepo.FullDeleteByUserIDs(ctx, tx, []uuid.UUID{userID}); dErr != nil {
        return dErr
      }
    }
    updated = user
    return nil
  })
  if err != nil {
    return nil, err
  }
  return updated, nil
}

func (as *adminService) ListUserChats(ctx context.Context, userID uuid.UUID) ([]history.Item, error) {
  if err := as.requireAdmin(ctx); err != nil {
    return nil, err
  }
  messages, err := as.messageRepo.GetByUserID(ctx, nil, userID)
  if err != nil {
    return nil, err
  }
  return history.FormatChatHistory(messages), nil
}

func (as *adminService) requireAdmin(ctx context.Context) error {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil {
    as.log.Warn("No Request Data found in context, Cannot proceed.")
    return fmt.Errorf("No Request Data found in context.")
  }
  if rd.Role != types.RoleAdmin {
    as.log.Warn("User is not an admin, Cannot proceed.", "userID", rd.UserID, "role", rd.Role)
    return fmt.Errorf("admin role required")
  }
  return nil
}
