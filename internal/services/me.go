package services

import (
  "context"
  "fmt"

  "gorm.io/gorm"

  "github.com/supplier-portal/assistant-backend/internal/logger"
  "github.com/supplier-portal/assistant-backend/internal/repos"
  "github.com/supplier-portal/assistant-backend/internal/types"
)

type MeService interface {
  GetMe(ctx context.Context) (*types.User, error)
}

type meService struct {
  db       *gorm.DB
  log      *logger.Logger
  userRepo repos.UserRepo
}

func NewMeService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo) MeService {
  serviceLog := log.With("service", "MeService")
  return &meService{db: db, log: serviceLog, userRepo: userRepo}
}

func (ms *meService) GetMe(ctx context.Context) (*types.User, error) {
  user, err := ms.userRepo.GetMe(ctx, nil)
  if err != nil {
    ms.log.Warn("Failed to load current user, Cannot proceed. Returning error.", "error", err)
    return nil, fmt.Errorf("Failed to load current user: %w", err)
  }
  return user, nil
}
