package repos

import (
  "context"
  "fmt"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/supplier-portal/assistant-backend/internal/logger"
  "github.com/supplier-portal/assistant-backend/internal/requestdata"
  "github.com/supplier-portal/assistant-backend/internal/types"
)

type UserRepo interface {
  // CREATE
  Create(ctx context.Context, tx *gorm.DB, users []*types.User) ([]*types.User, error)

  // READ
  GetByIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.User, error)
  GetByUsernames(ctx context.Context, tx *gorm.DB, usernames []string) ([]*types.User, error)
  GetByEmails(ctx context.Context, tx *gorm.DB, userEmails []string) ([]*types.User, error)
  UsernameExists(ctx context.Context, tx *gorm.DB, username string) (bool, error)
  EmailExists(ctx context.Context, tx *gorm.DB, userEmail string) (bool, error)
  List(ctx context.Context, tx *gorm.DB, offset, limit int) ([]*types.User, error)
  Count(ctx context.Context, tx *gorm.DB) (int64, error)

  // UPDATE
  Update(ctx context.Context, tx *gorm.DB, users []*types.User) ([]*types.User, error)
  UpdateRole(ctx context.Context, tx *gorm.DB, userID uuid.UUID, role string) (*types.User, error)

  // MISC
  GetMe(ctx context.Context, tx *gorm.DB) (*types.User, error)
}

type userRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
  repoLog := baseLog.With("repo", "UserRepo")
  return &userRepo{db: db, log: repoLog}
}

// ----------------------------------------------------------------
// CREATE
// ----------------------------------------------------------------

func (ur *userRepo) Create(ctx context.Context, tx *gorm.DB, users []*types.User) ([]*types.User, error) {
  transaction := tx
  if transaction == nil {
    transaction = ur.db
  }
  if len(users) == 0 {
    return []*types.User{}, nil
  }
  for _, u := range users {
    if u.ID == uuid.Nil {
      u.ID = uuid.New()
    }
    if u.Role == "" {
      u.Role = types.RoleUser
    }
  }
  if err := transaction.WithContext(ctx).Create(&users).Error; err != nil {
    ur.log.Warn("Failed to create users", "error", err)
    return nil, fmt.Errorf("failed to create users: %w", err)
  }
  return users, nil
}

// ----------------------------------------------------------------
// READ
// ----------------------------------------------------------------

func (ur *userRepo) GetByIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.User, error) {
  transaction := tx
  if transaction == nil {
    transaction = ur.db
  }
  var users []*types.User
  if err := transaction.WithContext(ctx).
    Where("id IN ?", userIDs).
    Find(&users).Error; err != nil {
    ur.log.Warn("Failed to get users by ids", "error", err)
    return nil, fmt.Errorf("failed to get users by ids: %w", err)
  }
  return users, nil
}

func (ur *userRepo) GetByUsernames(ctx context.Context, tx *gorm.DB, usernames []string) ([]*types.User, error) {
  transaction := tx
  if transaction == nil {
    transaction = ur.db
  }
  var users []*types.User
  if err := transaction.WithContext(ctx).
    Where("username IN ?", usernames).
    Find(&users).Error; err != nil {
    ur.log.Warn("Failed to get users by usernames", "error", err)
    return nil, fmt.Errorf("failed to get users by usernames: %w", err)
  }
  return users, nil
}

func (ur *userRepo) GetByEmails(ctx context.Context, tx *gorm.DB, userEmails []string) ([]*types.User, error) {
  transaction := tx
  if transaction == nil {
    transaction = ur.db
  }
  var users []*types.User
  if err := transaction.WithContext(ctx).
    Where("email IN ?", userEmails).
    Find(&users).Error; err != nil {
    ur.log.Warn("Failed to get users by emails", "error", err)
    return nil, fmt.Errorf("failed to get users by emails: %w", err)
  }
  return users, nil
}

func (ur *userRepo) UsernameExists(ctx context.Context, tx *gorm.DB, username string) (bool, error) {
  transaction := tx
  if transaction == nil {
    transaction = ur.db
  }
  var count int64
  if err := transaction.WithContext(ctx).
    Model(&types.User{}).
    Where("username = ?", username).
    Count(&count).Error; err != nil {
    return false, fmt.Errorf("failed checking username existence: %w", err)
  }
  return count > 0, nil
}

func (ur *userRepo) EmailExists(ctx context.Context, tx *gorm.DB, userEmail string) (bool, error) {
  transaction := tx
  if transaction == nil {
    transaction = ur.db
  }
  var count int64
  if err := transaction.WithContext(ctx).
    Model(&types.User{}).
    Where("email = ?", userEmail).
    Count(&count).Error; err != nil {
    return false, fmt.Errorf("failed checking email existence: %w", err)
  }
  return count > 0, nil
}

// List pages over all accounts ordered by creation time, oldest first. The
// admin table drives offset/limit straight from its query string.
func (ur *userRepo) List(ctx context.Context, tx *gorm.DB, offset, limit int) ([]*types.User, error) {
  transaction := tx
  if transaction == nil {
    transaction = ur.db
  }
  if limit <= 0 {
    limit = 100
  }
  if offset < 0 {
    offset = 0
  }
  var users []*types.User
  if err := transaction.WithContext(ctx).
    Order("created_at ASC").
    Offset(offset).
    Limit(limit).
    Find(&users).Error; err != nil {
    ur.log.Warn("Failed to list users", "error", err)
    return nil, fmt.Errorf("failed to list users: %w", err)
  }
  return users, nil
}

func (ur *userRepo) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
  transaction := tx
  if transaction == nil {
    transaction = ur.db
  }
  var count int64
  if err := transaction.WithContext(ctx).
    Model(&types.User{}).
    Count(&count).Error; err != nil {
    return 0, fmt.Errorf("failed to count users: %w", err)
  }
  return count, nil
}

// ----------------------------------------------------------------
// UPDATE
// ----------------------------------------------------------------

func (ur *userRepo) Update(ctx context.Context, tx *gorm.DB, users []*types.User) ([]*types.User, error) {
  transaction := tx
  if transaction == nil {
    transaction = ur.db
  }
  if len(users) == 0 {
    return users, nil
  }
  for _, u := range users {
    if err := transaction.WithContext(ctx).Save(u).Error; err != nil {
      ur.log.Warn("Failed to update user", "error", err, "userID", u.ID)
      return nil, fmt.Errorf("failed to update user %s: %w", u.ID, err)
    }
  }
  return users, nil
}

func (ur *userRepo) UpdateRole(ctx context.Context, tx *gorm.DB, userID uuid.UUID, role string) (*types.User, error) {
  transaction := tx
  if transaction == nil {
    transaction = ur.db
  }
  if !types.ValidRole(role) {
    return nil, fmt.Errorf("invalid role: %q", role)
  }
  if err := transaction.WithContext(ctx).
    Model(&types.User{}).
    Where("id = ?", userID).
    Update("role", role).Error; err != nil {
    ur.log.Warn("Failed to update user role", "error", err, "userID", userID)
    return nil, fmt.Errorf("failed to update user role: %w", err)
  }
  found, err := ur.GetByIDs(ctx, transaction, []uuid.UUID{userID})
  if err != nil {
    return nil, err
  }
  if len(found) == 0 {
    return nil, fmt.Errorf("no user with id %s", userID)
  }
  return found[0], nil
}

// ----------------------------------------------------------------
// MISC
// ----------------------------------------------------------------

func (ur *userRepo) GetMe(ctx context.Context, tx *gorm.DB) (*types.User, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return nil, fmt.Errorf("no request data in context")
  }
  found, err := ur.GetByIDs(ctx, tx, []uuid.UUID{rd.UserID})
  if err != nil {
    return nil, err
  }
  if len(found) == 0 {
    return nil, fmt.Errorf("no user with id %s", rd.UserID)
  }
  return found[0], nil
}
