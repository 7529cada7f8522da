package services

import (
  "context"
  "strings"
  "testing"

  "github.com/google/uuid"
  "github.com/stretchr/testify/require"
  "golang.org/x/crypto/bcrypt"
  "gorm.io/driver/sqlite"
  "gorm.io/gorm"
  gormlogger "gorm.io/gorm/logger"

  "github.com/supplier-portal/assistant-backend/internal/logger"
  "github.com/supplier-portal/assistant-backend/internal/repos"
  "github.com/supplier-portal/assistant-backend/internal/requestdata"
  "github.com/supplier-portal/assistant-backend/internal/types"
)

// newTestDB opens a private in-memory database and migrates the full schema.
// Each test gets its own named database so state never leaks between tests.
func newTestDB(t *testing.T) *gorm.DB {
  t.Helper()
  dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
  db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
    Logger: gormlogger.Default.LogMode(gormlogger.Silent),
  })
  require.NoError(t, err)
  require.NoError(t, db.AutoMigrate(
    &types.User{},
    &types.UserToken{},
    &types.ChatMessage{},
    &types.ChatRating{},
    &types.SupportRequest{},
  ))
  return db
}

func newTestUser(t *testing.T, db *gorm.DB, username, role string) *types.User {
  t.Helper()
  hashed, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.DefaultCost)
  require.NoError(t, err)
  user := &types.User{
    ID:       uuid.New(),
    Username: username,
    Email:    username + "@example.com",
    Password: string(hashed),
    Role:     role,
    IsActive: true,
  }
  userRepo := repos.NewUserRepo(db, logger.NewNop())
  created, err := userRepo.Create(context.Background(), nil, []*types.User{user})
  require.NoError(t, err)
  require.Len(t, created, 1)
  return created[0]
}

func requestDataFrom(t *testing.T, ctx context.Context) *requestdata.RequestData {
  t.Helper()
  rd := requestdata.GetRequestData(ctx)
  require.NotNil(t, rd)
  return rd
}

// ctxFor builds the request context RequireAuth would have produced for the
// given user.
func ctxFor(user *types.User) context.Context {
  return requestdata.WithRequestData(context.Background(), &requestdata.RequestData{
    UserID:   user.ID,
    Username: user.Username,
    Role:     user.Role,
  })
}
