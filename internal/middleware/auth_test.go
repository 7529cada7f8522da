package middleware

import (
  "context"
  "net/http"
  "net/http/httptest"
  "testing"
  "time"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"
  "github.com/stretchr/testify/require"
  "golang.org/x/crypto/bcrypt"
  "gorm.io/driver/sqlite"
  "gorm.io/gorm"
  gormlogger "gorm.io/gorm/logger"

  "github.com/supplier-portal/assistant-backend/internal/logger"
  "github.com/supplier-portal/assistant-backend/internal/repos"
  "github.com/supplier-portal/assistant-backend/internal/requestdata"
  "github.com/supplier-portal/assistant-backend/internal/services"
  "github.com/supplier-portal/assistant-backend/internal/types"
)

type authFixture struct {
  router      *gin.Engine
  userToken   string
  adminToken  string
}

func newAuthFixture(t *testing.T) *authFixture {
  t.Helper()
  gin.SetMode(gin.TestMode)

  db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
    Logger: gormlogger.Default.LogMode(gormlogger.Silent),
  })
  require.NoError(t, err)
  require.NoError(t, db.AutoMigrate(&types.User{}, &types.UserToken{}))

  log := logger.NewNop()
  userRepo := repos.NewUserRepo(db, log)
  tokenRepo := repos.NewUserTokenRepo(db, log)
  authService := services.NewAuthService(db, log, userRepo, tokenRepo, nil, "test-secret", time.Hour, 24*time.Hour)

  hashed, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.DefaultCost)
  require.NoError(t, err)
  for _, u := range []*types.User{
    {ID: uuid.New(), Username: "supplier1", Email: "s@example.com", Password: string(hashed), Role: types.RoleUser, IsActive: true},
    {ID: uuid.New(), Username: "admin1", Email: "a@example.com", Password: string(hashed), Role: types.RoleAdmin, IsActive: true},
  } {
    _, err = userRepo.Create(context.Background(), nil, []*types.User{u})
    require.NoError(t, err)
  }
  userToken, _, _, err := authService.Login(context.Background(), "supplier1", "secret123")
  require.NoError(t, err)
  adminToken, _, _, err := authService.Login(context.Background(), "admin1", "secret123")
  require.NoError(t, err)

  am := NewAuthMiddleware(log, authService)
  router := gin.New()
  router.GET("/me", am.RequireAuth(), func(c *gin.Context) {
    rd := requestdata.GetRequestData(c.Request.Context())
    c.JSON(http.StatusOK, gin.H{"username": rd.Username})
  })
  router.GET("/admin", am.RequireRole(types.RoleAdmin), func(c *gin.Context) {
    c.JSON(http.StatusOK, gin.H{"status": "ok"})
  })

  return &authFixture{router: router, userToken: userToken, adminToken: adminToken}
}

func (f *authFixture) get(path, token string) *httptest.ResponseRecorder {
  req := httptest.NewRequest(http.MethodGet, path, nil)
  if token != "" {
    req.Header.Set("Authorization", "Bearer "+token)
  }
  w := httptest.NewRecorder()
  f.router.ServeHTTP(w, req)
  return w
}

func TestRequireAuth_MissingToken(t *testing.T) {
  f := newAuthFixture(t)
  w := f.get("/me", "")
  require.Equal(t, http.StatusUnauthorized, w.Code)
  require.Contains(t, w.Body.String(), "Необходима авторизация")
}

func TestRequireAuth_BadToken(t *testing.T) {
  f := newAuthFixture(t)
  w := f.get("/me", "not-a-jwt")
  require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuth_ValidToken(t *testing.T) {
  f := newAuthFixture(t)
  w := f.get("/me", f.userToken)
  require.Equal(t, http.StatusOK, w.Code)
  require.Contains(t, w.Body.String(), "supplier1")
}

func TestRequireAuth_QueryToken(t *testing.T) {
  // Websocket clients cannot set headers, so the token may ride the query.
  f := newAuthFixture(t)
  req := httptest.NewRequest(http.MethodGet, "/me?token="+f.userToken, nil)
  w := httptest.NewRecorder()
  f.router.ServeHTTP(w, req)
  require.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRole(t *testing.T) {
  f := newAuthFixture(t)

  w := f.get("/admin", f.userToken)
  require.Equal(t, http.StatusForbidden, w.Code)

  w = f.get("/admin", f.adminToken)
  require.Equal(t, http.StatusOK, w.Code)

  w = f.get("/admin", "")
  require.Equal(t, http.StatusUnauthorized, w.Code)
}
