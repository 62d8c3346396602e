package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/alumnethq/alumnet/internal/app"
	iauth "github.com/alumnethq/alumnet/internal/auth"
	"github.com/alumnethq/alumnet/internal/database/testutil"
	"github.com/alumnethq/alumnet/internal/models"
	"github.com/alumnethq/alumnet/internal/realtime"
	"github.com/alumnethq/alumnet/internal/services"
	"github.com/alumnethq/alumnet/pkg/mail"
)

type routerFixture struct {
	router *gin.Engine
	db     *gorm.DB
	jwt    *iauth.JWTService
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	jwt, err := iauth.NewJWTService(iauth.JWTConfig{Secret: "test-secret", Issuer: "alumnet"})
	require.NoError(t, err)

	users, err := services.NewUserService(db)
	require.NoError(t, err)
	groups, err := services.NewGroupService(db)
	require.NoError(t, err)
	notifications, err := services.NewNotificationService(db)
	require.NoError(t, err)

	authn, err := services.NewTokenAuthenticator(jwt, users)
	require.NoError(t, err)
	hub := realtime.NewHub(realtime.NewRegistry(), authn)

	mailer, err := mail.NewSMTPMailer(mail.SMTPSettings{Enabled: false})
	require.NoError(t, err)
	dispatcher, err := services.NewDispatcher(notifications, users, hub, mailer, 10)
	require.NoError(t, err)

	chat, err := services.NewChatService(db, groups, users, dispatcher, hub)
	require.NoError(t, err)
	hub.SetMessageHandler(chat)

	posts, err := services.NewPostService(db, users, dispatcher)
	require.NoError(t, err)

	cfg := &app.Config{}
	cfg.Features.Metrics.Enabled = true
	cfg.Features.Metrics.Endpoint = "/metrics"

	router, err := NewRouter(Deps{
		DB:            db,
		Config:        cfg,
		JWT:           jwt,
		Users:         users,
		Groups:        groups,
		Posts:         posts,
		Notifications: notifications,
		Chat:          chat,
		Dispatcher:    dispatcher,
		Hub:           hub,
	})
	require.NoError(t, err)

	return &routerFixture{router: router, db: db, jwt: jwt}
}

func (f *routerFixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *routerFixture) adminToken(t *testing.T) string {
	t.Helper()

	admin := &models.User{
		Username: "admin", Email: "admin@example.com", Password: "hash",
		DisplayName: "Admin", IsAdmin: true, IsApproved: true,
	}
	require.NoError(t, f.db.Create(admin).Error)

	token, err := f.jwt.GenerateAccessToken(iauth.AccessTokenInput{UserID: admin.ID, Admin: true})
	require.NoError(t, err)
	return token
}

func TestRegisterLoginApproveFlow(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "pw12345678",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"login":    "alice",
		"password": "pw12345678",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var login struct {
		Data struct {
			Token string `json:"token"`
			User  struct {
				ID string `json:"id"`
			} `json:"user"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	require.NotEmpty(t, login.Data.Token)

	// Pending accounts can see their own record but not the directory.
	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/auth/me", login.Data.Token, nil).Code)
	require.Equal(t, http.StatusForbidden, f.do(t, http.MethodGet, "/api/users", login.Data.Token, nil).Code)

	admin := f.adminToken(t)
	rec = f.do(t, http.MethodGet, "/api/admin/pending", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	approve := fmt.Sprintf("/api/admin/users/%s/approve", login.Data.User.ID)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, approve, admin, nil).Code)

	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/users", login.Data.Token, nil).Code)

	// Approval dispatched a welcome notification.
	rec = f.do(t, http.MethodGet, "/api/notifications/unread-count", login.Data.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"unread":1`)
}

func TestAdminRoutesRejectNonAdmins(t *testing.T) {
	f := newRouterFixture(t)

	member := &models.User{
		Username: "bob", Email: "bob@example.com", Password: "hash",
		DisplayName: "Bob", IsApproved: true,
	}
	require.NoError(t, f.db.Create(member).Error)
	token, err := f.jwt.GenerateAccessToken(iauth.AccessTokenInput{UserID: member.ID})
	require.NoError(t, err)

	require.Equal(t, http.StatusForbidden, f.do(t, http.MethodGet, "/api/admin/pending", token, nil).Code)
}

func TestGroupAndPostRoutes(t *testing.T) {
	f := newRouterFixture(t)

	member := &models.User{
		Username: "bob", Email: "bob@example.com", Password: "hash",
		DisplayName: "Bob", IsApproved: true,
	}
	require.NoError(t, f.db.Create(member).Error)
	token, err := f.jwt.GenerateAccessToken(iauth.AccessTokenInput{UserID: member.ID})
	require.NoError(t, err)

	rec := f.do(t, http.MethodPost, "/api/groups", token, gin.H{"name": "Chess"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	require.Equal(t, http.StatusOK,
		f.do(t, http.MethodGet, "/api/groups/"+created.Data.ID+"/messages", token, nil).Code)

	rec = f.do(t, http.MethodPost, "/api/posts", token, gin.H{"title": "Hello", "body": "First post"})
	require.Equal(t, http.StatusCreated, rec.Code)

	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/posts", token, nil).Code)
}

func TestUnknownRouteReturnsJSON404(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodGet, "/api/nope", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), `"success":false`)
}

func TestHealthEndpoint(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":"ok"`)
}
