package api

import (
	"html/template"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/scribe-social/scribe/internal/auth"
	"github.com/scribe-social/scribe/internal/cache"
	"github.com/scribe-social/scribe/internal/db"
	"github.com/scribe-social/scribe/internal/media"
	"github.com/scribe-social/scribe/pkg/config"
)

// testServer bundles a routed engine with direct database access for
// fixtures and assertions
type testServer struct {
	engine *gin.Engine
	gdb    *gorm.DB
	repo   *db.Repository
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	database := &db.DB{DB: gdb}
	repo := db.NewRepository(gdb)

	sessions := auth.NewSessions(&config.AuthConfig{
		SessionSecret: "test-secret",
		SessionName:   "scribe_test",
		SessionMaxAge: 3600,
	}, db.NewUserRepository(repo))

	mediaStore, err := media.NewStore(&config.MediaConfig{Dir: t.TempDir(), MaxUploadMB: 8})
	if err != nil {
		t.Fatalf("failed to set up media store: %v", err)
	}

	pages := cache.NewPageCache(nil, 0)

	engine := gin.New()
	engine.SetHTMLTemplate(template.Must(template.ParseGlob("../../templates/*.html")))

	router := NewRouter(database, nil, pages, sessions, mediaStore)
	router.SetupRoutes(engine)

	return &testServer{engine: engine, gdb: gdb, repo: repo}
}

// signup registers a user through the real handler and returns the session
// cookies for follow-up requests
func (ts *testServer) signup(t *testing.T, username string) []*http.Cookie {
	t.Helper()

	form := url.Values{
		"username": {username},
		"email":    {username + "@example.com"},
		"password": {"long-enough-password"},
	}
	w := ts.do(t, http.MethodPost, "/auth/signup/", form, nil)
	if w.Code != http.StatusFound {
		t.Fatalf("signup for %s: status = %d, want 302", username, w.Code)
	}
	cookies := w.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatalf("signup for %s set no session cookie", username)
	}
	return cookies
}

// do performs a form request against the test server
func (ts *testServer) do(t *testing.T, method, path string, form url.Values, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	ts.engine.ServeHTTP(w, req)
	return w
}

func (ts *testServer) count(t *testing.T, model interface{}) int64 {
	t.Helper()
	var count int64
	if err := ts.gdb.Model(model).Count(&count).Error; err != nil {
		t.Fatalf("failed to count rows: %v", err)
	}
	return count
}
