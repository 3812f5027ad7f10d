package httpserver

import (
	"context"
	"errors"
	"html/template"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/pscheid92/moodscope/internal/domain"
	"github.com/pscheid92/moodscope/internal/platform/config"
	"github.com/stretchr/testify/require"
)

// --- Mock implementations ---

type mockAppService struct {
	getUserFn      func(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	upsertUserFn   func(ctx context.Context, profile domain.UserProfile) (*domain.User, error)
	analyzeFn      func(ctx context.Context, userID uuid.UUID, text string) (*domain.Analysis, error)
	listAnalysesFn func(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Analysis, error)
	userStatsFn    func(ctx context.Context, userID uuid.UUID) (*domain.UserStats, error)
	appStatsFn     func(ctx context.Context) (*domain.AppStats, error)
}

func (m *mockAppService) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	if m.getUserFn != nil {
		return m.getUserFn(ctx, userID)
	}
	return nil, domain.ErrUserNotFound
}

func (m *mockAppService) UpsertUser(ctx context.Context, profile domain.UserProfile) (*domain.User, error) {
	if m.upsertUserFn != nil {
		return m.upsertUserFn(ctx, profile)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAppService) Analyze(ctx context.Context, userID uuid.UUID, text string) (*domain.Analysis, error) {
	if m.analyzeFn != nil {
		return m.analyzeFn(ctx, userID, text)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAppService) ListAnalyses(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Analysis, error) {
	if m.listAnalysesFn != nil {
		return m.listAnalysesFn(ctx, userID, limit)
	}
	return []domain.Analysis{}, nil
}

func (m *mockAppService) UserStats(ctx context.Context, userID uuid.UUID) (*domain.UserStats, error) {
	if m.userStatsFn != nil {
		return m.userStatsFn(ctx, userID)
	}
	return &domain.UserStats{MostCommonEmotion: domain.EmotionNeutral}, nil
}

func (m *mockAppService) AppStats(ctx context.Context) (*domain.AppStats, error) {
	if m.appStatsFn != nil {
		return m.appStatsFn(ctx)
	}
	return &domain.AppStats{}, nil
}

type mockOAuthClient struct {
	profile  *domain.UserProfile
	err      error
	gotCode  string
	gotState string
}

func (m *mockOAuthClient) AuthCodeURL(state string) string {
	m.gotState = state
	return "https://idp.example.com/authorize?state=" + state
}

func (m *mockOAuthClient) Authenticate(_ context.Context, code string) (*domain.UserProfile, error) {
	m.gotCode = code
	return m.profile, m.err
}

// --- Test helpers ---

func newTestServer(t *testing.T, app appService, opts ...func(*Server)) *Server {
	t.Helper()

	tmpl := template.Must(template.New("landing.html").Funcs(templateFuncs).Parse(`Landing {{.TotalUsers}} users {{.TotalAnalyses}} analyses`))
	template.Must(tmpl.New("about.html").Parse(`About {{.Authenticated}}`))
	template.Must(tmpl.New("dashboard.html").Parse(
		`Dashboard {{.User.DisplayName}} total={{.Stats.TotalAnalyses}} common={{.Stats.MostCommonEmotion}} csrf={{.CSRFToken}}` +
			`{{range .Analyses}} [{{.Text}} {{.PrimaryEmotion}} {{percent .Confidence}}{{range .Secondary}} {{.Emotion}}{{end}}]{{end}}`))

	store := sessions.NewCookieStore([]byte("test-secret-key-32-bytes-long!!!"))
	store.Options = &sessions.Options{
		Path:   "/",
		MaxAge: 3600,
	}

	srv := &Server{
		echo: echo.New(),
		config: &config.Config{
			SessionMaxAge: time.Hour,
			MaxTextLength: 5000,
		},
		app:          app,
		oauthClient:  &mockOAuthClient{},
		sessionStore: store,
		templates:    tmpl,
		startTime:    time.Now(),
	}

	for _, opt := range opts {
		opt(srv)
	}

	srv.registerRoutes()

	return srv
}

func withOAuthClient(oauth oauthClient) func(*Server) {
	return func(s *Server) {
		s.oauthClient = oauth
	}
}

func withHealthChecks(checks ...HealthCheck) func(*Server) {
	return func(s *Server) {
		s.healthChecks = checks
	}
}

func withMaxTextLength(n int) func(*Server) {
	return func(s *Server) {
		s.config.MaxTextLength = n
	}
}

// callHandler wraps a handler with error middleware, matching production behavior
func callHandler(handler echo.HandlerFunc, c echo.Context) error {
	return ErrorHandlingMiddleware()(handler)(c)
}

func setSessionUserID(t *testing.T, srv *Server, req *http.Request, rec *httptest.ResponseRecorder, userID uuid.UUID) {
	t.Helper()
	session, err := srv.sessionStore.Get(req, sessionName)
	require.NoError(t, err)
	session.Values[sessionKeyToken] = userID.String()
	require.NoError(t, session.Save(req, rec))
}

// newSessionRequest builds a request carrying a session cookie for userID.
func newSessionRequest(t *testing.T, srv *Server, method, target string, body io.Reader, userID uuid.UUID) *http.Request {
	t.Helper()

	seed := httptest.NewRequest(http.MethodGet, "/", nil)
	seedRec := httptest.NewRecorder()
	setSessionUserID(t, srv, seed, seedRec, userID)

	req := httptest.NewRequest(method, target, body)
	for _, cookie := range seedRec.Result().Cookies() {
		req.AddCookie(cookie)
	}
	return req
}

// withCSRF attaches a matching CSRF cookie and header.
func withCSRF(req *http.Request) *http.Request {
	const token = "test-csrf-token"
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: token})
	req.Header.Set("X-CSRF-Token", token)
	return req
}

func knownUser(id uuid.UUID) func(context.Context, uuid.UUID) (*domain.User, error) {
	return func(_ context.Context, got uuid.UUID) (*domain.User, error) {
		if got == id {
			return &domain.User{ID: id, Subject: "sub-" + id.String()[:8], FirstName: "Ada", LastName: "Lovelace"}, nil
		}
		return nil, domain.ErrUserNotFound
	}
}
