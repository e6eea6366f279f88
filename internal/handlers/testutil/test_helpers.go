package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/abordo/internal/api"
	"github.com/charlesng35/abordo/internal/app"
	iauth "github.com/charlesng35/abordo/internal/auth"
	sharedtestutil "github.com/charlesng35/abordo/internal/database/testutil"
	"github.com/charlesng35/abordo/internal/realtime"
	"github.com/charlesng35/abordo/pkg/mail"
	"github.com/charlesng35/abordo/pkg/response"
)

// DefaultNow is the wall clock every Env starts at.
var DefaultNow = time.Date(2026, time.March, 10, 9, 30, 0, 0, time.UTC)

// Clock is a settable clock shared by every service of an Env.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Mailer records outbound messages instead of sending them.
type Mailer struct {
	mu   sync.Mutex
	Sent []mail.Message
	Err  error
}

// Send records msg, or fails with Err when set.
func (m *Mailer) Send(_ context.Context, msg mail.Message) (mail.Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return mail.Receipt{}, m.Err
	}
	m.Sent = append(m.Sent, msg)
	return mail.Receipt{Provider: "test", MessageID: uuid.NewString()}, nil
}

// Provider reports the fake provider name.
func (m *Mailer) Provider() string { return "test" }

// Messages returns a copy of the recorded messages.
func (m *Mailer) Messages() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mail.Message(nil), m.Sent...)
}

// Env encapsulates a fully-wired API instance backed by an in-memory database for handler tests.
type Env struct {
	T        *testing.T
	DB       *gorm.DB
	Router   *gin.Engine
	JWT      *iauth.JWTService
	Hub      *realtime.Hub
	Clock    *Clock
	Mailer   *Mailer
	Services *api.Services
	Config   *app.Config
}

// EnvOption customises NewEnv.
type EnvOption func(*app.Config)

// WithSeedNotifications enables seed notifications on vehicle creation.
func WithSeedNotifications() EnvOption {
	return func(cfg *app.Config) {
		cfg.Reminders.SeedOnVehicleCreate = true
	}
}

// NewEnv provisions a fresh handler test environment with migrations applied.
func NewEnv(t *testing.T, opts ...EnvOption) *Env {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db := sharedtestutil.MustOpenTestDB(t, sharedtestutil.WithAutoMigrate())
	clock := &Clock{now: DefaultNow}

	jwtSecret := "test-suite-super-secret-key-32-bytes!!"
	jwtSvc, err := iauth.NewJWTService(iauth.JWTConfig{
		Secret:         jwtSecret,
		Issuer:         "test-suite",
		AccessTokenTTL: time.Hour,
		Clock:          clock.Now,
	})
	require.NoError(t, err)

	cfg := &app.Config{
		Auth: app.AuthConfig{
			JWT: app.JWTSettings{Secret: jwtSecret, Issuer: "test-suite", TTL: time.Hour},
		},
		Email: app.EmailConfig{
			Provider:    "test",
			FrontendURL: "https://app.example.com",
		},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	hub := realtime.NewHub()
	mailer := &Mailer{}

	svc, err := api.BuildServices(api.ServiceDeps{
		DB:     db,
		JWT:    jwtSvc,
		Hub:    hub,
		Mailer: mailer,
		Config: cfg,
		Now:    clock.Now,
	})
	require.NoError(t, err)

	router, err := api.NewRouter(db, jwtSvc, cfg, hub, svc)
	require.NoError(t, err)

	return &Env{
		T:        t,
		DB:       db,
		Router:   router,
		JWT:      jwtSvc,
		Hub:      hub,
		Clock:    clock,
		Mailer:   mailer,
		Services: svc,
		Config:   cfg,
	}
}

// Account is a registered user and their access token.
type Account struct {
	UserID string
	Email  string
	Token  string
}

// Register creates a user through the API and returns its token.
func (e *Env) Register(email string) Account {
	e.T.Helper()

	w := e.Request(http.MethodPost, "/api/auth/register", map[string]string{
		"email":     email,
		"password":  "Password123!",
		"firstName": "Marco",
		"lastName":  "Rossi",
	}, "")
	require.Equal(e.T, http.StatusCreated, w.Code, w.Body.String())

	var result struct {
		User struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"user"`
		Token string `json:"token"`
	}
	DecodeInto(e.T, DecodeResponse(e.T, w).Data, &result)
	require.NotEmpty(e.T, result.Token)

	return Account{UserID: result.User.ID, Email: result.User.Email, Token: result.Token}
}

// CreateVehicle adds a vehicle for the account and returns its id.
func (e *Env) CreateVehicle(account Account, plate string) string {
	e.T.Helper()

	w := e.Request(http.MethodPost, "/api/vehicles", map[string]any{
		"plateNumber":    plate,
		"brand":          "Fiat",
		"model":          "Panda",
		"year":           2019,
		"currentMileage": 42000,
		"fuelType":       "gasoline",
	}, account.Token)
	require.Equal(e.T, http.StatusCreated, w.Code, w.Body.String())

	var vehicle struct {
		ID string `json:"id"`
	}
	DecodeInto(e.T, DecodeResponse(e.T, w).Data, &vehicle)
	require.NotEmpty(e.T, vehicle.ID)
	return vehicle.ID
}

// Date formats the calendar day offset days from the clock's current day.
func (e *Env) Date(offset int) string {
	return e.Clock.Now().AddDate(0, 0, offset).Format("2006-01-02")
}

// APIResponse represents the canonical API envelope returned by handlers.
type APIResponse struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   *response.ErrorInfo `json:"error"`
	Meta    *response.Meta      `json:"meta"`
}

// DecodeResponse parses the standard API response object from a recorder.
func DecodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// DecodeInto unmarshals the data payload into the provided destination.
func DecodeInto[T any](t *testing.T, raw json.RawMessage, dest *T) {
	t.Helper()
	if dest == nil {
		t.Fatal("destination must not be nil")
	}
	require.NoError(t, json.Unmarshal(raw, dest))
}

// Request executes an HTTP request against the test router, applying JSON encoding and auth headers automatically.
func (e *Env) Request(method, path string, body any, token string) *httptest.ResponseRecorder {
	e.T.Helper()

	buf := bytes.NewBuffer(nil)
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.T, err)
		buf = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, path, buf)
	require.NoError(e.T, err)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}
