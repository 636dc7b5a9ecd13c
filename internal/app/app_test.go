package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"medplant/internal/platform/config"
	"medplant/pkg/platform/audit"
	"medplant/pkg/platform/httputil"
	"medplant/pkg/platform/middleware/admin"
	authmw "medplant/pkg/platform/middleware/auth"
	"medplant/pkg/testutil"
)

type AppSuite struct {
	suite.Suite
	app *App
}

func TestAppSuite(t *testing.T) {
	suite.Run(t, new(AppSuite))
}

func (s *AppSuite) SetupTest() {
	cfg, err := config.Load("")
	s.Require().NoError(err)
	cfg.Audit.AsyncBuffer = 0
	cfg.Auth.AdminToken = "ops-token"
	cfg.Auth.BcryptCost = 4

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.app, err = New(context.Background(), cfg, logger)
	s.Require().NoError(err)
}

func (s *AppSuite) TearDownTest() {
	s.app.Close()
}

func (s *AppSuite) token(name string, plant int64) string {
	tok, err := s.app.Tokens().Issue(authmw.Claims{Name: name, FullName: "User " + name, PlantID: &plant}, time.Hour)
	s.Require().NoError(err)
	return tok
}

func (s *AppSuite) do(method, path, token string, body any) (*httptest.ResponseRecorder, httputil.Envelope) {
	t := s.T()
	req := testutil.NewJSONRequest(t, method, path, body)
	if token != "" {
		req = testutil.WithBearer(req, token)
	}
	rr := testutil.DoRequest(s.app.Handler(), req)

	var env httputil.Envelope
	if rr.Header().Get("Content-Type") == "application/json" {
		env = testutil.DecodeEnvelope(t, rr)
	}
	return rr, env
}

func (s *AppSuite) TestDepartmentLifecycleAcrossPlants() {
	alice := s.token("alice", 7)
	bob := s.token("bob", 8)

	rr, env := s.do(http.MethodPost, "/api/departments", alice, map[string]any{"name": "Cardiology"})
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
	s.Equal("Department created successfully!", env.Message)

	created := testutil.DecodeData[struct {
		ID      int64  `json:"id"`
		PlantID *int64 `json:"plant_id"`
	}](s.T(), rr)
	s.Require().NotNil(created.PlantID)
	s.Equal(int64(7), *created.PlantID)
	path := "/api/departments/" + strconv.FormatInt(created.ID, 10)

	rr, _ = s.do(http.MethodGet, path, alice, nil)
	s.Equal(http.StatusOK, rr.Code)

	rr, foreign := s.do(http.MethodGet, path, bob, nil)
	s.Equal(http.StatusNotFound, rr.Code)
	rr, missing := s.do(http.MethodGet, "/api/departments/9999", bob, nil)
	s.Equal(http.StatusNotFound, rr.Code)
	s.Equal(missing.Message, foreign.Message)

	rr, env = s.do(http.MethodPost, "/api/departments", alice, map[string]any{"name": "cardiology"})
	s.Equal(http.StatusBadRequest, rr.Code)
	s.Contains(env.Errors, "name")

	rr, _ = s.do(http.MethodDelete, path, alice, nil)
	s.Equal(http.StatusOK, rr.Code)
}

func (s *AppSuite) TestAPIRequiresToken() {
	testutil.Given(s.T(), "no bearer token", func(t *testing.T) {
		rr, _ := s.do(http.MethodGet, "/api/departments/data", "", nil)
		testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
	})
	testutil.Given(s.T(), "a forged token", func(t *testing.T) {
		rr, _ := s.do(http.MethodGet, "/api/departments/data", "forged", nil)
		testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
	})
	testutil.Given(s.T(), "a valid token", func(t *testing.T) {
		testutil.When(t, "listing departments", func(t *testing.T) {
			rr, _ := s.do(http.MethodGet, "/api/departments/data", s.token("alice", 7), nil)
			testutil.Then(t, "the list is returned", func(t *testing.T) {
				testutil.AssertStatus(t, rr, http.StatusOK)
			})
		})
	})
}

func (s *AppSuite) TestScreensCoverEveryEntity() {
	rr, _ := s.do(http.MethodGet, "/api/screens", s.token("alice", 7), nil)
	s.Require().Equal(http.StatusOK, rr.Code)

	names := testutil.DecodeData[[]string](s.T(), rr)
	s.ElementsMatch([]string{
		"ambulances", "departments", "dependents", "diagnoses", "employees",
		"immunizations", "medical-exams", "medicines", "roles", "users",
	}, names)

	rr, _ = s.do(http.MethodGet, "/api/screens/Medical-Exams", s.token("alice", 7), nil)
	s.Equal(http.StatusOK, rr.Code)
}

func (s *AppSuite) TestUserPasswordNeverReturned() {
	rr, env := s.do(http.MethodPost, "/api/users", s.token("alice", 7), map[string]any{
		"username":  "nurse.joy",
		"full_name": "Joy Adams",
		"role":      "nurse",
		"active":    true,
		"password":  "correct-horse-battery",
	})
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
	s.Equal("User created successfully!", env.Message)
	s.NotContains(rr.Body.String(), "correct-horse-battery")
	s.NotContains(rr.Body.String(), "password")
}

func (s *AppSuite) TestAdminAudit() {
	s.do(http.MethodPost, "/api/roles", s.token("alice", 7), map[string]any{"name": "Pharmacist"})

	req := httptest.NewRequest(http.MethodGet, "/admin/audit?action=ROLE_CREATE", nil)
	rr := httptest.NewRecorder()
	s.app.Handler().ServeHTTP(rr, req)
	s.Equal(http.StatusUnauthorized, rr.Code)

	req.Header.Set(admin.HeaderAdminToken, "ops-token")
	rr = httptest.NewRecorder()
	s.app.Handler().ServeHTTP(rr, req)
	s.Require().Equal(http.StatusOK, rr.Code)

	entries := testutil.DecodeData[[]audit.Entry](s.T(), rr)
	s.Require().Len(entries, 1)
	s.Equal("alice - User alice", entries[0].Actor)
}

func (s *AppSuite) TestHealthAndMetrics() {
	rr, _ := s.do(http.MethodGet, "/healthz", "", nil)
	s.Equal(http.StatusOK, rr.Code)

	rr, _ = s.do(http.MethodGet, "/metrics", "", nil)
	s.Equal(http.StatusOK, rr.Code)
	s.Contains(rr.Body.String(), "go_goroutines")
}
