package test

import (
	"LykkeLoopAPI/internal/bootstrap"
	"LykkeLoopAPI/internal/config"
	"LykkeLoopAPI/internal/controller"
	"LykkeLoopAPI/internal/entity"
	"LykkeLoopAPI/internal/helper"
	"LykkeLoopAPI/internal/repository"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

var (
	testConfig *config.AppConfig
	testRouter *chi.Mux
	testStore  *repository.MemoryStore
)

func TestMain(m *testing.M) {
	_, b, _, _ := runtime.Caller(0)
	basepath := filepath.Dir(b)
	if err := godotenv.Load(filepath.Join(basepath, "../.env.test")); err != nil {
		log.Printf("Warning: Error loading .env.test file: %v", err)
	}

	setDefault := func(key, value string) {
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
	setDefault("APP_PORT", "8080")
	setDefault("APP_ENV", "test")
	setDefault("APP_URL", "http://localhost:8080")
	setDefault("JWT_SECRET", "secret")
	setDefault("JWT_EXP", "24")
	setDefault("ADMIN_NOTIFY_EMAIL", "admin@lykkeloop.dk")

	os.Setenv("DB_DRIVER", config.DBDriverMemory)
	os.Setenv("REDIS_ENABLED", "false")
	os.Setenv("SMTP_HOST", "")
	os.Setenv("SMTP_ASYNC", "false")
	os.Setenv("WS_RATE_LIMIT_SECONDS", "1")

	testConfig = config.LoadAppConfig()

	ctx, cancel := context.WithCancel(context.Background())

	testStore = repository.NewMemoryStore()
	repo := repository.NewMemoryRepository(testStore, nil)

	testRouter = config.NewChi(testConfig)
	bootstrap.Init(ctx, testConfig, repo, nil, config.NewValidator(), testRouter, map[string]controller.Pinger{})

	code := m.Run()

	cancel()
	os.Exit(code)
}

func executeRequest(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	testRouter.ServeHTTP(rr, req)
	return rr
}

func printBody(t *testing.T, rr *httptest.ResponseRecorder) {
	t.Logf("Response Body: %s", rr.Body.String())
}

type testUser struct {
	ID    uuid.UUID
	Name  string
	Email string
	Token string
}

func createTestUser(t *testing.T, prefix string) testUser {
	t.Helper()

	u := entity.User{
		ID:    uuid.New(),
		Name:  prefix + " User",
		Email: fmt.Sprintf("%s%d@test.com", prefix, time.Now().UnixNano()),
	}
	testStore.PutUser(u)

	token, err := helper.GenerateJWT(testConfig.JWTSecret, testConfig.JWTExp, &u.ID, helper.RoleUser)
	if err != nil {
		t.Fatalf("Failed to sign token for %s: %v", prefix, err)
	}
	return testUser{ID: u.ID, Name: u.Name, Email: u.Email, Token: token}
}

func adminToken(t *testing.T) string {
	t.Helper()
	token, err := helper.GenerateJWT(testConfig.JWTSecret, testConfig.JWTExp, nil, helper.RoleAdmin)
	if err != nil {
		t.Fatalf("Failed to sign admin token: %v", err)
	}
	return token
}

func apiRequest(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal body: %v", err)
		}
		reader = bytes.NewBuffer(data)
	}

	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return executeRequest(req)
}

// decodeData unwraps the {"data": ...} envelope into out.
func decodeData(t *testing.T, rr *httptest.ResponseRecorder, out any) {
	t.Helper()

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("Failed to decode response: %v (%s)", err, rr.Body.String())
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		t.Fatalf("Failed to decode data: %v (%s)", err, rr.Body.String())
	}
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()

	var resp helper.ResponseError
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode error: %v (%s)", err, rr.Body.String())
	}
	return resp.Error
}
