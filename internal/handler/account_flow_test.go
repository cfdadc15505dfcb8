package handler

import (
	"io"
	"log"
	"net/http"
	"testing"

	"github.com/dulfinne/User-service/internal/audit"
	"github.com/dulfinne/User-service/internal/command"
	"github.com/dulfinne/User-service/internal/query"
	"github.com/dulfinne/User-service/internal/repository"
	"github.com/dulfinne/User-service/shared/events"
	"github.com/dulfinne/User-service/shared/middleware"
	"github.com/gin-gonic/gin"
)

func newServiceRouter() *gin.Engine {
	repo := repository.NewAccountRepository(repository.NewMemoryStore())
	commands := command.NewAccountCommandService(repo, audit.New(log.New(io.Discard, "", 0)), events.NopPublisher{}, 5)
	queries := query.NewAccountQueryService(repo)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewAccountHandler(commands, queries, testValidator(), 10)
	RegisterRoutes(r, h, middleware.IdentityMiddleware(middleware.IdentityConfig{Header: "X-Username"}))
	return r
}

func TestAccountLifecycleOverHTTP(t *testing.T) {
	r := newServiceRouter()

	steps := []struct {
		name     string
		method   string
		url      string
		body     any
		wantCode int
		wantBody string
	}{
		{"create", http.MethodPost, "/api/v1/users", AccountRequest{Name: "Alice", Surname: "Smith"}, http.StatusCreated, ""},
		{"create again", http.MethodPost, "/api/v1/users", AccountRequest{Name: "Alice", Surname: "Smith"}, http.StatusConflict, ""},
		{"balance after create", http.MethodGet, "/api/v1/users/alice123/balance", nil, http.StatusOK, `{"balance":0.00}`},
		{"credit", http.MethodPost, "/api/v1/users/credit", `{"amount": 50.00}`, http.StatusOK, ""},
		{"debit", http.MethodPost, "/api/v1/users/debit", `{"amount": 20.00}`, http.StatusOK, ""},
		{"overdraw", http.MethodPost, "/api/v1/users/debit", `{"amount": 31.00}`, http.StatusConflict, `{"status":409,"message":"The amount should be less than 30.00"}`},
		{"balance unchanged", http.MethodGet, "/api/v1/users/alice123/balance", nil, http.StatusOK, `{"balance":30.00}`},
		{"delete", http.MethodDelete, "/api/v1/users", nil, http.StatusNoContent, ""},
		{"gone", http.MethodGet, "/api/v1/users/me", nil, http.StatusNotFound, `{"status":404,"message":"User not found: username = alice123"}`},
	}

	for _, step := range steps {
		w := doRequest(r, step.method, step.url, "alice123", step.body)
		if w.Code != step.wantCode {
			t.Fatalf("%s: expected %d, got %d: %s", step.name, step.wantCode, w.Code, w.Body.String())
		}
		if step.wantBody != "" && w.Body.String() != step.wantBody {
			t.Fatalf("%s: body = %s, want %s", step.name, w.Body.String(), step.wantBody)
		}
	}
}
