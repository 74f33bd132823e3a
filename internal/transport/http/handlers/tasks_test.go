package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

type reminderRunnerStub struct {
	sent int
	err  error
	runs int
}

func (s *reminderRunnerStub) RunReminders(context.Context) (int, error) {
	s.runs++
	return s.sent, s.err
}

func newTasksRouter(runner ReminderRunner, secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := NewTasksHandler(runner, secret, nil)
	r.POST("/tasks/run-reminders", handler.RunReminders)
	return r
}

func runReminders(t *testing.T, router *gin.Engine, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/tasks/run-reminders", nil)
	for _, m := range mutate {
		m(req)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestRunRemindersEndpointRequiresSecret(t *testing.T) {
	runner := &reminderRunnerStub{sent: 3}
	router := newTasksRouter(runner, "cron-secret")

	if rr := runReminders(t, router); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without credentials, got %d", rr.Code)
	}
	if rr := runReminders(t, router, func(req *http.Request) {
		req.Header.Set("X-Api-Key", "wrong")
	}); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with a wrong key, got %d", rr.Code)
	}
	if runner.runs != 0 {
		t.Fatalf("unauthorized calls must not run reminders, got %d runs", runner.runs)
	}

	rr := runReminders(t, router, func(req *http.Request) {
		req.Header.Set("X-Api-Key", "cron-secret")
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 with the api key, got %d", rr.Code)
	}

	var resp RunRemindersResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.OK || resp.Sent != 3 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestRunRemindersEndpointAcceptsBearerSecret(t *testing.T) {
	runner := &reminderRunnerStub{sent: 1}
	router := newTasksRouter(runner, "cron-secret")

	rr := runReminders(t, router, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer cron-secret")
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 with a bearer secret, got %d", rr.Code)
	}
}

func TestRunRemindersEndpointOpenWithoutSecret(t *testing.T) {
	runner := &reminderRunnerStub{}
	router := newTasksRouter(runner, "")

	if rr := runReminders(t, router); rr.Code != http.StatusOK {
		t.Fatalf("expected 200 when no secret is configured, got %d", rr.Code)
	}
	if runner.runs != 1 {
		t.Fatalf("expected one run, got %d", runner.runs)
	}
}

func TestRunRemindersEndpointReportsFailure(t *testing.T) {
	runner := &reminderRunnerStub{err: errors.New("db down")}
	router := newTasksRouter(runner, "")

	if rr := runReminders(t, router); rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 when the run fails, got %d", rr.Code)
	}
}
