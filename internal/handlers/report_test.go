package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"citybasic/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func reportRoutes(env *testEnv, user *models.User) *gin.Engine {
	r := newEngine(user)
	r.POST("/api/reports", NewReportHandler(env.store, env.limiter, env.log).Create)
	return r
}

func reportBody(id uuid.UUID, reason string) string {
	return fmt.Sprintf(`{"commentId":%q,"reason":%q}`, id, reason)
}

func TestReportCreate(t *testing.T) {
	env := newTestEnv()
	comment := env.store.seedComment(uuid.New(), "paris", nil, nil)
	r := reportRoutes(env, newTestUser())

	w := doJSON(r, http.MethodPost, "/api/reports", reportBody(comment.ID, "spam link"))

	expectStatus(t, w, http.StatusCreated)
	payload := decodeBody(t, w)
	if payload["success"] != true || payload["message"] == "" {
		t.Errorf("unexpected payload %v", payload)
	}
	if len(env.store.reports) != 1 || env.store.reports[0].Status != models.ReportPending {
		t.Errorf("expected one pending report, got %+v", env.store.reports)
	}
}

func TestReportDuplicate(t *testing.T) {
	env := newTestEnv()
	comment := env.store.seedComment(uuid.New(), "paris", nil, nil)
	r := reportRoutes(env, newTestUser())

	expectStatus(t, doJSON(r, http.MethodPost, "/api/reports", reportBody(comment.ID, "spam")), http.StatusCreated)
	w := doJSON(r, http.MethodPost, "/api/reports", reportBody(comment.ID, "still spam"))

	expectStatus(t, w, http.StatusConflict)
	if decodeBody(t, w)["error"] != "already reported" {
		t.Errorf("unexpected body %s", w.Body.String())
	}
	if len(env.store.reports) != 1 {
		t.Errorf("expected no duplicate row, got %d", len(env.store.reports))
	}
}

func TestReportValidation(t *testing.T) {
	env := newTestEnv()
	comment := env.store.seedComment(uuid.New(), "paris", nil, nil)
	user := newTestUser()

	tests := []struct {
		name string
		user *models.User
		body string
		code int
	}{
		{"anonymous", nil, reportBody(comment.ID, "spam"), http.StatusUnauthorized},
		{"empty reason", user, reportBody(comment.ID, ""), http.StatusBadRequest},
		{"blank reason", user, reportBody(comment.ID, "   "), http.StatusBadRequest},
		{"reason too long", user, reportBody(comment.ID, strings.Repeat("a", models.MaxReportReason+1)), http.StatusBadRequest},
		{"bad comment id", user, `{"commentId":"c1","reason":"spam"}`, http.StatusBadRequest},
		{"unknown comment", user, reportBody(uuid.New(), "spam"), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(reportRoutes(env, tt.user), http.MethodPost, "/api/reports", tt.body)
			expectStatus(t, w, tt.code)
		})
	}
	if len(env.store.reports) != 0 {
		t.Errorf("expected no report rows, got %d", len(env.store.reports))
	}
}

func TestReportReasonAtLimit(t *testing.T) {
	env := newTestEnv()
	comment := env.store.seedComment(uuid.New(), "paris", nil, nil)
	r := reportRoutes(env, newTestUser())

	w := doJSON(r, http.MethodPost, "/api/reports", reportBody(comment.ID, strings.Repeat("ü", models.MaxReportReason)))
	expectStatus(t, w, http.StatusCreated)
}

func TestReportRateLimit(t *testing.T) {
	env := newTestEnv()
	r := reportRoutes(env, newTestUser())

	ids := make([]uuid.UUID, 7)
	for i := range ids {
		ids[i] = env.store.seedComment(uuid.New(), "paris", nil, nil).ID
	}

	for i := 0; i < 5; i++ {
		expectStatus(t, doJSON(r, http.MethodPost, "/api/reports", reportBody(ids[i], "spam")), http.StatusCreated)
	}
	expectStatus(t, doJSON(r, http.MethodPost, "/api/reports", reportBody(ids[5], "spam")), http.StatusTooManyRequests)

	env.clock.Advance(5*time.Minute + time.Second)
	expectStatus(t, doJSON(r, http.MethodPost, "/api/reports", reportBody(ids[6], "spam")), http.StatusCreated)
}
