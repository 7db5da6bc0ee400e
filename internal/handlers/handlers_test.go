package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"citybasic/internal/middleware"
	"citybasic/internal/models"
	"citybasic/internal/ratelimit"
	"citybasic/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type voteKey struct {
	user, comment uuid.UUID
}

type fakeVote struct {
	value     int
	updatedAt time.Time
}

// fakeStore is an in-memory stand-in for *store.Store.
type fakeStore struct {
	mu    sync.Mutex
	clock *fakeClock

	comments  map[uuid.UUID]*models.Comment
	order     []uuid.UUID
	votes     map[voteKey]*fakeVote
	reports   []models.Report
	favorites []models.Favorite
	profiles  map[uuid.UUID]*models.Profile

	// err makes every store call fail.
	err error
}

func newFakeStore(clock *fakeClock) *fakeStore {
	return &fakeStore{
		clock:    clock,
		comments: make(map[uuid.UUID]*models.Comment),
		votes:    make(map[voteKey]*fakeVote),
		profiles: make(map[uuid.UUID]*models.Profile),
	}
}

func (f *fakeStore) seedComment(userID uuid.UUID, city string, place *string, parent *uuid.UUID) *models.Comment {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := &models.Comment{
		ID:        uuid.New(),
		Content:   "seeded",
		CitySlug:  city,
		PlaceSlug: place,
		ParentID:  parent,
		UserID:    userID,
		CreatedAt: f.clock.Now().Add(-time.Hour),
	}
	f.comments[c.ID] = c
	f.order = append(f.order, c.ID)
	return c
}

func (f *fakeStore) CreateComment(_ context.Context, comment *models.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if comment.ParentID != nil {
		parent, ok := f.comments[*comment.ParentID]
		if !ok {
			return store.ErrParentNotFound
		}
		if !parent.SameThread(comment.CitySlug, comment.PlaceSlug) {
			return store.ErrInvalidParent
		}
	}
	comment.ID = uuid.New()
	comment.VoteCount = 0
	comment.CreatedAt = f.clock.Now()
	comment.UpdatedAt = comment.CreatedAt
	stored := *comment
	f.comments[comment.ID] = &stored
	f.order = append(f.order, comment.ID)
	comment.Author = f.profiles[comment.UserID]
	return nil
}

func (f *fakeStore) GetComment(_ context.Context, id uuid.UUID) (*models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.comments[id]
	if !ok {
		return nil, store.ErrCommentNotFound
	}
	cp := *c
	cp.Author = f.profiles[c.UserID]
	return &cp, nil
}

func (f *fakeStore) ListComments(_ context.Context, city string, place *string) ([]models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Comment
	for _, id := range f.order {
		c, ok := f.comments[id]
		if !ok || !c.SameThread(city, place) {
			continue
		}
		cp := *c
		cp.Author = f.profiles[c.UserID]
		out = append(out, cp)
	}
	return out, nil
}

func (f *fakeStore) DeleteComment(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.comments[id]; !ok {
		return store.ErrCommentNotFound
	}
	doomed := map[uuid.UUID]bool{id: true}
	for changed := true; changed; {
		changed = false
		for cid, c := range f.comments {
			if c.ParentID != nil && doomed[*c.ParentID] && !doomed[cid] {
				doomed[cid] = true
				changed = true
			}
		}
	}
	for cid := range doomed {
		delete(f.comments, cid)
	}
	return nil
}

func (f *fakeStore) UserVotes(_ context.Context, userID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[uuid.UUID]int)
	for _, id := range ids {
		if v, ok := f.votes[voteKey{userID, id}]; ok {
			out[id] = v.value
		}
	}
	return out, nil
}

func (f *fakeStore) CastVote(_ context.Context, userID, commentID uuid.UUID, value int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	c, ok := f.comments[commentID]
	if !ok {
		return 0, store.ErrCommentNotFound
	}
	key := voteKey{userID, commentID}
	previous := 0
	if v, ok := f.votes[key]; ok {
		previous = v.value
	}
	f.votes[key] = &fakeVote{value: value, updatedAt: f.clock.Now()}
	c.VoteCount += value - previous
	return c.VoteCount, nil
}

func (f *fakeStore) voteSum(commentID uuid.UUID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	sum := 0
	for k, v := range f.votes {
		if k.comment == commentID {
			sum += v.value
		}
	}
	return sum
}

func (f *fakeStore) RecountVotes(_ context.Context, commentID uuid.UUID) (int, error) {
	sum := f.voteSum(commentID)
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.comments[commentID]
	if !ok {
		return 0, store.ErrCommentNotFound
	}
	c.VoteCount = sum
	return sum, nil
}

func (f *fakeStore) CreateReport(_ context.Context, report *models.Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.comments[report.CommentID]; !ok {
		return store.ErrCommentNotFound
	}
	for _, r := range f.reports {
		if r.CommentID == report.CommentID && r.ReporterID == report.ReporterID {
			return store.ErrAlreadyReported
		}
	}
	report.ID = uuid.New()
	report.Status = models.ReportPending
	report.CreatedAt = f.clock.Now()
	f.reports = append(f.reports, *report)
	return nil
}

func (f *fakeStore) PendingReports(_ context.Context, limit int) ([]models.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Report
	for _, r := range f.reports {
		if r.Status == models.ReportPending && len(out) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) SetReportStatus(_ context.Context, id uuid.UUID, status models.ReportStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.reports {
		if f.reports[i].ID == id {
			f.reports[i].Status = status
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeStore) ToggleFavorite(_ context.Context, userID uuid.UUID, placeID, citySlug string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	for i, fav := range f.favorites {
		if fav.UserID == userID && fav.PlaceID == placeID && fav.CitySlug == citySlug {
			f.favorites = append(f.favorites[:i], f.favorites[i+1:]...)
			return false, nil
		}
	}
	f.favorites = append(f.favorites, models.Favorite{
		ID:        uint(len(f.favorites) + 1),
		UserID:    userID,
		PlaceID:   placeID,
		CitySlug:  citySlug,
		CreatedAt: f.clock.Now(),
	})
	return true, nil
}

func (f *fakeStore) IsFavorite(_ context.Context, userID uuid.UUID, placeID, citySlug string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	for _, fav := range f.favorites {
		if fav.UserID == userID && fav.PlaceID == placeID && fav.CitySlug == citySlug {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) ListFavorites(_ context.Context, userID uuid.UUID) ([]models.Favorite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Favorite
	for _, fav := range f.favorites {
		if fav.UserID == userID {
			out = append(out, fav)
		}
	}
	return out, nil
}

func (f *fakeStore) GetProfile(_ context.Context, id uuid.UUID) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.profiles[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) SaveProfile(_ context.Context, profile *models.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	cp := *profile
	f.profiles[profile.ID] = &cp
	return nil
}

// CountSince mirrors the SQL count the limiter runs against the real tables.
func (f *fakeStore) CountSince(_ context.Context, table, _, _ string, userID uuid.UUID, since time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	var n int64
	switch table {
	case "comments":
		for _, c := range f.comments {
			if c.UserID == userID && !c.CreatedAt.Before(since) {
				n++
			}
		}
	case "votes":
		for k, v := range f.votes {
			if k.user == userID && !v.updatedAt.Before(since) {
				n++
			}
		}
	case "reports":
		for _, r := range f.reports {
			if r.ReporterID == userID && !r.CreatedAt.Before(since) {
				n++
			}
		}
	}
	return n, nil
}

type testEnv struct {
	clock   *fakeClock
	store   *fakeStore
	limiter *ratelimit.Limiter
	log     *zap.SugaredLogger
}

func newTestEnv() *testEnv {
	clock := newFakeClock()
	fs := newFakeStore(clock)
	log := zap.NewNop().Sugar()
	return &testEnv{
		clock:   clock,
		store:   fs,
		limiter: ratelimit.New(fs, log).WithClock(clock.Now),
		log:     log,
	}
}

func newTestUser() *models.User {
	return &models.User{ID: uuid.New(), Email: "traveler@example.com", Role: "user"}
}

// newEngine returns a gin engine that treats every request as coming from user (nil = anonymous).
func newEngine(user *models.User) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if user != nil {
			c.Set(middleware.CheckUserKey, user)
		}
		c.Next()
	})
	return r
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse response: %v body=%s", err, w.Body.String())
	}
	return payload
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, code int) {
	t.Helper()
	if w.Code != code {
		t.Fatalf("expected status %d, got %d body=%s", code, w.Code, w.Body.String())
	}
}
