package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/spacecards/economy-api/internal/pkg/apperr"
	"github.com/spacecards/economy-api/internal/pkg/jwt"
)

func TestAuthMiddlewareAllowsValidAccessToken(t *testing.T) {
	jwtSvc := jwt.NewService("secret", time.Minute)
	userID := uuid.New()
	token, err := jwtSvc.GenerateAccessToken(userID, "Ada")
	if err != nil {
		t.Fatalf("token gen failed: %v", err)
	}

	var gotID uuid.UUID
	var gotName string
	protected := Auth(jwtSvc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = GetUserID(r.Context())
		gotName = GetDisplayName(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	protected.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if gotID != userID || gotName != "Ada" {
		t.Fatalf("unexpected identity %s %q", gotID, gotName)
	}
}

func TestAuthMiddlewareRejectsMissingAndMalformedHeaders(t *testing.T) {
	jwtSvc := jwt.NewService("secret", time.Minute)
	protected := Auth(jwtSvc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	for _, header := range []string{"", "Token abc", "Bearer", "Bearer not-a-jwt"} {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		protected.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, w.Code)
		}
	}
}

type stubSyncer struct {
	calls  int
	err    error
	stored string
}

func (s *stubSyncer) EnsureUser(ctx context.Context, id uuid.UUID, displayName string) error {
	s.calls++
	return s.err
}

func (s *stubSyncer) DisplayName(ctx context.Context, id uuid.UUID, fallback string) string {
	if fallback != "" {
		return fallback
	}
	return s.stored
}

func TestSyncUserRunsForAuthenticatedRequests(t *testing.T) {
	syncer := &stubSyncer{}
	h := SyncUser(syncer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithUser(req.Context(), uuid.New(), "Ada"))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent || syncer.calls != 1 {
		t.Fatalf("expected pass-through with one sync, got %d / %d", w.Code, syncer.calls)
	}
}

func TestSyncUserFillsMissingNameFromStore(t *testing.T) {
	syncer := &stubSyncer{stored: "Grace"}
	var seen string
	h := SyncUser(syncer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetDisplayName(r.Context())
	}))

	userID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithUser(req.Context(), userID, ""))
	h.ServeHTTP(httptest.NewRecorder(), req)

	if seen != "Grace" {
		t.Fatalf("expected stored name, got %q", seen)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithUser(req.Context(), userID, "Ada"))
	h.ServeHTTP(httptest.NewRecorder(), req)

	if seen != "Ada" {
		t.Fatalf("expected token name to win, got %q", seen)
	}
}

func TestSyncUserFailureStopsRequest(t *testing.T) {
	syncer := &stubSyncer{err: errors.Join(apperr.ErrStoreUnavailable, errors.New("conflict"))}
	h := SyncUser(syncer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithUser(req.Context(), uuid.New(), ""))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(mark("a"), mark("b"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Fatalf("unexpected order %v", order)
	}
}
