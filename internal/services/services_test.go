package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/desertthunder/listkit/internal/models"
	"github.com/desertthunder/listkit/internal/shared"
	"golang.org/x/oauth2"
)

func TestFailure(t *testing.T) {
	t.Run("Expired", func(t *testing.T) {
		tests := []struct {
			status    int
			expired   bool
			retryable bool
		}{
			{http.StatusUnauthorized, true, false},
			{http.StatusInternalServerError, false, true},
			{http.StatusTooManyRequests, false, true},
			{http.StatusForbidden, false, true},
			{0, false, true},
		}

		for _, tt := range tests {
			t.Run(fmt.Sprintf("status %d", tt.status), func(t *testing.T) {
				f := NewFailure(models.ProviderSpotify, "op", tt.status, nil)
				if f.Expired() != tt.expired {
					t.Errorf("Expired() = %v, want %v", f.Expired(), tt.expired)
				}
				if f.Retryable() != tt.retryable {
					t.Errorf("Retryable() = %v, want %v", f.Retryable(), tt.retryable)
				}
			})
		}
	})

	t.Run("Error message", func(t *testing.T) {
		f := &Failure{Provider: models.ProviderYouTube, Op: "add_playlist", StatusCode: 403, Message: "quota exceeded"}
		want := "youtube add_playlist failed (status 403): quota exceeded"
		if f.Error() != want {
			t.Errorf("expected %q, got %q", want, f.Error())
		}
	})

	t.Run("AsFailure unwraps", func(t *testing.T) {
		err := fmt.Errorf("copy: %w", NewFailure(models.ProviderSpotify, "op", 500, shared.ErrAPIRequest))
		f, ok := AsFailure(err)
		if !ok {
			t.Fatal("expected failure in chain")
		}
		if f.StatusCode != 500 {
			t.Errorf("expected status 500, got %d", f.StatusCode)
		}
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Error("expected chain to include ErrAPIRequest")
		}
	})
}

func TestRetry(t *testing.T) {
	ctx := context.Background()
	policy := RetryPolicy{MaxAttempts: 3, Delay: 0}

	t.Run("succeeds on attempt N after transient failures", func(t *testing.T) {
		for n := 1; n <= 3; n++ {
			t.Run(fmt.Sprintf("N=%d", n), func(t *testing.T) {
				attempts := 0
				got, err := Retry(ctx, policy, "op", func(context.Context) (string, error) {
					attempts++
					if attempts < n {
						return "", NewFailure(models.ProviderSpotify, "op", 500, nil)
					}
					return "ok", nil
				})
				if err != nil {
					t.Fatalf("expected success, got %v", err)
				}
				if got != "ok" {
					t.Errorf("expected ok, got %q", got)
				}
				if attempts != n {
					t.Errorf("expected exactly %d attempts, got %d", n, attempts)
				}
			})
		}
	})

	t.Run("expired credential is not retried", func(t *testing.T) {
		attempts := 0
		_, err := Retry(ctx, policy, "op", func(context.Context) (int, error) {
			attempts++
			return 0, NewFailure(models.ProviderSpotify, "op", http.StatusUnauthorized, shared.ErrTokenExpired)
		})
		if attempts != 1 {
			t.Errorf("expected 1 attempt, got %d", attempts)
		}
		if f, ok := AsFailure(err); !ok || !f.Expired() {
			t.Errorf("expected expired failure, got %v", err)
		}
	})

	t.Run("budget exhausted returns last failure", func(t *testing.T) {
		attempts := 0
		var retried []int
		p := policy
		p.OnRetry = func(_ string, attempt int, _ error) { retried = append(retried, attempt) }

		err := RetryErr(ctx, p, "op", func(context.Context) error {
			attempts++
			return NewFailure(models.ProviderSpotify, "op", 500+attempts, nil)
		})
		if attempts != 3 {
			t.Errorf("expected 3 attempts, got %d", attempts)
		}
		if f, _ := AsFailure(err); f == nil || f.StatusCode != 503 {
			t.Errorf("expected last failure (503), got %v", err)
		}
		if len(retried) != 2 {
			t.Errorf("expected OnRetry twice, got %v", retried)
		}
	})

	t.Run("zero budget still makes one attempt", func(t *testing.T) {
		attempts := 0
		_ = RetryErr(ctx, RetryPolicy{}, "op", func(context.Context) error {
			attempts++
			return errors.New("boom")
		})
		if attempts != 1 {
			t.Errorf("expected 1 attempt, got %d", attempts)
		}
	})

	t.Run("cancelled context stops between attempts", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		attempts := 0
		err := RetryErr(cctx, RetryPolicy{MaxAttempts: 5, Delay: time.Hour}, "op", func(context.Context) error {
			attempts++
			cancel()
			return NewFailure(models.ProviderSpotify, "op", 500, nil)
		})
		if attempts != 1 {
			t.Errorf("expected 1 attempt, got %d", attempts)
		}
		if err == nil {
			t.Error("expected error")
		}
	})
}

func TestClient(t *testing.T) {
	ctx := context.Background()

	t.Run("nil token fails locally with 401", func(t *testing.T) {
		called := false
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))
		defer server.Close()

		c := newClient(models.ProviderSpotify, server.URL)
		err := c.do(ctx, nil, "op", http.MethodGet, "/", nil, nil, nil)
		f, ok := AsFailure(err)
		if !ok || !f.Expired() {
			t.Fatalf("expected expired failure, got %v", err)
		}
		if called {
			t.Error("expected no request to be sent")
		}
	})

	t.Run("expired token fails locally with 401", func(t *testing.T) {
		c := newClient(models.ProviderSpotify, "http://127.0.0.1:1")
		token := &oauth2.Token{AccessToken: "x", Expiry: time.Now().Add(-time.Hour)}
		err := c.do(ctx, token, "op", http.MethodGet, "/", nil, nil, nil)
		if !errors.Is(err, shared.ErrTokenExpired) {
			t.Errorf("expected ErrTokenExpired, got %v", err)
		}
	})

	t.Run("sends bearer token", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("Authorization"); got != "Bearer secret" {
				t.Errorf("expected bearer header, got %q", got)
			}
			w.Write([]byte(`{"ok":true}`))
		}))
		defer server.Close()

		c := newClient(models.ProviderSpotify, server.URL, WithRateLimit(100))
		var out struct{ OK bool }
		if err := c.do(ctx, NewToken("secret"), "op", http.MethodGet, "/", nil, nil, &out); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !out.OK {
			t.Error("expected decoded body")
		}
	})

	t.Run("maps status codes", func(t *testing.T) {
		tests := []struct {
			status int
			want   error
		}{
			{http.StatusUnauthorized, shared.ErrTokenExpired},
			{http.StatusNotFound, shared.ErrPlaylistNotFound},
			{http.StatusServiceUnavailable, shared.ErrServiceUnavailable},
			{http.StatusBadRequest, shared.ErrAPIRequest},
		}

		for _, tt := range tests {
			t.Run(http.StatusText(tt.status), func(t *testing.T) {
				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(tt.status)
					w.Write([]byte(`{"error":{"message":"nope"}}`))
				}))
				defer server.Close()

				c := newClient(models.ProviderYouTube, server.URL)
				err := c.do(ctx, NewToken("t"), "op", http.MethodGet, "/", nil, nil, nil)
				f, ok := AsFailure(err)
				if !ok {
					t.Fatalf("expected failure, got %v", err)
				}
				if f.StatusCode != tt.status {
					t.Errorf("expected status %d, got %d", tt.status, f.StatusCode)
				}
				if f.Message != "nope" {
					t.Errorf("expected message from body, got %q", f.Message)
				}
				if !errors.Is(err, tt.want) {
					t.Errorf("expected %v in chain, got %v", tt.want, err)
				}
			})
		}
	})
}

func TestNewToken(t *testing.T) {
	if NewToken("") != nil {
		t.Error("expected nil token for empty access token")
	}
	if tok := NewToken("abc"); tok == nil || !tok.Valid() {
		t.Error("expected valid token")
	}
}
