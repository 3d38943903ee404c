package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/krafton-jungle/mediagen-backend/internal/platform/apierr"
	"github.com/krafton-jungle/mediagen-backend/internal/repos"
)

func newAuthService(t *testing.T, accessTTL, refreshTTL time.Duration) (AuthService, repos.RefreshTokenRepo) {
	t.Helper()
	log := testLogger(t)
	db := testDB(t)
	userRepo := repos.NewUserRepo(db, log)
	tokenRepo := repos.NewRefreshTokenRepo(db, log)
	svc := NewAuthService(db, log, userRepo, tokenRepo, "test-secret", accessTTL, refreshTTL)
	return svc, tokenRepo
}

func statusCodeOf(t *testing.T, err error) (int, string) {
	t.Helper()
	var ae *apierr.Error
	if !errors.As(err, &ae) {
		t.Fatalf("error %v is not an apierr.Error", err)
	}
	return ae.Status, ae.Code
}

func TestSignupAndLoginRoundTrip(t *testing.T) {
	svc, _ := newAuthService(t, time.Hour, 24*time.Hour)
	ctx := context.Background()

	user, err := svc.Signup(ctx, "a@example.com", "alice", "password123")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if user.Password == "password123" {
		t.Fatalf("password stored in plaintext")
	}

	pair, err := svc.Login(ctx, "a@example.com", "password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" || pair.TokenType != "bearer" {
		t.Fatalf("incomplete token pair: %+v", pair)
	}

	got, err := svc.UserFromToken(ctx, pair.AccessToken)
	if err != nil {
		t.Fatalf("UserFromToken: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("UserFromToken resolved user %d, want %d", got.ID, user.ID)
	}
}

func TestSignupDuplicateConflicts(t *testing.T) {
	svc, _ := newAuthService(t, time.Hour, 24*time.Hour)
	ctx := context.Background()
	if _, err := svc.Signup(ctx, "a@example.com", "alice", "password123"); err != nil {
		t.Fatalf("signup: %v", err)
	}

	_, err := svc.Signup(ctx, "a@example.com", "other", "password123")
	if status, _ := statusCodeOf(t, err); status != 409 {
		t.Fatalf("duplicate email status=%d, want 409", status)
	}
	_, err = svc.Signup(ctx, "b@example.com", "alice", "password123")
	if status, _ := statusCodeOf(t, err); status != 409 {
		t.Fatalf("duplicate username status=%d, want 409", status)
	}
}

// Unknown email and wrong password must be indistinguishable.
func TestLoginFailuresAreUniform(t *testing.T) {
	svc, _ := newAuthService(t, time.Hour, 24*time.Hour)
	ctx := context.Background()
	if _, err := svc.Signup(ctx, "a@example.com", "alice", "password123"); err != nil {
		t.Fatalf("signup: %v", err)
	}

	_, errUnknown := svc.Login(ctx, "ghost@example.com", "password123")
	_, errWrongPw := svc.Login(ctx, "a@example.com", "wrong-password")

	for _, err := range []error{errUnknown, errWrongPw} {
		status, code := statusCodeOf(t, err)
		if status != 401 || code != "invalid_credentials" {
			t.Fatalf("login failure = (%d, %q), want (401, invalid_credentials)", status, code)
		}
	}
	if errUnknown.Error() != errWrongPw.Error() {
		t.Fatalf("login failures distinguishable: %q vs %q", errUnknown, errWrongPw)
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, tokenRepo := newAuthService(t, time.Hour, 24*time.Hour)
	ctx := context.Background()
	if _, err := svc.Signup(ctx, "a@example.com", "alice", "password123"); err != nil {
		t.Fatalf("signup: %v", err)
	}
	pair, _ := svc.Login(ctx, "a@example.com", "password123")

	rotated, err := svc.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if rotated.RefreshToken == pair.RefreshToken {
		t.Fatalf("refresh token not rotated")
	}

	// The consumed token is gone from the store.
	row, err := tokenRepo.GetByToken(ctx, nil, pair.RefreshToken)
	if err != nil || row != nil {
		t.Fatalf("consumed token still present: (%v, %v)", row, err)
	}
}

func TestRefreshReuseDetected(t *testing.T) {
	svc, _ := newAuthService(t, time.Hour, 24*time.Hour)
	ctx := context.Background()
	if _, err := svc.Signup(ctx, "a@example.com", "alice", "password123"); err != nil {
		t.Fatalf("signup: %v", err)
	}
	pair, _ := svc.Login(ctx, "a@example.com", "password123")
	if _, err := svc.Refresh(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("first refresh: %v", err)
	}

	// Replaying the consumed token is a reuse signal.
	_, err := svc.Refresh(ctx, pair.RefreshToken)
	status, code := statusCodeOf(t, err)
	if status != 401 || code != "token_reuse_detected" {
		t.Fatalf("reuse = (%d, %q), want (401, token_reuse_detected)", status, code)
	}
}

func TestRefreshExpiredTokenConsumed(t *testing.T) {
	svc, tokenRepo := newAuthService(t, time.Hour, -time.Minute)
	ctx := context.Background()
	if _, err := svc.Signup(ctx, "a@example.com", "alice", "password123"); err != nil {
		t.Fatalf("signup: %v", err)
	}
	pair, _ := svc.Login(ctx, "a@example.com", "password123")

	_, err := svc.Refresh(ctx, pair.RefreshToken)
	status, code := statusCodeOf(t, err)
	if status != 401 || code != "token_expired" {
		t.Fatalf("expired refresh = (%d, %q), want (401, token_expired)", status, code)
	}
	// Even a refused rotation consumes the token.
	row, _ := tokenRepo.GetByToken(ctx, nil, pair.RefreshToken)
	if row != nil {
		t.Fatalf("expired token survived the refused rotation")
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	svc, _ := newAuthService(t, time.Hour, 24*time.Hour)
	ctx := context.Background()
	if _, err := svc.Signup(ctx, "a@example.com", "alice", "password123"); err != nil {
		t.Fatalf("signup: %v", err)
	}
	pair, _ := svc.Login(ctx, "a@example.com", "password123")

	if err := svc.Logout(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if err := svc.Logout(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("second logout: %v", err)
	}
	if _, err := svc.Refresh(ctx, pair.RefreshToken); err == nil {
		t.Fatalf("refresh succeeded after logout")
	}
}

func TestUserFromTokenRejectsGarbage(t *testing.T) {
	svc, _ := newAuthService(t, time.Hour, 24*time.Hour)
	ctx := context.Background()

	for _, token := range []string{"", "not-a-jwt", "aaa.bbb.ccc"} {
		_, err := svc.UserFromToken(ctx, token)
		if err == nil {
			t.Fatalf("token %q accepted", token)
		}
		if status, _ := statusCodeOf(t, err); status != 401 {
			t.Fatalf("token %q status=%d, want 401", token, status)
		}
	}
}

func TestUserFromTokenRejectsExpired(t *testing.T) {
	svc, _ := newAuthService(t, -time.Minute, 24*time.Hour)
	ctx := context.Background()
	if _, err := svc.Signup(ctx, "a@example.com", "alice", "password123"); err != nil {
		t.Fatalf("signup: %v", err)
	}
	pair, _ := svc.Login(ctx, "a@example.com", "password123")

	_, err := svc.UserFromToken(ctx, pair.AccessToken)
	if err == nil {
		t.Fatalf("expired access token accepted")
	}
	if status, _ := statusCodeOf(t, err); status != 401 {
		t.Fatalf("expired token status=%d, want 401", status)
	}
}
