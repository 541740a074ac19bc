package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yungbote/tilegen-backend/internal/data/repos/testutil"
	userrepo "github.com/yungbote/tilegen-backend/internal/data/repos/user"
	types "github.com/yungbote/tilegen-backend/internal/domain"
	"github.com/yungbote/tilegen-backend/internal/platform/ctxutil"
)

func newAuth(t *testing.T, ttl time.Duration) (AuthService, userrepo.UserRepo) {
	t.Helper()
	db := testutil.DB(t)
	repo := userrepo.NewUserRepo(db, testutil.Logger(t))
	svc, err := NewAuthService(testutil.Logger(t), repo, "test-secret", ttl)
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}
	return svc, repo
}

func seedUser(t *testing.T, repo userrepo.UserRepo, status types.UserStatus) *types.User {
	t.Helper()
	u := &types.User{Email: uuid.New().String() + "@example.com", Username: "maker", Status: status}
	if _, err := repo.Create(context.Background(), nil, []*types.User{u}); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func TestAuthRoundTrip(t *testing.T) {
	svc, repo := newAuth(t, time.Hour)
	u := seedUser(t, repo, types.UserStatusActive)

	tok, err := svc.IssueAccessToken(context.Background(), u)
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}
	base := ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{ClientIP: "198.51.100.7"})
	ctx, err := svc.SetContextFromToken(base, tok)
	if err != nil {
		t.Fatalf("SetContextFromToken: %v", err)
	}
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID != u.ID || rd.Username != "maker" {
		t.Fatalf("request data: got=%+v", rd)
	}
	if rd.ClientIP != "198.51.100.7" {
		t.Fatalf("request data kept client ip: got=%q", rd.ClientIP)
	}
}

func TestAuthRejectsInactiveUser(t *testing.T) {
	svc, repo := newAuth(t, time.Hour)
	u := seedUser(t, repo, types.UserStatusDisabled)

	tok, err := svc.IssueAccessToken(context.Background(), u)
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}
	_, err = svc.SetContextFromToken(context.Background(), tok)
	if !errors.Is(err, ErrUserInactive) {
		t.Fatalf("inactive: want=%v got=%v", ErrUserInactive, err)
	}
}

func TestAuthRejectsBadTokens(t *testing.T) {
	svc, repo := newAuth(t, time.Hour)
	u := seedUser(t, repo, types.UserStatusActive)

	other, err := NewAuthService(testutil.Logger(t), repo, "other-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}
	foreign, err := other.IssueAccessToken(context.Background(), u)
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   u.ID.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	})
	expiredTok, err := expired.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign expired: %v", err)
	}

	unknown, err := svc.IssueAccessToken(context.Background(), &types.User{ID: uuid.New()})
	if err != nil {
		t.Fatalf("IssueAccessToken unknown: %v", err)
	}

	for name, tok := range map[string]string{
		"garbage": "not-a-jwt",
		"foreign": foreign,
		"expired": expiredTok,
		"unknown": unknown,
	} {
		if _, err := svc.SetContextFromToken(context.Background(), tok); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("%s: want=%v got=%v", name, ErrInvalidToken, err)
		}
	}
}

func TestNewAuthServiceRequiresSecret(t *testing.T) {
	if _, err := NewAuthService(testutil.Logger(t), nil, "", time.Hour); err == nil {
		t.Fatalf("NewAuthService: expected error for empty secret")
	}
}
