package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yungbote/tilegen-backend/internal/data/repos"
	types "github.com/yungbote/tilegen-backend/internal/domain"
	"github.com/yungbote/tilegen-backend/internal/platform/ctxutil"
	"github.com/yungbote/tilegen-backend/internal/platform/logger"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrUserInactive = errors.New("user is not active")
)

type AuthService interface {
	IssueAccessToken(ctx context.Context, user *types.User) (string, error)
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	GetAccessTTL() time.Duration
}

type authService struct {
	log          *logger.Logger
	userRepo     repos.UserRepo
	jwtSecretKey []byte
	accessTTL    time.Duration
}

func NewAuthService(log *logger.Logger, userRepo repos.UserRepo, jwtSecretKey string, accessTTL time.Duration) (AuthService, error) {
	if jwtSecretKey == "" {
		return nil, fmt.Errorf("missing JWT_SECRET_KEY")
	}
	if accessTTL <= 0 {
		accessTTL = time.Hour
	}
	serviceLog := log.With("service", "AuthService")
	return &authService{
		log:          serviceLog,
		userRepo:     userRepo,
		jwtSecretKey: []byte(jwtSecretKey),
		accessTTL:    accessTTL,
	}, nil
}

func (as *authService) GetAccessTTL() time.Duration { return as.accessTTL }

func (as *authService) IssueAccessToken(ctx context.Context, user *types.User) (string, error) {
	if user == nil || user.ID == uuid.Nil {
		return "", fmt.Errorf("user required")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   user.ID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(as.accessTTL)),
		ID:        uuid.New().String(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(as.jwtSecretKey)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// SetContextFromToken validates tokenString and attaches the caller to ctx.
// Unknown users surface as ErrInvalidToken; disabled ones as ErrUserInactive.
func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return as.jwtSecretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return ctx, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	users, err := as.userRepo.GetByIDs(ctx, nil, []uuid.UUID{userID})
	if err != nil {
		return ctx, fmt.Errorf("load user: %w", err)
	}
	if len(users) == 0 {
		return ctx, fmt.Errorf("%w: unknown user", ErrInvalidToken)
	}
	user := users[0]
	if !user.IsActive() {
		as.log.Debug("inactive user rejected", "user_id", user.ID, "status", user.Status)
		return ctx, ErrUserInactive
	}

	rd := ctxutil.GetRequestData(ctx)
	if rd == nil {
		rd = &ctxutil.RequestData{}
	}
	next := *rd
	next.UserID = user.ID
	next.Username = user.Username
	return ctxutil.WithRequestData(ctx, &next), nil
}
