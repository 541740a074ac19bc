package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/tilegen-backend/internal/domain"
	"github.com/yungbote/tilegen-backend/internal/platform/logger"
)

type UserRepo interface {
	Create(ctx context.Context, tx *gorm.DB, users []*types.User) ([]*types.User, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.User, error)
	// GetByEmail returns nil, nil when no user has email.
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.User, error)
	// EnsureActive returns the user with email, creating an active creator
	// when none exists. created reports whether a row was inserted.
	EnsureActive(ctx context.Context, tx *gorm.DB, email, username string) (u *types.User, created bool, err error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, userID uuid.UUID, status types.UserStatus) error
	TouchLastLogin(ctx context.Context, tx *gorm.DB, userID uuid.UUID, at time.Time) error
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return &userRepo{db: db, log: baseLog.With("repo", "UserRepo")}
}

func normalizeEmail(e string) string { return strings.ToLower(strings.TrimSpace(e)) }

func (ur *userRepo) tx(tx *gorm.DB) *gorm.DB {
	if tx == nil {
		return ur.db
	}
	return tx
}

func (ur *userRepo) Create(ctx context.Context, tx *gorm.DB, users []*types.User) ([]*types.User, error) {
	if len(users) == 0 {
		return []*types.User{}, nil
	}
	for _, u := range users {
		u.Email = normalizeEmail(u.Email)
	}
	if err := ur.tx(tx).WithContext(ctx).Create(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (ur *userRepo) GetByIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.User, error) {
	var results []*types.User
	if len(userIDs) == 0 {
		return results, nil
	}
	if err := ur.tx(tx).WithContext(ctx).
		Where("id IN ?", userIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ur *userRepo) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.User, error) {
	var u types.User
	err := ur.tx(tx).WithContext(ctx).
		Where("email = ?", normalizeEmail(email)).
		Take(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (ur *userRepo) EnsureActive(ctx context.Context, tx *gorm.DB, email, username string) (*types.User, bool, error) {
	existing, err := ur.GetByEmail(ctx, tx, email)
	if err != nil || existing != nil {
		return existing, false, err
	}
	created, err := ur.Create(ctx, tx, []*types.User{{
		Email:    email,
		Username: strings.TrimSpace(username),
		Role:     types.UserRoleCreator,
		Status:   types.UserStatusActive,
	}})
	if err != nil {
		return nil, false, err
	}
	ur.log.Info("user created", "user_id", created[0].ID, "email", created[0].Email)
	return created[0], true, nil
}

func (ur *userRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, userID uuid.UUID, status types.UserStatus) error {
	return ur.tx(tx).WithContext(ctx).
		Model(&types.User{}).
		Where("id = ?", userID).
		Update("status", status).Error
}

func (ur *userRepo) TouchLastLogin(ctx context.Context, tx *gorm.DB, userID uuid.UUID, at time.Time) error {
	return ur.tx(tx).WithContext(ctx).
		Model(&types.User{}).
		Where("id = ?", userID).
		Update("last_login_at", at).Error
}
