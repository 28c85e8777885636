package store

import (
	"context"
	"fmt"
	"time"

	"mangrovewatch/report-api/internal/model"

	"gorm.io/gorm"
)

type Users interface {
	Create(ctx context.Context, u *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	// ReplaceOTP overwrites the OTP of an unverified user. Returns
	// ErrNotFound when no unverified user with that id exists.
	ReplaceOTP(ctx context.Context, id, code string, expiry time.Time) error
	// ConsumeOTP marks the user verified and clears the OTP only if code is
	// still the stored one and has not expired at now. The boolean reports
	// whether a row was changed.
	ConsumeOTP(ctx context.Context, id, code string, now time.Time) (bool, error)
	SetRole(ctx context.Context, email string, role model.Role) error
}

type userStore struct {
	db *gorm.DB
}

func NewUsers(db *gorm.DB) Users {
	return &userStore{db: db}
}

func (s *userStore) Create(ctx context.Context, u *model.User) error {
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		return fmt.Errorf("failed to create user, %w", translate(err))
	}

	return nil
}

func (s *userStore) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User

	err := s.db.WithContext(ctx).
		Where("email = ?", email).
		First(&u).
		Error
	if err != nil {
		return nil, translate(err)
	}

	return &u, nil
}

func (s *userStore) FindByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User

	err := s.db.WithContext(ctx).
		Where("id = ?", id).
		First(&u).
		Error
	if err != nil {
		return nil, translate(err)
	}

	return &u, nil
}

func (s *userStore) ReplaceOTP(ctx context.Context, id, code string, expiry time.Time) error {
	r := s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ? AND is_email_verified = ?", id, false).
		Updates(map[string]any{
			"otp":        code,
			"otp_expiry": expiry,
		})
	if r.Error != nil {
		return fmt.Errorf("failed to store otp, %w", r.Error)
	}

	if r.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *userStore) ConsumeOTP(ctx context.Context, id, code string, now time.Time) (bool, error) {
	r := s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ? AND otp = ? AND otp_expiry >= ? AND is_email_verified = ?", id, code, now, false).
		Updates(map[string]any{
			"is_email_verified": true,
			"otp":               nil,
			"otp_expiry":        nil,
		})
	if r.Error != nil {
		return false, fmt.Errorf("failed to consume otp, %w", r.Error)
	}

	return r.RowsAffected == 1, nil
}

func (s *userStore) SetRole(ctx context.Context, email string, role model.Role) error {
	r := s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("email = ?", email).
		Update("role", role)
	if r.Error != nil {
		return fmt.Errorf("failed to update role, %w", r.Error)
	}

	if r.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
