package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"mangrovewatch/report-api/internal/model"
	"mangrovewatch/report-api/internal/store"
	"mangrovewatch/report-api/pkg/validators"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
)

const idCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

type Hasher interface {
	Hash(p string) (string, error)
	Compare(p, encoded string) (bool, error)
	CompareDummy(p string)
}

type TokenMinter interface {
	Issue(userID string) (string, error)
}

type AccountOptions struct {
	// ExposeOTP returns the code in the response when mail delivery fails.
	// Resolved once at startup and never enabled in production.
	ExposeOTP bool
}

type SignupInput struct {
	Name     string
	Mobile   string
	Email    string
	Password string
}

type SignupResult struct {
	User      model.PublicUser `json:"user"`
	EmailSent bool             `json:"emailSent"`
	DevOTP    string           `json:"devOtp,omitempty"`
}

type ResendResult struct {
	EmailSent bool   `json:"emailSent"`
	DevOTP    string `json:"devOtp,omitempty"`
}

type Session struct {
	User  model.PublicUser `json:"user"`
	Token string           `json:"token"`
}

// Accounts drives the signup, verification and login flow.
type Accounts struct {
	users  store.Users
	hasher Hasher
	tokens TokenMinter
	otp    *OTPIssuer
	mailer Mailer
	opts   AccountOptions
	now    func() time.Time
}

func NewAccounts(users store.Users, hasher Hasher, tokens TokenMinter, otp *OTPIssuer, mailer Mailer, opts AccountOptions) *Accounts {
	if mailer == nil {
		mailer = DisabledMailer{}
	}

	return &Accounts{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		otp:    otp,
		mailer: mailer,
		opts:   opts,
		now:    time.Now,
	}
}

// WithClock replaces the time source. Used by tests.
func (a *Accounts) WithClock(now func() time.Time) *Accounts {
	a.now = now
	return a
}

func (a *Accounts) Signup(ctx context.Context, in SignupInput) (*SignupResult, error) {
	email := validators.NormalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)
	mobile := strings.TrimSpace(in.Mobile)

	var missing []string
	if name == "" {
		missing = append(missing, "name")
	}
	if mobile == "" {
		missing = append(missing, "mobile")
	}
	if email == "" {
		missing = append(missing, "email")
	}
	if in.Password == "" {
		missing = append(missing, "password")
	}

	if len(missing) > 0 {
		return nil, &MissingFieldsError{Fields: missing}
	}

	if err := validators.Signup(name, mobile, email, in.Password); err != nil {
		return nil, err
	}

	_, err := a.users.FindByEmail(ctx, email)
	if err == nil {
		return nil, ErrDuplicateAccount
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to check if email is registered, %w", err)
	}

	hash, err := a.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password, %w", err)
	}

	userID, err := gonanoid.Generate(idCharset, 16)
	if err != nil {
		return nil, fmt.Errorf("failed to generate user ID, %w", err)
	}

	now := a.now().UTC()

	code, expiry, err := a.otp.Issue(now)
	if err != nil {
		return nil, err
	}

	u := &model.User{
		ID:           userID,
		Name:         name,
		Mobile:       mobile,
		Email:        email,
		PasswordHash: hash,
		OTP:          &code,
		OTPExpiry:    &expiry,
		Role:         model.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := a.users.Create(ctx, u); err != nil {
		// Lost a race against a concurrent signup with the same email
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrDuplicateAccount
		}

		return nil, err
	}

	sent := a.deliver(ctx, u, code)

	res := &SignupResult{User: u.Public(), EmailSent: sent}
	if !sent && a.opts.ExposeOTP {
		res.DevOTP = code
	}

	return res, nil
}

func (a *Accounts) Login(ctx context.Context, email, password string) (*Session, error) {
	email = validators.NormalizeEmail(email)

	u, err := a.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			a.hasher.CompareDummy(password)
			return nil, ErrInvalidCredentials
		}

		return nil, fmt.Errorf("failed to find user, %w", err)
	}

	ok, err := a.hasher.Compare(password, u.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password, %w", err)
	}

	if !ok {
		return nil, ErrInvalidCredentials
	}

	return a.session(u)
}

func (a *Accounts) VerifyOTP(ctx context.Context, email, code string) (*Session, error) {
	u, err := a.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if u.IsEmailVerified {
		return nil, ErrAlreadyVerified
	}

	if u.OTP == nil || u.OTPExpiry == nil {
		return nil, ErrNoOTPIssued
	}

	now := a.now().UTC()
	if now.After(*u.OTPExpiry) {
		return nil, ErrOTPExpired
	}

	if subtle.ConstantTimeCompare([]byte(*u.OTP), []byte(code)) != 1 {
		return nil, ErrOTPMismatch
	}

	ok, err := a.users.ConsumeOTP(ctx, u.ID, code, now)
	if err != nil {
		return nil, err
	}

	// A concurrent resend or verification changed the row first
	if !ok {
		return nil, ErrOTPMismatch
	}

	u.IsEmailVerified = true
	u.OTP = nil
	u.OTPExpiry = nil

	zap.L().Info("User verified", zap.String("userID", u.ID))

	return a.session(u)
}

func (a *Accounts) ResendOTP(ctx context.Context, email string) (*ResendResult, error) {
	u, err := a.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if u.IsEmailVerified {
		return nil, ErrAlreadyVerified
	}

	code, expiry, err := a.otp.Issue(a.now().UTC())
	if err != nil {
		return nil, err
	}

	if err := a.users.ReplaceOTP(ctx, u.ID, code, expiry); err != nil {
		// Only unverified rows are updated
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrAlreadyVerified
		}

		return nil, err
	}

	sent := a.deliver(ctx, u, code)

	res := &ResendResult{EmailSent: sent}
	if !sent && a.opts.ExposeOTP {
		res.DevOTP = code
	}

	return res, nil
}

func (a *Accounts) Current(ctx context.Context, userID string) (*model.PublicUser, error) {
	u, err := a.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}

		return nil, fmt.Errorf("failed to find user, %w", err)
	}

	pub := u.Public()
	return &pub, nil
}

// PromoteAdmin grants the ADMIN role to the account registered under email.
func (a *Accounts) PromoteAdmin(ctx context.Context, email string) error {
	err := a.users.SetRole(ctx, validators.NormalizeEmail(email), model.RoleAdmin)
	if errors.Is(err, store.ErrNotFound) {
		return ErrUserNotFound
	}

	return err
}

func (a *Accounts) findByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := a.users.FindByEmail(ctx, validators.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}

		return nil, fmt.Errorf("failed to find user, %w", err)
	}

	return u, nil
}

func (a *Accounts) session(u *model.User) (*Session, error) {
	token, err := a.tokens.Issue(u.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session token, %w", err)
	}

	return &Session{User: u.Public(), Token: token}, nil
}

func (a *Accounts) deliver(ctx context.Context, u *model.User, code string) bool {
	if err := a.mailer.SendVerificationEmail(ctx, u.Email, code, u.Name); err != nil {
		zap.L().Warn("Verification email not delivered", zap.Error(err), zap.String("userID", u.ID))
		return false
	}

	return true
}
