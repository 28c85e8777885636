package service

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"strconv"
	"time"
)

const (
	otpMin = 100000
	otpMax = 999999

	DefaultOTPTTL = 10 * time.Minute
)

// OTPIssuer produces six digit codes and their expiry.
type OTPIssuer struct {
	ttl  time.Duration
	rand io.Reader
}

func NewOTPIssuer(ttl time.Duration) *OTPIssuer {
	return NewOTPIssuerWithReader(ttl, rand.Reader)
}

// NewOTPIssuerWithReader uses r as the randomness source instead of
// crypto/rand.
func NewOTPIssuerWithReader(ttl time.Duration, r io.Reader) *OTPIssuer {
	if ttl <= 0 {
		ttl = DefaultOTPTTL
	}

	return &OTPIssuer{ttl: ttl, rand: r}
}

// Generate draws uniformly from [100000, 999999] so every code has six
// digits and no leading zero.
func (o *OTPIssuer) Generate() (string, error) {
	n, err := rand.Int(o.rand, big.NewInt(otpMax-otpMin+1))
	if err != nil {
		return "", fmt.Errorf("failed to generate otp, %w", err)
	}

	return strconv.FormatInt(n.Int64()+otpMin, 10), nil
}

// Issue returns a fresh code that expires ttl after now.
func (o *OTPIssuer) Issue(now time.Time) (string, time.Time, error) {
	code, err := o.Generate()
	if err != nil {
		return "", time.Time{}, err
	}

	return code, now.Add(o.ttl), nil
}
