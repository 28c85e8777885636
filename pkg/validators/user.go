package validators

import (
	"errors"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	ErrEmailEmpty   = errors.New("no email address provided")
	ErrEmailInvalid = errors.New("invalid email address provided")

	ErrPasswordTooShort = errors.New("password must be at least 8 characters long")
	ErrPasswordTooLong  = errors.New("password is too long")
	ErrPasswordEmpty    = errors.New("no password provided")

	ErrNameEmpty   = errors.New("no name provided")
	ErrNameTooLong = errors.New("name must be at most 100 characters long")

	ErrMobileEmpty   = errors.New("no mobile number provided")
	ErrMobileInvalid = errors.New("mobile number must be 7 to 15 digits with an optional leading +")

	ErrOTPInvalid = errors.New("code must be exactly 6 digits")
)

var (
	mobileRe = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
	otpRe    = regexp.MustCompile(`^[0-9]{6}$`)
)

// NormalizeEmail lower-cases and trims an address. Emails are stored and
// looked up only in this form.
func NormalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

func EmailValidator(e string) error {
	if e == "" {
		return ErrEmailEmpty
	}

	addr, err := mail.ParseAddress(e)
	if err != nil || addr.Address != e {
		return ErrEmailInvalid
	}

	return nil
}

func PasswordValidator(p string) error {
	if p == "" {
		return ErrPasswordEmpty
	}

	if len(p) < 8 {
		return ErrPasswordTooShort
	}

	if len(p) > 255 {
		return ErrPasswordTooLong
	}

	return nil
}

func NameValidator(n string) error {
	n = strings.TrimSpace(n)
	if n == "" {
		return ErrNameEmpty
	}

	if utf8.RuneCountInString(n) > 100 {
		return ErrNameTooLong
	}

	return nil
}

func MobileValidator(m string) error {
	m = strings.TrimSpace(m)
	if m == "" {
		return ErrMobileEmpty
	}

	if !mobileRe.MatchString(m) {
		return ErrMobileInvalid
	}

	return nil
}

func OTPValidator(code string) error {
	if !otpRe.MatchString(code) {
		return ErrOTPInvalid
	}

	return nil
}

// Signup checks every signup field and reports all problems at once.
// email must already be normalized.
func Signup(name, mobile, email, password string) error {
	var errs Errors

	errs.Add("name", NameValidator(name))
	errs.Add("mobile", MobileValidator(mobile))
	errs.Add("email", EmailValidator(email))
	errs.Add("password", PasswordValidator(password))

	return errs.Err()
}
