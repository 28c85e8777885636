package validators

import (
	"encoding/base64"
	"strings"
	"testing"

	"mangrovewatch/report-api/internal/model"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func validPhoto() string {
	return base64.StdEncoding.EncodeToString(pngHeader)
}

func TestEmailValidator(t *testing.T) {
	assert.NoError(t, EmailValidator("ranger@example.org"))
	assert.ErrorIs(t, EmailValidator(""), ErrEmailEmpty)
	assert.ErrorIs(t, EmailValidator("not-an-email"), ErrEmailInvalid)
	assert.ErrorIs(t, EmailValidator("Ranger <ranger@example.org>"), ErrEmailInvalid)
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ranger@example.org", NormalizeEmail("  Ranger@Example.ORG "))
}

func TestPasswordValidator(t *testing.T) {
	assert.ErrorIs(t, PasswordValidator(""), ErrPasswordEmpty)
	assert.ErrorIs(t, PasswordValidator("short"), ErrPasswordTooShort)
	assert.ErrorIs(t, PasswordValidator(strings.Repeat("a", 256)), ErrPasswordTooLong)
	assert.NoError(t, PasswordValidator("longenough"))
}

func TestMobileValidator(t *testing.T) {
	assert.NoError(t, MobileValidator("+6591234567"))
	assert.NoError(t, MobileValidator("0123456"))
	assert.ErrorIs(t, MobileValidator(""), ErrMobileEmpty)
	assert.ErrorIs(t, MobileValidator("12-34"), ErrMobileInvalid)
}

func TestOTPValidator(t *testing.T) {
	assert.NoError(t, OTPValidator("123456"))
	assert.Error(t, OTPValidator("12345"))
	assert.Error(t, OTPValidator("12345a"))
}

func TestSignupCollectsAllFields(t *testing.T) {
	err := Signup("", "x", "bad", "short")
	require.Error(t, err)

	errs, ok := AsErrors(err)
	require.True(t, ok)

	fields := make([]string, 0, len(errs))
	for _, e := range errs {
		fields = append(fields, e.Field)
	}
	assert.ElementsMatch(t, []string{"name", "mobile", "email", "password"}, fields)

	assert.NoError(t, Signup("Ana", "+6591234567", "ana@example.org", "longenough"))
}

func TestDecodePhoto(t *testing.T) {
	raw, mt, err := DecodePhoto(validPhoto())
	require.NoError(t, err)
	assert.Equal(t, "image/png", mt)
	assert.Equal(t, pngHeader, raw)

	_, mt, err = DecodePhoto("data:image/png;base64," + validPhoto())
	require.NoError(t, err)
	assert.Equal(t, "image/png", mt)

	_, _, err = DecodePhoto("%%%")
	assert.ErrorIs(t, err, ErrPhotoEncoding)

	_, _, err = DecodePhoto(base64.StdEncoding.EncodeToString([]byte("just some text")))
	assert.ErrorIs(t, err, ErrPhotoNotImage)

	_, _, err = DecodePhoto("data:text/plain;base64,aGVsbG8=")
	assert.ErrorIs(t, err, ErrPhotoDataURIFormat)
}

func TestReportValidation(t *testing.T) {
	loc := model.Location{Latitude: 1.3, Longitude: 103.8, Address: "Sungei Buloh"}

	assert.NoError(t, Report(model.CategoryIllegalCutting, "Fresh stumps near the boardwalk", loc, validPhoto()))

	err := Report("fishing", "short", model.Location{Latitude: 95, Longitude: -181, Address: " "}, "%%")
	errs, ok := AsErrors(err)
	require.True(t, ok)

	fields := map[string]bool{}
	for _, e := range errs {
		fields[e.Field] = true
	}
	for _, f := range []string{"category", "description", "location.latitude", "location.longitude", "location.address", "photo"} {
		assert.True(t, fields[f], f)
	}
}

func TestDescriptionBounds(t *testing.T) {
	assert.Error(t, DescriptionValidator(strings.Repeat("a", 9)))
	assert.NoError(t, DescriptionValidator(strings.Repeat("a", 10)))
	assert.NoError(t, DescriptionValidator(strings.Repeat("ä", 1000)))
	assert.Error(t, DescriptionValidator(strings.Repeat("a", 1001)))
}

type bindTarget struct {
	Email string `json:"email" binding:"required,email"`
	Inner struct {
		Lat float64 `json:"latitude" binding:"gte=-90,lte=90"`
	} `json:"location"`
}

func TestFromBindingUsesJSONNames(t *testing.T) {
	RegisterTagNames()

	var b bindTarget
	b.Inner.Lat = 95

	err := binding.Validator.ValidateStruct(&b)
	require.Error(t, err)

	errs := FromBinding(err)
	fields := map[string]string{}
	for _, e := range errs {
		fields[e.Field] = e.Message
	}

	assert.Equal(t, "is required", fields["email"])
	assert.Equal(t, "must be less than or equal to 90", fields["location.latitude"])
}

func TestFromBindingMalformed(t *testing.T) {
	errs := FromBinding(assert.AnError)
	require.Len(t, errs, 1)
	assert.Equal(t, "body", errs[0].Field)
}
