package validators

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"mangrovewatch/report-api/internal/model"

	"github.com/gabriel-vasile/mimetype"
)

const (
	DescriptionMin = 10
	DescriptionMax = 1000
	AddressMax     = 500
)

var (
	ErrCategoryInvalid    = fmt.Errorf("category must be one of %v", model.Categories)
	ErrStatusInvalid      = fmt.Errorf("status must be one of %v", model.Statuses)
	ErrDescriptionLength  = fmt.Errorf("description must be between %d and %d characters long", DescriptionMin, DescriptionMax)
	ErrLatitudeRange      = errors.New("latitude must be between -90 and 90")
	ErrLongitudeRange     = errors.New("longitude must be between -180 and 180")
	ErrAddressEmpty       = errors.New("no address provided")
	ErrAddressTooLong     = fmt.Errorf("address must be at most %d characters long", AddressMax)
	ErrPhotoEncoding      = errors.New("photo must be base64 encoded")
	ErrPhotoNotImage      = errors.New("photo must be an image")
	ErrPhotoDataURIFormat = errors.New("photo data URI must look like data:image/<type>;base64,<data>")
)

func CategoryValidator(c model.Category) error {
	if !c.Valid() {
		return ErrCategoryInvalid
	}

	return nil
}

func StatusValidator(s model.Status) error {
	if !s.Valid() {
		return ErrStatusInvalid
	}

	return nil
}

func DescriptionValidator(d string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(d))
	if n < DescriptionMin || n > DescriptionMax {
		return ErrDescriptionLength
	}

	return nil
}

func LocationValidator(l model.Location) Errors {
	var errs Errors

	if l.Latitude < -90 || l.Latitude > 90 {
		errs.Add("location.latitude", ErrLatitudeRange)
	}

	if l.Longitude < -180 || l.Longitude > 180 {
		errs.Add("location.longitude", ErrLongitudeRange)
	}

	addr := strings.TrimSpace(l.Address)
	switch {
	case addr == "":
		errs.Add("location.address", ErrAddressEmpty)
	case utf8.RuneCountInString(addr) > AddressMax:
		errs.Add("location.address", ErrAddressTooLong)
	}

	return errs
}

// DecodePhoto accepts plain base64 or a base64 data URI and returns the raw
// bytes together with the sniffed MIME type. Only images are accepted.
func DecodePhoto(p string) ([]byte, string, error) {
	payload := strings.TrimSpace(p)

	if rest, ok := strings.CutPrefix(payload, "data:"); ok {
		meta, data, found := strings.Cut(rest, ",")
		if !found || !strings.HasPrefix(meta, "image/") || !strings.HasSuffix(meta, ";base64") {
			return nil, "", ErrPhotoDataURIFormat
		}

		payload = data
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		raw, err = base64.RawStdEncoding.DecodeString(payload)
		if err != nil {
			return nil, "", ErrPhotoEncoding
		}
	}

	if len(raw) == 0 {
		return nil, "", ErrPhotoEncoding
	}

	mt := mimetype.Detect(raw)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, "", ErrPhotoNotImage
	}

	return raw, mt.String(), nil
}

// Report validates a full submission. Presence of the required fields is
// assumed to be checked by the caller.
func Report(category model.Category, description string, loc model.Location, photo string) error {
	var errs Errors

	errs.Add("category", CategoryValidator(category))
	errs.Add("description", DescriptionValidator(description))
	errs = append(errs, LocationValidator(loc)...)

	if _, _, err := DecodePhoto(photo); err != nil {
		errs.Add("photo", err)
	}

	return errs.Err()
}
