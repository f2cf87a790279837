package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/userauth/internal/common"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/nyaruka/phonenumbers"
)

// DefaultPhoneRegion is used for numbers given without a country code.
const DefaultPhoneRegion = "US"

var errInvalidPhone = errors.New("must be a valid phone number")

// RegisterRequest carries the self-registration form.
type RegisterRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	PhoneNumber string `json:"phoneNumber"`
}

// bcrypt ignores everything past 72 bytes, so longer passwords are refused.
var passwordRules = []validation.Rule{validation.Required, validation.Length(6, 72)}

func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(3, 50)),
		validation.Field(&r.Email, validation.Required, validation.Length(0, 100), is.Email),
		validation.Field(&r.Password, passwordRules...),
		validation.Field(&r.FirstName, validation.Length(0, 50)),
		validation.Field(&r.LastName, validation.Length(0, 50)),
		validation.Field(&r.PhoneNumber, validation.By(validPhone)),
	)
}

// UpdateRequest is a partial profile update; nil fields stay unchanged.
type UpdateRequest struct {
	Username    *string `json:"username"`
	Email       *string `json:"email"`
	Password    *string `json:"password"`
	FirstName   *string `json:"firstName"`
	LastName    *string `json:"lastName"`
	PhoneNumber *string `json:"phoneNumber"`
}

func (r UpdateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.NilOrNotEmpty, validation.Length(3, 50)),
		validation.Field(&r.Email, validation.NilOrNotEmpty, validation.Length(0, 100), is.Email),
		validation.Field(&r.Password, validation.NilOrNotEmpty, validation.Length(6, 72)),
		validation.Field(&r.FirstName, validation.Length(0, 50)),
		validation.Field(&r.LastName, validation.Length(0, 50)),
		validation.Field(&r.PhoneNumber, validation.By(validPhone)),
	)
}

func validPhone(value interface{}) error {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case *string:
		if v == nil {
			return nil
		}
		s = *v
	}
	if strings.TrimSpace(s) == "" {
		return nil
	}
	if _, err := normalizePhone(s); err != nil {
		return errInvalidPhone
	}
	return nil
}

// normalizePhone returns the E.164 form of s. An empty input yields nil.
func normalizePhone(s string) (*string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	num, err := phonenumbers.Parse(s, DefaultPhoneRegion)
	if err != nil {
		return nil, err
	}
	if !phonenumbers.IsValidNumber(num) {
		return nil, errInvalidPhone
	}
	e164 := phonenumbers.Format(num, phonenumbers.E164)
	return &e164, nil
}

func validationError(err error) error {
	return fmt.Errorf("%w: %s", common.ErrorValidation, err.Error())
}
