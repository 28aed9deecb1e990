// Package validation wraps go-playground/validator with English messages keyed
// by the json name of each offending field.
package validation

import (
	"errors"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
)

// Validator validates structs tagged with `validate`.
type Validator struct {
	validate *validator.Validate
	trans    ut.Translator
}

// New creates a Validator with English translations registered.
func New() (*Validator, error) {
	english := en.New()
	uni := ut.New(english, english)

	trans, _ := uni.GetTranslator("en")

	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := entranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	if err := registerUsername(validate, trans); err != nil {
		return nil, err
	}

	return &Validator{validate: validate, trans: trans}, nil
}

// Struct validates s and returns the failing fields mapped to a readable
// message. A nil map means s is valid. The error is only set when s could not
// be validated at all.
func (v *Validator) Struct(s any) (map[string]string, error) {
	err := v.validate.Struct(s)
	if err == nil {
		return nil, nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return nil, err
	}

	fields := make(map[string]string, len(validationErrs))
	for _, fe := range validationErrs {
		fields[fe.Field()] = fe.Translate(v.trans)
	}

	return fields, nil
}

// registerUsername adds the "username" tag: letters, digits, '.', '_' and '-'
// only. Usernames end up in storage keys and URLs.
func registerUsername(validate *validator.Validate, trans ut.Translator) error {
	if err := validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return IsUsername(fl.Field().String())
	}); err != nil {
		return err
	}

	return validate.RegisterTranslation(
		"username",
		trans,
		func(ut ut.Translator) error {
			return ut.Add("username", "{0} may only contain letters, digits, '.', '_' and '-'", true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			msg, _ := ut.T("username", fe.Field())
			return msg
		},
	)
}

// IsUsername reports whether s only holds username characters.
func IsUsername(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			continue
		}
		if r == '.' || r == '_' || r == '-' {
			continue
		}
		return false
	}

	return true
}
