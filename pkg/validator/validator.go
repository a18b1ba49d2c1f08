package validator

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	govalidator "github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"

	appErrors "github.com/noah-isme/student-records/pkg/errors"
)

// Validator wraps go-playground/validator with English messages keyed by JSON field name.
type Validator struct {
	validate *govalidator.Validate
	trans    ut.Translator
}

// New builds a Validator with JSON tag names and English translations registered.
func New() *Validator {
	v := govalidator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ := uni.GetTranslator("en")
	_ = enTranslations.RegisterDefaultTranslations(v, trans)

	return &Validator{validate: v, trans: trans}
}

// Struct validates s and returns a VALIDATION_ERROR carrying per-field messages, or nil.
func (v *Validator) Struct(s interface{}, message string) error {
	if err := v.validate.Struct(s); err != nil {
		appErr := appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
		appErr.Details = v.Translate(err)
		return appErr
	}
	return nil
}

// Translate turns a validation error into field -> message. Non-validation errors land under "detail".
func (v *Validator) Translate(err error) map[string]string {
	fields := make(map[string]string)

	var ve govalidator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			fields[fe.Field()] = fe.Translate(v.trans)
		}
		return fields
	}

	fields["detail"] = err.Error()
	return fields
}
