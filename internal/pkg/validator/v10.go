package validator

import (
	"encoding/json"
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entrans "github.com/go-playground/validator/v10/translations/en"
	"github.com/shandysiswandi/fintrack/internal/pkg/strcase"
)

var ErrTranslatorNotFound = errors.New("validator: english translator not found")

// V10ValidationError maps field names to human readable messages.
type V10ValidationError map[string]string

func (e V10ValidationError) Error() string {
	b, _ := json.Marshal(map[string]string(e))
	return "validation failed: " + string(b)
}

func (e V10ValidationError) Values() map[string]string {
	return e
}

type rule struct {
	tag     string
	message string
	check   func(string) bool
}

var (
	// NIST 800-63B: length is what matters; 72 is bcrypt's input limit.
	rePassword = regexp.MustCompile(`^.{8,72}$`)
	// Unlike the built-in alphaspace, names may use any script.
	rePersonName = regexp.MustCompile(`^[\p{L} ]+$`)
	reDigits     = regexp.MustCompile(`^[0-9]+$`)

	customRules = []rule{
		{tag: "password", message: "{0} must be 8-72 characters", check: rePassword.MatchString},
		{tag: "personname", message: "{0} can contain only letters and spaces", check: rePersonName.MatchString},
		{tag: "numeric_code", message: "{0} must contain only digits", check: reDigits.MatchString},
	}
)

type V10Validator struct {
	validate *validator.Validate
	trans    ut.Translator
}

func NewV10Validator() (*V10Validator, error) {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(fieldName)

	locale := en.New()
	trans, ok := ut.New(locale, locale).GetTranslator("en")
	if !ok {
		return nil, ErrTranslatorNotFound
	}
	if err := entrans.RegisterDefaultTranslations(v, trans); err != nil {
		return nil, err
	}

	for _, r := range customRules {
		if err := register(v, trans, r); err != nil {
			return nil, err
		}
	}

	return &V10Validator{validate: v, trans: trans}, nil
}

func register(v *validator.Validate, trans ut.Translator, r rule) error {
	err := v.RegisterValidation(r.tag, func(fl validator.FieldLevel) bool {
		s, ok := fl.Field().Interface().(string)
		return ok && r.check(s)
	})
	if err != nil {
		return err
	}

	return v.RegisterTranslation(r.tag, trans,
		func(t ut.Translator) error { return t.Add(r.tag, r.message, false) },
		func(t ut.Translator, fe validator.FieldError) string {
			msg, err := t.T(fe.Tag(), fe.Field())
			if err != nil {
				return fe.Error()
			}
			return msg
		},
	)
}

// fieldName prefers the json name so messages match the request payload.
func fieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return strcase.ToLowerSnake(f.Name)
	default:
		return name
	}
}

// Validate returns V10ValidationError for tag violations and any other error
// (such as a non-struct argument) as is.
func (v *V10Validator) Validate(data any) error {
	err := v.validate.Struct(data)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return err
	}

	out := make(V10ValidationError, len(errs))
	for _, fe := range errs {
		out[fe.Field()] = fe.Translate(v.trans)
	}
	return out
}
