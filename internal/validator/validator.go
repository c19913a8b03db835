package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/munificent-school/backoffice/internal/models"
)

var (
	// custom validation tags & texts
	userRoleTag  = "user_role"
	userRoleText = "{0} must be one of student, teacher, admin"

	lessonStatusTag  = "lesson_status"
	lessonStatusText = "{0} must be one of planned, completed, cancelled"

	applicationStatusTag  = "application_status"
	applicationStatusText = "{0} must be one of new, contacted, registered, archived"

	phoneTag   = "phone"
	phoneText  = "{0} must be a valid phone number"
	phoneRegex = regexp.MustCompile(`^\+?[0-9\s\-()]{7,20}$`)

	requiredTag  = "required"
	requiredText = "{0} is required"
)

// ValidationError represents a single field failure
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule,omitempty"`
}

type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	if len(ve) == 1 {
		return fmt.Sprintf("validation failed: %s %s", ve[0].Field, ve[0].Message)
	}
	return fmt.Sprintf("validation failed: %d field errors", len(ve))
}

// Field builds a one-entry ValidationErrors for checks done outside struct tags.
func Field(field, message, rule string) ValidationErrors {
	return ValidationErrors{{Field: field, Message: message, Rule: rule}}
}

// Validator wraps go-playground/validator with english messages and the
// back office's custom tags.
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
	passwords  *PasswordPolicy
}

func New() *Validator {
	validate := validator.New()

	english := en.New()
	uni := ut.New(english, english)
	translator, _ := uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	v := &Validator{
		validate:   validate,
		translator: translator,
		passwords:  NewPasswordPolicy(),
	}
	v.registerRules()
	return v
}

func (v *Validator) registerRules() {
	_ = v.validate.RegisterValidation(userRoleTag, func(fl validator.FieldLevel) bool {
		return models.UserRole(fl.Field().String()).Valid()
	})
	v.registerTranslation(userRoleTag, userRoleText)

	_ = v.validate.RegisterValidation(lessonStatusTag, func(fl validator.FieldLevel) bool {
		return models.LessonStatus(fl.Field().String()).Valid()
	})
	v.registerTranslation(lessonStatusTag, lessonStatusText)

	_ = v.validate.RegisterValidation(applicationStatusTag, func(fl validator.FieldLevel) bool {
		return models.ApplicationStatus(fl.Field().String()).Valid()
	})
	v.registerTranslation(applicationStatusTag, applicationStatusText)

	_ = v.validate.RegisterValidation(phoneTag, func(fl validator.FieldLevel) bool {
		return phoneRegex.MatchString(fl.Field().String())
	})
	v.registerTranslation(phoneTag, phoneText)

	v.registerTranslation(requiredTag, requiredText, true)
}

// registerTranslation registers a message for tag; {0} is replaced by the field name.
func (v *Validator) registerTranslation(tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = v.validate.RegisterTranslation(
		tag, v.translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Validate checks struct tags and returns ValidationErrors, or nil.
func (v *Validator) Validate(s interface{}) error {
	if err := v.validate.Struct(s); err != nil {
		return v.ToValidationErrors(err)
	}
	return nil
}

// ValidatePassword applies the password policy against the user's own attributes.
func (v *Validator) ValidatePassword(field, password string, attrs ...string) error {
	if msg := v.passwords.Check(password, attrs...); msg != "" {
		return Field(field, msg, "password")
	}
	return nil
}

// ToValidationErrors converts validator errors into ValidationErrors.
func (v *Validator) ToValidationErrors(err error) ValidationErrors {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return Field("", err.Error(), "")
	}

	out := make(ValidationErrors, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		out = append(out, ValidationError{
			Field:   fe.Field(),
			Message: fe.Translate(v.translator),
			Value:   fe.Value(),
			Rule:    fe.Tag(),
		})
	}
	return out
}
