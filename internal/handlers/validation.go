package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"katalog/internal/domain"
	"katalog/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var slugPattern = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

// Validator checks request bodies and reports failures as
// domain.ValidationError keyed by JSON field name.
type Validator struct {
	validate *validator.Validate
	policy   services.PasswordPolicy
}

// NewValidator creates a Validator with the password and slug tags
// registered.
func NewValidator() *Validator {
	v := &Validator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		policy:   services.DefaultPasswordPolicy,
	}
	v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.validate.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return len(v.policy.Check(fl.Field().String())) == 0
	})
	_ = v.validate.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	})
	return v
}

// Struct validates s.
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	verr := &domain.ValidationError{}
	for _, fe := range fieldErrs {
		field := fieldPath(fe)
		if fe.Tag() == "password" {
			for _, msg := range v.policy.Check(fmt.Sprint(fe.Value())) {
				verr.Add(field, msg)
			}
			continue
		}
		verr.Add(field, message(fe))
	}
	return verr
}

// fieldPath drops the struct name from the namespace, so nested fields read
// like "variants[0].sku".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "url":
		return "Enter a valid URL."
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "slug":
		return "Enter a valid slug consisting of letters, numbers, underscores or hyphens."
	case "oneof":
		return fmt.Sprintf("\"%v\" is not a valid choice.", fe.Value())
	default:
		return fmt.Sprintf("Failed on the '%s' rule.", fe.Tag())
	}
}

// bind parses the JSON body of c into dst and validates it.
func (v *Validator) bind(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return domain.NewValidationError(domain.NonFieldErrors, "Malformed request body.")
	}
	return v.Struct(dst)
}
