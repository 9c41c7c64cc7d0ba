// Package validate checks and normalizes form payloads before they are written.
//
// Request structs declare their rules with validator tags:
//
//	type contactRequest struct {
//	    FullName string `json:"full_name" validate:"required" label:"name"`
//	    Email    string `json:"email" validate:"required,address"`
//	}
//
// The custom "address" rule implements the local@domain.tld shape used across
// the site; "required" failures are reported as one message listing every
// required field of the form ("Name, email, and message are required").
// "max" mirrors the width of the column a field is stored in, so oversized
// input is rejected here rather than by the datastore.
package validate

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// InvalidEmailMessage is the client-facing message for a malformed address.
const InvalidEmailMessage = "Invalid email format"

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidationError reports malformed or missing client input.
// Message is safe to return to the caller as-is.
type ValidationError struct {
	Fields  []string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// IsValidationError reports whether err is (or wraps) a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Field names a payload key together with the label used in messages.
type Field struct {
	Name  string
	Label string
}

// IsValidEmail reports whether s has the shape local@domain.tld:
// no whitespace, exactly one "@", and a "." somewhere after it.
func IsValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// Trim returns s without leading and trailing whitespace.
func Trim(s string) string {
	return strings.TrimSpace(s)
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// RequireFields fails when any of the named fields is absent or blank in payload.
// The message lists every field passed in, not just the missing ones.
func RequireFields(payload map[string]string, fields ...Field) error {
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(payload[f.Name]) == "" {
			missing = append(missing, f.Name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	labels := make([]string, len(fields))
	for i, f := range fields {
		labels[i] = f.Label
	}
	return &ValidationError{Fields: missing, Message: RequiredMessage(labels)}
}

// RequiredMessage renders "<labels> required" in sentence form:
// "Email is required", "Name and email are required",
// "Name, email, and message are required".
func RequiredMessage(labels []string) string {
	if len(labels) == 0 {
		return "Required fields are missing"
	}
	words := make([]string, len(labels))
	for i, l := range labels {
		words[i] = strings.ToLower(l)
	}
	words[0] = capitalize(words[0])

	switch len(words) {
	case 1:
		return words[0] + " is required"
	case 2:
		return words[0] + " and " + words[1] + " are required"
	default:
		return strings.Join(words[:len(words)-1], ", ") + ", and " + words[len(words)-1] + " are required"
	}
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator with the "address" rule registered.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(jsonName)
		_ = validate.RegisterValidation("address", func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return s == "" || IsValidEmail(s)
		})
	})
	return validate
}

// Struct validates v (a pointer to a tagged request struct). Missing required
// fields take precedence over format errors.
func Struct(v any) error {
	err := Validator().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &ValidationError{Message: "Invalid request body"}
	}

	var missing, malformed []string
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			missing = append(missing, fe.Field())
		default:
			malformed = append(malformed, fe.Field())
		}
	}

	if len(missing) > 0 {
		return &ValidationError{Fields: missing, Message: RequiredMessage(requiredLabels(v))}
	}

	for _, fe := range fieldErrs {
		if fe.Tag() == "address" {
			return &ValidationError{Fields: malformed, Message: InvalidEmailMessage}
		}
	}
	first := fieldErrs[0]
	if first.Tag() == "max" {
		return &ValidationError{Fields: malformed, Message: capitalize(fieldLabel(v, first.StructField())) + " is too long"}
	}
	return &ValidationError{Fields: malformed, Message: capitalize(fieldLabel(v, first.StructField())) + " is invalid"}
}

// fieldLabel is the message label of the named struct field: its label tag,
// else its json name with underscores as spaces.
func fieldLabel(v any, name string) string {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return name
	}
	f, ok := t.FieldByName(name)
	if !ok {
		return name
	}
	if label := f.Tag.Get("label"); label != "" {
		return label
	}
	return strings.ReplaceAll(jsonName(f), "_", " ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// requiredLabels collects the labels of every field tagged "required", in declaration order.
func requiredLabels(v any) []string {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}

	var labels []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !hasRule(f.Tag.Get("validate"), "required") {
			continue
		}
		labels = append(labels, fieldLabel(v, f.Name))
	}
	return labels
}

func hasRule(tag, rule string) bool {
	for _, r := range strings.Split(tag, ",") {
		if r == rule {
			return true
		}
	}
	return false
}

func jsonName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "" || name == "-" {
		return f.Name
	}
	return name
}
