package suggestions

import (
	"fmt"
	"html"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

// Input bounds, counted in runes.
const (
	MaxTitleLen       = 100
	MaxDescriptionLen = 1000
	MaxReasonLen      = 1024
)

type createInput struct {
	Title       string `validate:"required,max=100"`
	Description string `validate:"required,max=1000"`
}

type statusInput struct {
	Reason string `validate:"max=1024"`
}

var (
	validate  = validator.New()
	sanitizer = bluemonday.StrictPolicy()
)

// clean strips markup and surrounding whitespace from user text.
func clean(s string) string {
	return strings.TrimSpace(html.UnescapeString(sanitizer.Sanitize(s)))
}

func checkInput(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return errors.Wrap(err, "validate input")
	}
	fe := fieldErrs[0]
	name := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return &ValidationError{Field: name, Message: fmt.Sprintf("The %s must not be empty.", name)}
	case "max":
		return &ValidationError{Field: name, Message: fmt.Sprintf("The %s must be at most %s characters.", name, fe.Param())}
	default:
		return &ValidationError{Field: name, Message: fmt.Sprintf("The %s is invalid.", name)}
	}
}
