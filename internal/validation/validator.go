package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/article-ingest/internal/models"
	"github.com/go-playground/validator/v10"
)

// validate is the package-level validator instance used for struct validation.
var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names so messages match the input file.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidationError names a required field that is missing or empty.
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s %s", e.Field, e.Message)
}

// ValidateArticle checks the top-level shape of an article: a title, a slug
// with a current value and a non-empty body. Blocks are not inspected. The
// first failing field is reported, in the order title, slug.current, body.
func ValidateArticle(article *models.Article) error {
	if article == nil {
		return &ValidationError{Field: "article", Message: "is required"}
	}

	err := validate.Struct(article)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}

	fe := fieldErrs[0]
	field := fieldPath(fe.Namespace())
	switch fe.Tag() {
	case "required":
		return &ValidationError{Field: field, Message: "is required"}
	case "min":
		return &ValidationError{Field: field, Message: fmt.Sprintf("must contain at least %s item", fe.Param())}
	default:
		return &ValidationError{Field: field, Message: fmt.Sprintf("failed %q check", fe.Tag()), Value: fe.Value()}
	}
}

// fieldPath drops the struct name from a validator namespace,
// e.g. "Article.slug.current" -> "slug.current".
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}
