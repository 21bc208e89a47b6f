package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/tnpportal/portal/models"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// postRules mirrors the persisted shape of a post for validation.
type postRules struct {
	Title       string            `json:"title" validate:"required,max=200"`
	Content     string            `json:"content" validate:"required,min=10"`
	Excerpt     string            `json:"excerpt" validate:"max=300"`
	Category    string            `json:"category" validate:"required,oneof=job internship training placement announcement general"`
	Tags        []string          `json:"tags" validate:"max=20,dive,max=64"`
	ImageURL    string            `json:"image_url" validate:"omitempty,max=1024,http_url"`
	Attachments []attachmentRules `json:"attachments" validate:"max=20,dive"`
}

type attachmentRules struct {
	Name string `json:"name" validate:"required,max=255"`
	URL  string `json:"url" validate:"required,max=1024,http_url"`
	Size int64  `json:"size" validate:"gte=0"`
	Type string `json:"type" validate:"max=128"`
}

// validatePost checks post against the data model. The excerpt limit only
// applies to caller-supplied excerpts; derived ones carry an ellipsis.
func validatePost(post *models.Post, excerptSupplied bool) error {
	rules := postRules{
		Title:    post.Title,
		Content:  post.Content,
		Category: string(post.Category),
		Tags:     post.Tags,
		ImageURL: post.ImageURL,
	}
	if excerptSupplied {
		rules.Excerpt = post.Excerpt
	}
	for _, a := range post.Attachments {
		rules.Attachments = append(rules.Attachments, attachmentRules(a))
	}

	err := validate.Struct(rules)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	verr := &ValidationError{}
	for _, fe := range fieldErrs {
		verr.add(fieldPath(fe), describe(fe))
	}
	return verr.orNil()
}

// fieldPath drops the root struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters long", fe.Param())
		}
		return fmt.Sprintf("must have at least %s entries", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("cannot exceed %s characters", fe.Param())
		}
		return fmt.Sprintf("cannot have more than %s entries", fe.Param())
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "http_url":
		return "must be an http or https URL"
	case "gte":
		return "must not be negative"
	default:
		return "is invalid"
	}
}
