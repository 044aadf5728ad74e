// Package schema validates analysis requests and outgoing events.
package schema

import (
	"errors"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"accent-analyzer/internal/apperr"
	"accent-analyzer/internal/models"
)

// Validator checks struct tags and the cross-field rules tags cannot express.
type Validator struct {
	v *validator.Validate
}

// New returns a Validator that reports fields by their json names.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return &Validator{v: v}
}

// ValidateRequest checks a submission before any work is done on it.
func (s *Validator) ValidateRequest(req *models.AnalysisRequest) error {
	if req == nil {
		return apperr.InvalidRequest(nil, "empty request")
	}
	hasURL := strings.TrimSpace(req.URL) != ""
	hasUpload := req.HasUpload()
	switch {
	case hasURL && hasUpload:
		return apperr.InvalidRequest(nil, "provide either a URL or a file, not both")
	case !hasURL && !hasUpload:
		return apperr.InvalidRequest(nil, "provide a video URL or upload a file")
	}
	if hasURL {
		if err := CheckURL(req.URL); err != nil {
			return err
		}
	}
	if err := s.Validate(req); err != nil {
		return apperr.InvalidRequest(err, "invalid request")
	}
	return nil
}

// Validate checks struct tags on v and returns a readable error listing
// each failing field.
func (s *Validator) Validate(v any) error {
	err := s.v.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fe.Field()+": "+describe(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

// CheckURL requires an absolute http or https URL with a host.
func CheckURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return apperr.InvalidRequest(err, "malformed URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return apperr.InvalidRequest(nil, "URL must start with http:// or https://")
	}
	if u.Host == "" {
		return apperr.InvalidRequest(nil, "URL has no host")
	}
	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "uuid":
		return "must be a valid UUID"
	case "http_url":
		return "must be an http or https URL"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "failed " + fe.Tag()
	}
}
