package service

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/institute-crm-api/internal/models"
)

// NewValidator returns a validator that reports json field names and knows the inquiry status enum.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("inquiry_status", func(fl validator.FieldLevel) bool {
		return models.InquiryStatus(fl.Field().String()).Valid()
	})
	return v
}

func blank(s *string) bool {
	return s != nil && strings.TrimSpace(*s) == ""
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

// optional converts empty strings to nil so they are stored as NULL.
func optional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
