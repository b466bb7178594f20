package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"unicode"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"blog-be/internal/apperrors"
)

const validationFailed = "Validation failed, entered data is incorrect."

// bind decodes JSON and multipart bodies into dst and validates it. Bodies in any
// other encoding are not read, so dst stays empty and fails validation.
func bind(c *gin.Context, dst any) error {
	var err error
	switch c.ContentType() {
	case binding.MIMEJSON:
		err = c.ShouldBindWith(dst, binding.JSON)
	case binding.MIMEMultipartPOSTForm:
		err = c.ShouldBindWith(dst, binding.FormMultipart)
	default:
		err = binding.Validator.ValidateStruct(dst)
	}
	if err != nil {
		return bindError(err)
	}
	return nil
}

func bindError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperrors.New(apperrors.KindPayloadTooLarge, "Request body too large.")
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]apperrors.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, apperrors.FieldError{
				Field:   jsonName(fe.Field()),
				Message: fieldMessage(fe),
			})
		}
		return apperrors.Validation(validationFailed, fields)
	}

	return apperrors.Wrap(apperrors.KindBadRequest, "Invalid request body.", err)
}

// jsonName lowercases the first letter of a struct field name.
func jsonName(field string) string {
	r, size := utf8.DecodeRuneInString(field)
	if r == utf8.RuneError {
		return field
	}
	return string(unicode.ToLower(r)) + field[size:]
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters long", fe.Param())
	default:
		return "is invalid"
	}
}
