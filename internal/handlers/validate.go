package handlers

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"themesandbox/internal/models"
)

// validate is the shared validator instance for mutation payloads.
var validate = validator.New(validator.WithRequiredStructEnabled())

// themeCreatePayload is the body of POST /user_themes.
type themeCreatePayload struct {
	Name string `json:"name" validate:"required,max=200"`
}

// themeUpdatePayload is the body of PUT /user_themes/{id}. Absent fields
// are left untouched.
type themeUpdatePayload struct {
	Name          *string `json:"name" validate:"omitempty,min=1,max=200"`
	IsShared      *bool   `json:"is_shared"`
	ColorSchemeID *int64  `json:"color_scheme_id"`
}

// schemeUpdatePayload is the body of PUT .../color_schemes/{schemeID}.
type schemeUpdatePayload struct {
	Name   string              `json:"name" validate:"required,max=100"`
	Colors []models.ColorEntry `json:"colors" validate:"max=50,dive"`
}

// fieldErrors converts a validator error into a field→message map for the
// structured 422 response. Non-validator errors map to a single generic
// body entry.
func fieldErrors(err error) map[string]string {
	out := map[string]string{}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		out["body"] = "malformed request body"
		return out
	}
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			out[field] = "is required"
		case "max":
			out[field] = fmt.Sprintf("is too long (max %s)", fe.Param())
		case "min":
			out[field] = fmt.Sprintf("is too short (min %s)", fe.Param())
		case "len":
			out[field] = fmt.Sprintf("must be exactly %s characters", fe.Param())
		case "hexadecimal":
			out[field] = "must be a hex color value"
		default:
			out[field] = "is invalid"
		}
	}
	return out
}
