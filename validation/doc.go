// Package validation turns bad request input into 400 AppErrors whose
// details list the offending fields.
//
// # Struct Tag Validation
//
//	type LoginInput struct {
//	    Email    string `json:"email" validate:"required,email"`
//	    Password string `json:"password" validate:"required"`
//	}
//	err := validation.Validate(in)
//
// Field names come from json tags, so details match the request body.
// Custom tags are added with RegisterRule.
//
// # Programmatic Validation
//
//	v := validation.New()
//	v.Custom(a != b, "newPassword", "must differ from the current password")
//	err := v.Validate()
package validation
