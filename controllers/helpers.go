package controllers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/mitodev/mito/middleware"
)

// errNameTaken signals a uniqueness conflict detected inside a write
// transaction; handlers map it to 409.
var errNameTaken = errors.New("name already taken")

// pathID parses the numeric :id path parameter. The raw string never reaches
// the database; anything non-numeric is treated as a lookup miss.
func pathID(ctx *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// getUserID extracts the authenticated user ID placed in context by the auth gate.
func getUserID(ctx *gin.Context) (uint, bool) {
	v, ok := ctx.Get(middleware.ContextUserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// bindingErrors converts a gin binding failure into field-level error detail
// for the envelope's data section.
func bindingErrors(err error) gin.H {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := gin.H{}
		for _, fe := range verrs {
			fields[strings.ToLower(fe.Field())] = []string{validationMessage(fe)}
		}
		return fields
	}
	return gin.H{"error": "invalid request payload"}
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "min":
		return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
	default:
		return "This field is invalid."
	}
}
