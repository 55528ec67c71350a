// Package validate wraps a shared go-playground validator instance.
package validate

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// v is the shared validator, initialised at package load. Custom type
// registrations belong in an init() so they land before the first Struct call.
var v = validator.New()

// Struct runs the validate tags on s and flattens any violations into a
// single human-readable error. Handlers surface it verbatim in the 422
// response body.
func Struct(s interface{}) error {
	if err := v.Struct(s); err != nil {
		ve, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		var msgs []string
		for _, fe := range ve {
			msgs = append(msgs, fmt.Sprintf("field '%s' failed '%s'", fe.Field(), fe.Tag()))
		}
		return fmt.Errorf("%s", strings.Join(msgs, "; "))
	}
	return nil
}
