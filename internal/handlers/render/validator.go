package render

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	rules "github.com/nkiryanov/tokenauth/internal/service/validate"
)

// Tags known besides validator built-in ones
var customValidations = map[string]validator.Func{
	"username": validateUsername,
}

// Validator reports fields by json names and knows custom tags
// Panics if a custom tag could not be registered: requests would fail on it anyway
func newValidator() *validator.Validate {
	v := validator.New()
	if err := configureValidator(v, customValidations); err != nil {
		panic(fmt.Sprintf("render: %v", err))
	}
	return v
}

func configureValidator(v *validator.Validate, validations map[string]validator.Func) error {
	for tag, fn := range validations {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("can't register %q validation: %w", tag, err)
		}
	}
	v.RegisterTagNameFunc(useJSONTagNames)
	return nil
}

func useJSONTagNames(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	// skip if tag key says it should be ignored
	if name == "-" {
		return ""
	}
	return name
}

func validateUsername(fl validator.FieldLevel) bool {
	return rules.Username(fl.Field().String()) == nil
}
