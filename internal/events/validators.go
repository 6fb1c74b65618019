package events

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var currencyCode = regexp.MustCompile(`^[A-Za-z]{3}$`)

// RegisterValidators adds the eventtype and currency tags to gin's validator
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return RegisterOn(v)
}

// RegisterOn adds the eventtype and currency tags to v
func RegisterOn(v *validator.Validate) error {
	if err := v.RegisterValidation("eventtype", func(fl validator.FieldLevel) bool {
		return EventType(fl.Field().String()).IsValid()
	}); err != nil {
		return err
	}
	return v.RegisterValidation("currency", func(fl validator.FieldLevel) bool {
		return currencyCode.MatchString(fl.Field().String())
	})
}
