package middleware

import (
	"github.com/calltrack/api/internal/constants"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators installs custom binding rules on gin's validator engine.
// The "password" rule is the concrete password policy: the original site
// shipped without one, so the minimum length is enforced here and again in
// the service layer.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}

	return v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		password := fl.Field().String()
		return len(password) >= constants.PasswordMinLength &&
			len(password) <= constants.PasswordMaxLength
	})
}
