package handlers

import (
	"fmt"
	"sync"

	"neurothrive/internal/auth"
	"neurothrive/internal/utils"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterValidators adds the "role", "password" and "notblank" tags to gin's
// validator.
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
			return
		}
		if err = v.RegisterValidation("role", validRole); err != nil {
			return
		}
		if err = v.RegisterValidation("password", utils.Password); err != nil {
			return
		}
		err = v.RegisterValidation("notblank", utils.NotBlank)
	})
	return err
}

func validRole(fl validator.FieldLevel) bool {
	_, err := auth.ParseRole(fl.Field().String())
	return err == nil
}
