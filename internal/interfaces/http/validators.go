package http

import (
	"fmt"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/garyjia/travel-expense-portal/pkg/utils"
)

var registerOnce sync.Once

// registerValidators adds the isodate tag to gin's validator
func registerValidators() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			if err := v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
				return utils.IsISODate(fl.Field().String())
			}); err != nil {
				panic(fmt.Sprintf("register isodate validator: %v", err))
			}
		}
	})
}
