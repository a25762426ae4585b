package config

import (
	"LykkeLoopAPI/internal/entity"

	"github.com/go-playground/validator/v10"
)

func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("media_type", validateMediaType)
	return v
}

func validateMediaType(fl validator.FieldLevel) bool {
	return entity.MediaType(fl.Field().String()).Valid()
}
