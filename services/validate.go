package services

import "github.com/go-playground/validator/v10"

// validate is the shared request validator; endpoint DTOs declare their
// constraints via struct tags.
var validate = validator.New()
