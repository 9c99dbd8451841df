package utils

import (
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var hhmmPattern = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):[0-5][0-9]$`)

// EventCategories is the closed set of event categories.
var EventCategories = []string{"Academic", "Social", "Career", "Sports"}

// RegisterValidators adds the custom binding tags used by request DTOs.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	if err := v.RegisterValidation("hhmm", validateHHMM); err != nil {
		return err
	}
	return v.RegisterValidation("eventcategory", validateCategory)
}

func validateHHMM(fl validator.FieldLevel) bool {
	return IsHHMM(fl.Field().String())
}

func validateCategory(fl validator.FieldLevel) bool {
	return IsEventCategory(fl.Field().String())
}

// IsHHMM reports whether s is a 24h "HH:MM" time of day.
func IsHHMM(s string) bool {
	return hhmmPattern.MatchString(strings.TrimSpace(s))
}

func IsEventCategory(s string) bool {
	for _, c := range EventCategories {
		if c == s {
			return true
		}
	}
	return false
}
