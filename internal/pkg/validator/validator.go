package validator

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// Use JSON tag names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	registerCustomValidations()
}

// oneOfSets are case-insensitive enum tags. rarity accepts the current
// tiers plus the legacy names still sent by older clients.
var oneOfSets = map[string][]string{
	"edition_type": {"unlimited", "limited", "timed", "challenge", "contest"},
	"rarity":       {"common", "rare", "super", "ultra", "galactic", "uncommon", "epic", "legendary", "mythic"},
	"discipline":   {"sports", "cars", "wildlife", "landscape", "urban", "portrait", "abstract", "other"},
	"card_style":   {"sports", "car", "wildlife", "classic", "modern"},
	"card_layout":  {"bordered", "fullbleed"},
	"sort_by":      {"price_asc", "price_desc", "recent"},
}

func registerCustomValidations() {
	for tag, values := range oneOfSets {
		allowed := make(map[string]struct{}, len(values))
		for _, v := range values {
			allowed[v] = struct{}{}
		}
		validate.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			value := strings.ToLower(strings.TrimSpace(fl.Field().String()))
			if value == "" {
				return true
			}
			_, ok := allowed[value]
			return ok
		})
	}
}

// Validate validates a struct and returns a map of field errors
func Validate(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"_": err.Error()}
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		switch fe.Tag() {
		case "required", "required_if":
			fields[field] = "This field is required"
		case "min":
			fields[field] = "Value is too short (min: " + fe.Param() + ")"
		case "max":
			fields[field] = "Value is too long (max: " + fe.Param() + ")"
		case "gt":
			fields[field] = "Value must be greater than " + fe.Param()
		case "gte":
			fields[field] = "Value must be at least " + fe.Param()
		case "lte":
			fields[field] = "Value must be at most " + fe.Param()
		case "url":
			fields[field] = "Invalid URL format"
		default:
			if values, ok := oneOfSets[fe.Tag()]; ok {
				fields[field] = "Must be one of: " + strings.Join(values, ", ")
				continue
			}
			fields[field] = "Invalid value"
		}
	}

	return fields
}

// ValidateVar validates a single variable
func ValidateVar(field interface{}, tag string) error {
	return validate.Var(field, tag)
}
