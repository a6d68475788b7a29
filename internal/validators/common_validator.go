package validators

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"bloodconnect/internal/models"
)

var htmlTagRegex = regexp.MustCompile(`<[^>]*>`)

// RegisterBindingValidations installs the custom tags on gin's validator so
// that ShouldBindJSON enforces them.
func RegisterBindingValidations() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin binding engine is not go-playground/validator")
	}
	return Register(v)
}

func Register(v *validator.Validate) error {
	validations := map[string]validator.Func{
		"blood_type":        validateBloodType,
		"blood_type_or_any": validateBloodTypeOrAny,
		"urgency":           validateUrgency,
		"latitude":          validateLatitude,
		"longitude":         validateLongitude,
	}
	for tag, fn := range validations {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("failed to register %s validation: %w", tag, err)
		}
	}
	return nil
}

// TranslateBindingError turns a bind error into field level messages. JSON
// syntax and type errors land under "body".
func TranslateBindingError(err error) map[string]string {
	details := make(map[string]string)

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		details["body"] = err.Error()
		return details
	}

	for _, fe := range fieldErrors {
		details[fieldPath(fe)] = getErrorMessage(fe)
	}
	return details
}

// fieldPath drops the top-level struct name: "SearchCriteria.Origin.Lat"
// becomes "Origin.Lat".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func getErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", err.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", err.Field(), err.Param())
	case "blood_type":
		return fmt.Sprintf("Blood type must be one of %v", models.AllBloodTypes())
	case "blood_type_or_any":
		return fmt.Sprintf("Blood type must be one of %v or %q", models.AllBloodTypes(), models.BloodTypeAny)
	case "urgency":
		return "Urgency must be critical, high or medium"
	case "latitude":
		return "Latitude must be between -90 and 90"
	case "longitude":
		return "Longitude must be between -180 and 180"
	default:
		return fmt.Sprintf("Validation failed for %s", err.Field())
	}
}

func validateBloodType(fl validator.FieldLevel) bool {
	return models.BloodType(fl.Field().String()).IsConcrete()
}

func validateBloodTypeOrAny(fl validator.FieldLevel) bool {
	return models.BloodType(fl.Field().String()).IsValidCriterion()
}

func validateUrgency(fl validator.FieldLevel) bool {
	return models.Urgency(fl.Field().String()).IsValid()
}

func validateLatitude(fl validator.FieldLevel) bool {
	lat := fl.Field().Float()
	return lat >= -90 && lat <= 90
}

func validateLongitude(fl validator.FieldLevel) bool {
	lng := fl.Field().Float()
	return lng >= -180 && lng <= 180
}

func SanitizeInput(input string) string {
	cleaned := htmlTagRegex.ReplaceAllString(input, "")
	return strings.TrimSpace(cleaned)
}
