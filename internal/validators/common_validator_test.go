package validators

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bloodconnect/internal/models"
	"bloodconnect/internal/utils"
)

func newBindingValidator(t *testing.T) *validator.Validate {
	t.Helper()
	v := validator.New()
	v.SetTagName("binding")
	require.NoError(t, Register(v))
	return v
}

func TestSearchCriteriaValidation(t *testing.T) {
	v := newBindingValidator(t)

	valid := models.SearchCriteria{
		BloodType: models.BloodTypeOPos,
		Origin:    utils.Coordinate{Lat: 37.77, Lng: -122.42},
		RadiusKM:  10,
	}
	assert.NoError(t, v.Struct(valid))

	anyType := valid
	anyType.BloodType = models.BloodTypeAny
	assert.NoError(t, v.Struct(anyType))

	tests := []struct {
		name   string
		mutate func(c *models.SearchCriteria)
		field  string
	}{
		{"unknown blood type", func(c *models.SearchCriteria) { c.BloodType = "Z+" }, "BloodType"},
		{"missing blood type", func(c *models.SearchCriteria) { c.BloodType = "" }, "BloodType"},
		{"zero radius", func(c *models.SearchCriteria) { c.RadiusKM = 0 }, "RadiusKM"},
		{"negative radius", func(c *models.SearchCriteria) { c.RadiusKM = -1 }, "RadiusKM"},
		{"latitude", func(c *models.SearchCriteria) { c.Origin.Lat = 90.5 }, "Origin.Lat"},
		{"longitude", func(c *models.SearchCriteria) { c.Origin.Lng = -200 }, "Origin.Lng"},
		{"negative limit", func(c *models.SearchCriteria) { c.Limit = -5 }, "Limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)

			err := v.Struct(c)
			require.Error(t, err)
			assert.Contains(t, TranslateBindingError(err), tt.field)
		})
	}
}

func TestCreateEmergencyParamsValidation(t *testing.T) {
	v := newBindingValidator(t)

	valid := models.CreateEmergencyParams{
		BloodType:     models.BloodTypeABNeg,
		Hospital:      "St. Mary's",
		Urgency:       models.UrgencyHigh,
		UnitsRequired: 4,
		Origin:        utils.Coordinate{Lat: 51.5, Lng: -0.12},
	}
	assert.NoError(t, v.Struct(valid))

	anyType := valid
	anyType.BloodType = models.BloodTypeAny
	err := v.Struct(anyType)
	require.Error(t, err)
	assert.Contains(t, TranslateBindingError(err)["BloodType"], "Blood type must be one of")

	badUrgency := valid
	badUrgency.Urgency = "low"
	err = v.Struct(badUrgency)
	require.Error(t, err)
	assert.Equal(t, "Urgency must be critical, high or medium", TranslateBindingError(err)["Urgency"])

	noUnits := valid
	noUnits.UnitsRequired = 0
	err = v.Struct(noUnits)
	require.Error(t, err)
	assert.Contains(t, TranslateBindingError(err), "UnitsRequired")

	// Only the lower bound is enforced.
	largeDrive := valid
	largeDrive.UnitsRequired = 120
	assert.NoError(t, v.Struct(largeDrive))
}

func TestTranslateBindingError_SyntaxError(t *testing.T) {
	var c models.SearchCriteria
	err := json.Unmarshal([]byte(`{"radiusKm": "far"}`), &c)
	require.Error(t, err)

	details := TranslateBindingError(err)
	assert.Contains(t, details, "body")
}

func TestLatitudeRejectsNaN(t *testing.T) {
	v := newBindingValidator(t)
	c := models.SearchCriteria{
		BloodType: models.BloodTypeOPos,
		Origin:    utils.Coordinate{Lat: math.NaN()},
		RadiusKM:  1,
	}
	assert.Error(t, v.Struct(c))
}

func TestSanitizeInput(t *testing.T) {
	assert.Equal(t, "Ward 4", SanitizeInput("  <b>Ward 4</b> "))
	assert.Equal(t, "", SanitizeInput("<script></script>"))
}
