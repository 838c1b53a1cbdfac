package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/diabetes-care-api/internal/domain"
)

type testParams struct {
	IndicatorID domain.IndicatorID `query:"indicator_id" validate:"indicator"`
	AreaType    domain.AreaType    `query:"area_type" validate:"area_type"`
	Scheme      string             `query:"cmap" validate:"color_scheme"`
	Color       string             `query:"point_color" validate:"plot_color"`
	Format      string             `query:"format" validate:"image_format"`
	N           int                `query:"n" validate:"gte=1,lte=100"`
	Order       string             `query:"order" validate:"oneof=top bottom"`
	MinValue    *float64           `query:"min_value" validate:"omitempty,gte=0,lte=100"`
}

func validParams() testParams {
	return testParams{
		IndicatorID: domain.Type1CareProcesses,
		AreaType:    domain.AreaICBs,
		Scheme:      "RdYlGn",
		Color:       "steelblue",
		Format:      "png",
		N:           10,
		Order:       "top",
	}
}

func TestGetValidator_Singleton(t *testing.T) {
	v1 := GetValidator()
	v2 := GetValidator()

	require.NotNil(t, v1)
	assert.Same(t, v1, v2)
}

func TestValidateStruct_Valid(t *testing.T) {
	p := validParams()
	v := 55.0
	p.MinValue = &v

	assert.Nil(t, ValidateStruct(p))
}

func TestValidateStruct_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*testParams)
		field   string
		tag     string
		message string
	}{
		{"unknown indicator", func(p *testParams) { p.IndicatorID = 12345 }, "indicator_id", "indicator", "indicator_id must be a known indicator ID"},
		{"unknown area type", func(p *testParams) { p.AreaType = "Regions" }, "area_type", "area_type", "area_type must be one of: England, ICBs, ICB sub-locations, GPs"},
		{"unknown scheme", func(p *testParams) { p.Scheme = "jet" }, "cmap", "color_scheme", ""},
		{"bad color", func(p *testParams) { p.Color = "not-a-color" }, "point_color", "plot_color", ""},
		{"bad format", func(p *testParams) { p.Format = "jpeg" }, "format", "image_format", "format must be one of: png, base64"},
		{"n too small", func(p *testParams) { p.N = 0 }, "n", "gte", "n must be greater than or equal to 1"},
		{"n too large", func(p *testParams) { p.N = 101 }, "n", "lte", "n must be less than or equal to 100"},
		{"bad order", func(p *testParams) { p.Order = "middle" }, "order", "oneof", "order must be one of: top, bottom"},
		{"min value out of range", func(p *testParams) { v := 150.0; p.MinValue = &v }, "min_value", "lte", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validParams()
			tt.mutate(&p)

			verr := ValidateStruct(p)
			require.NotNil(t, verr)
			require.Len(t, verr.Fields, 1)
			assert.Equal(t, tt.field, verr.Fields[0].Field)
			assert.Equal(t, tt.tag, verr.Fields[0].Tag)
			if tt.message != "" {
				assert.Equal(t, tt.message, verr.Fields[0].Message)
			}
		})
	}
}

func TestValidateStruct_MultipleErrors(t *testing.T) {
	p := validParams()
	p.N = 0
	p.Order = "sideways"

	verr := ValidateStruct(p)
	require.NotNil(t, verr)
	assert.Len(t, verr.Fields, 2)
	assert.Contains(t, verr.Error(), "; ")
}

func TestRequestValidationError_ToAPIError(t *testing.T) {
	verr := NewError("dpi", "number", "abc", "dpi must be a number")

	apiErr := verr.ToAPIError()

	assert.Equal(t, ErrorCode, apiErr.Code)
	assert.Equal(t, "dpi must be a number", apiErr.Detail)
	require.Len(t, apiErr.Errors, 1)
	assert.Equal(t, "dpi", apiErr.Errors[0].Field)
}

func TestRequestValidationError_Empty(t *testing.T) {
	assert.Equal(t, "validation failed", (&RequestValidationError{}).Error())
}
