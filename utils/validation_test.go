package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRequest struct {
	Input     string   `json:"input" validate:"required,notblank"`
	StyleID   string   `json:"styleId" validate:"required,max=8"`
	NumImages int      `json:"numImages,omitempty" validate:"gte=0"`
	Paths     []string `json:"paths,omitempty" validate:"omitempty,min=2"`
	Internal  string   `json:"-"`
}

func TestValidateStruct(t *testing.T) {
	t.Run("valid struct", func(t *testing.T) {
		s := testRequest{Input: "golf ball", StyleID: "bold", NumImages: 4}

		assert.NoError(t, ValidateStruct(&s))
	})

	t.Run("missing required field uses json name", func(t *testing.T) {
		s := testRequest{StyleID: "bold"}

		err := ValidateStruct(&s)
		require.Error(t, err)
		assert.True(t, IsValidationError(err))

		fields := GetValidationFields(err)
		assert.Equal(t, "input is required", fields["input"])
	})

	t.Run("too long", func(t *testing.T) {
		s := testRequest{Input: "x", StyleID: "much_too_long"}

		fields := GetValidationFields(ValidateStruct(&s))
		assert.Equal(t, "styleId must be at most 8", fields["styleId"])
	})

	t.Run("negative count", func(t *testing.T) {
		s := testRequest{Input: "x", StyleID: "bold", NumImages: -1}

		fields := GetValidationFields(ValidateStruct(&s))
		assert.Equal(t, "numImages must be greater than or equal to 0", fields["numImages"])
	})

	t.Run("large count is accepted", func(t *testing.T) {
		s := testRequest{Input: "x", StyleID: "bold", NumImages: 40}

		assert.NoError(t, ValidateStruct(&s))
	})

	t.Run("whitespace-only input", func(t *testing.T) {
		s := testRequest{Input: " \t\n ", StyleID: "bold"}

		err := ValidateStruct(&s)
		require.Error(t, err)
		assert.Equal(t, "input cannot be empty", GetValidationFields(err)["input"])
	})

	t.Run("too few items", func(t *testing.T) {
		s := testRequest{Input: "x", StyleID: "bold", Paths: []string{"/a.png"}}

		fields := GetValidationFields(ValidateStruct(&s))
		assert.Equal(t, "paths must contain at least 2", fields["paths"])
	})
}

func TestValidationError_Summary(t *testing.T) {
	err := &ValidationError{
		Message: "Validation failed",
		Fields: map[string]string{
			"styleId": "styleId is required",
			"input":   "input is required",
		},
	}

	assert.Equal(t, "Validation failed", err.Error())
	assert.Equal(t, "Validation failed: input is required; styleId is required", err.Summary())

	empty := &ValidationError{Message: "Validation failed"}
	assert.Equal(t, "Validation failed", empty.Summary())
}

func TestIsValidationError(t *testing.T) {
	assert.True(t, IsValidationError(&ValidationError{Message: "x"}))
	assert.False(t, IsValidationError(errors.New("x")))
	assert.Nil(t, GetValidationFields(errors.New("x")))
}

func TestValidateQuery(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		wantErr bool
	}{
		{name: "empty", query: "", wantErr: false},
		{name: "single param", query: "styleId=vintage_lettering", wantErr: false},
		{name: "escaped value", query: "styleId=a%20b&limit=5", wantErr: false},
		{name: "bad escape", query: "styleId=%zz", wantErr: true},
		{name: "semicolon separator", query: "a=1;b=2", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateQuery(tt.query)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
