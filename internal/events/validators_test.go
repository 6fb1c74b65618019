package events

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidators(t *testing.T) {
	v := validator.New()
	require.NoError(t, RegisterOn(v))

	type sample struct {
		Type     string `validate:"omitempty,eventtype"`
		Currency string `validate:"omitempty,currency"`
	}

	assert.NoError(t, v.Struct(sample{Type: "concert", Currency: "INR"}))
	assert.NoError(t, v.Struct(sample{}))
	assert.Error(t, v.Struct(sample{Type: "rave"}))
	assert.Error(t, v.Struct(sample{Currency: "RUPEE"}))
	assert.Error(t, v.Struct(sample{Currency: "12A"}))
}
