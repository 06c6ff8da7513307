package http

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dateWindow struct {
	From string `binding:"omitempty,isodate"`
}

func TestRegisterValidators_IsoDate(t *testing.T) {
	require.NotPanics(t, registerValidators)
	require.NotPanics(t, registerValidators)

	assert.NoError(t, binding.Validator.ValidateStruct(&dateWindow{From: "2026-04-20"}))
	assert.NoError(t, binding.Validator.ValidateStruct(&dateWindow{}))
	assert.Error(t, binding.Validator.ValidateStruct(&dateWindow{From: "2026-02-30"}))
	assert.Error(t, binding.Validator.ValidateStruct(&dateWindow{From: "20-04-2026"}))
}
