// Copyright 2021 The rtcohort authors.
// All rights reserved.

package cohort

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestResolve(t *testing.T) {
	names := []string{"Austria", "France", "United Kingdom"}
	c, err := Resolve(names, "Germany", zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, "DEU", c.Focal)
	assert.Equal(t, []string{"AUT", "FRA", "GBR"}, c.Codes)
	assert.Equal(t, "France", c.Name("FRA"))
	assert.Equal(t, "Germany", c.Name("DEU"))
}

func TestResolve_DropsUnknownNames(t *testing.T) {
	names := []string{"Austria", "Atlantis", "France"}
	c, err := Resolve(names, "Germany", zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, []string{"AUT", "FRA"}, c.Codes)
}

func TestResolve_FocalNeverInMembers(t *testing.T) {
	names := []string{"Germany", "Austria", "Austria"}
	c, err := Resolve(names, "Germany", zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, "DEU", c.Focal)
	assert.Equal(t, []string{"AUT"}, c.Codes)
	assert.Equal(t, []string{"DEU", "AUT"}, c.All())
}

func TestResolve_UnknownFocal(t *testing.T) {
	_, err := Resolve([]string{"Austria"}, "Atlantis", zap.NewNop())
	assert.Error(t, err)
}

func TestName_FallsBackToCode(t *testing.T) {
	c, err := Resolve(nil, "Germany", zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "XYZ", c.Name("XYZ"))
}
