package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndicators_Catalog(t *testing.T) {
	inds := Indicators()
	require.Len(t, inds, 8)
	assert.Equal(t, Type1CareProcesses, inds[0].ID)
	assert.Equal(t, Type2Statins, inds[7].ID)
	for _, ind := range inds {
		assert.NotEmpty(t, ind.Name)
		assert.NotEmpty(t, ind.Description)
	}

	// Callers get a copy.
	inds[0].Name = "changed"
	assert.Equal(t, "Type 1 - All 9 care processes", Indicators()[0].Name)
}

func TestAreaType_Valid(t *testing.T) {
	assert.True(t, AreaICBSubLocations.Valid())
	assert.False(t, AreaType("icbs").Valid())
}

func TestColorScheme_Valid(t *testing.T) {
	for _, s := range ColorSchemes() {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, ColorScheme("jet").Valid())
}
