package platforms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forecastlab/metasync/internal/domain"
)

func TestRegistryOrderAndLookup(t *testing.T) {
	r, err := NewRegistry(
		NewV1Platform("a", "A", "#000", nil, flatStars),
		NewV2Platform("b", "B", "#000", nil, nil, flatStars),
	)
	require.NoError(t, err)

	all := r.All()
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].Name())
	assert.Equal(t, "b", all[1].Name())

	p, err := r.Get("b")
	require.NoError(t, err)
	assert.Equal(t, VersionV2, p.Version())

	_, err = r.Get("c")
	assert.ErrorIs(t, err, domain.ErrUnknownPlatform)
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	_, err := NewRegistry(
		NewV1Platform("a", "A", "#000", nil, flatStars),
		NewV1Platform("a", "Also A", "#000", nil, flatStars),
	)
	require.Error(t, err)
}
