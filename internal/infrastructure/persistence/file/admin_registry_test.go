package file

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edscope/edscope/internal/domain/shared"
)

const sampleRegistry = `admins:
  - id: amit
    name: Amit
    grades: [8]
    classes: [8A, 8B]
    region: East
  - id: riya
    name: Riya
    grades: [7]
    classes: [7a]
    region: west
`

func TestLoadAdminRegistry(t *testing.T) {
	path := writeTemp(t, "admins.yaml", sampleRegistry)

	registry, err := LoadAdminRegistry(path, discardLogger())
	require.NoError(t, err)

	amit, ok := registry.Get("amit")
	require.True(t, ok)
	assert.Equal(t, []shared.Grade{8}, amit.Grades)
	assert.Equal(t, []shared.ClassCode{"8A", "8B"}, amit.Classes)
	assert.Equal(t, shared.RegionEast, amit.Region)

	// Lower-cased YAML values normalize the same as canonical ones.
	riya, ok := registry.Get("riya")
	require.True(t, ok)
	assert.Equal(t, []shared.ClassCode{"7A"}, riya.Classes)
	assert.Equal(t, shared.RegionWest, riya.Region)
}

func TestLoadAdminRegistry_InvalidProfileAborts(t *testing.T) {
	path := writeTemp(t, "admins.yaml", `admins:
  - id: ghost
    grades: [8]
    classes: [8A]
    region: Atlantis
`)

	_, err := LoadAdminRegistry(path, discardLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
}

func TestLoadAdminRegistry_EmptyFile(t *testing.T) {
	path := writeTemp(t, "admins.yaml", "admins: []\n")

	_, err := LoadAdminRegistry(path, discardLogger())
	assert.ErrorIs(t, err, shared.ErrEmptyValue)
}

func TestLoadAdminRegistry_MissingFile(t *testing.T) {
	_, err := LoadAdminRegistry("/nonexistent/admins.yaml", discardLogger())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestBuiltinRegistry(t *testing.T) {
	registry, err := BuiltinRegistry()
	require.NoError(t, err)

	for _, id := range []string{"amit", "riya", "kabir"} {
		_, ok := registry.Get(id)
		assert.True(t, ok, "builtin registry missing %s", id)
	}
	assert.Len(t, registry.All(), 3)
}
