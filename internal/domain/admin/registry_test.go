package admin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edscope/edscope/internal/domain/shared"
)

func testProfiles(t *testing.T) []*Profile {
	t.Helper()
	amit, err := NewProfile("Amit", "Amit",
		[]shared.Grade{8}, []shared.ClassCode{"8B", "8A", "8A"}, shared.RegionEast)
	require.NoError(t, err)
	riya, err := NewProfile("riya", "Riya",
		[]shared.Grade{7}, []shared.ClassCode{"7A"}, shared.RegionWest)
	require.NoError(t, err)
	kabir, err := NewProfile("kabir", "Kabir",
		[]shared.Grade{9}, []shared.ClassCode{"9A", "9B"}, shared.RegionNorth)
	require.NoError(t, err)
	return []*Profile{amit, riya, kabir}
}

func TestNewProfile_Validation(t *testing.T) {
	_, err := NewProfile("", "Nobody", nil, nil, shared.RegionEast)
	assert.ErrorIs(t, err, shared.ErrEmptyValue)

	_, err = NewProfile("x", "X", []shared.Grade{8}, []shared.ClassCode{"8A"}, "Midlands")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = NewProfile("x", "X", []shared.Grade{0}, []shared.ClassCode{"8A"}, shared.RegionEast)
	assert.ErrorIs(t, err, shared.ErrValueOutOfRange)

	_, err = NewProfile("x", "X", []shared.Grade{8}, []shared.ClassCode{"8a"}, shared.RegionEast)
	assert.ErrorIs(t, err, shared.ErrInvalidFormat)
}

func TestNewProfile_NormalizesAndDedups(t *testing.T) {
	p, err := NewProfile("  AMIT ", "Amit",
		[]shared.Grade{8, 8}, []shared.ClassCode{"8B", "8A", "8A"}, shared.RegionEast)
	require.NoError(t, err)

	assert.Equal(t, "amit", p.ID)
	assert.Equal(t, []shared.Grade{8}, p.Grades)
	assert.Equal(t, []shared.ClassCode{"8A", "8B"}, p.Classes)
}

func TestProfile_Allows(t *testing.T) {
	p, err := NewProfile("amit", "Amit",
		[]shared.Grade{8}, []shared.ClassCode{"8A", "8B"}, shared.RegionEast)
	require.NoError(t, err)

	assert.True(t, p.AllowsGrade(8))
	assert.False(t, p.AllowsGrade(7))
	assert.True(t, p.AllowsClass("8B"))
	assert.False(t, p.AllowsClass("7A"))
	assert.True(t, p.AllowsRegion("east"))
	assert.False(t, p.AllowsRegion(shared.RegionWest))
}

func TestProfile_IsSealed(t *testing.T) {
	open, err := NewProfile("amit", "Amit",
		[]shared.Grade{8}, []shared.ClassCode{"8A"}, shared.RegionEast)
	require.NoError(t, err)
	assert.False(t, open.IsSealed())

	sealed := &Profile{ID: "ghost", Region: shared.RegionNorth}
	assert.True(t, sealed.IsSealed())
}

func TestStaticRegistry(t *testing.T) {
	registry, err := NewStaticRegistry(testProfiles(t))
	require.NoError(t, err)

	p, ok := registry.Get("amit")
	require.True(t, ok)
	assert.Equal(t, "Amit", p.DisplayName)

	all := registry.All()
	require.Len(t, all, 3)
	assert.Equal(t, "amit", all[0].ID)
	assert.Equal(t, "kabir", all[1].ID)
	assert.Equal(t, "riya", all[2].ID)
}

func TestStaticRegistry_DuplicateID(t *testing.T) {
	a, err := NewProfile("amit", "Amit", []shared.Grade{8}, []shared.ClassCode{"8A"}, shared.RegionEast)
	require.NoError(t, err)
	b, err := NewProfile("AMIT", "Amit Again", []shared.Grade{9}, []shared.ClassCode{"9A"}, shared.RegionNorth)
	require.NoError(t, err)

	_, err = NewStaticRegistry([]*Profile{a, b})
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
}

func TestResolver(t *testing.T) {
	registry, err := NewStaticRegistry(testProfiles(t))
	require.NoError(t, err)
	resolver := NewResolver(registry)

	t.Run("known admin", func(t *testing.T) {
		p, err := resolver.Resolve("amit")
		require.NoError(t, err)
		assert.Equal(t, "amit", p.ID)
	})

	t.Run("case and whitespace insensitive", func(t *testing.T) {
		p, err := resolver.Resolve("  RiYa ")
		require.NoError(t, err)
		assert.Equal(t, "riya", p.ID)
	})

	t.Run("unknown admin rejected", func(t *testing.T) {
		_, err := resolver.Resolve("mallory")
		assert.ErrorIs(t, err, shared.ErrUnknownAdmin)
		assert.True(t, shared.IsUnknownAdmin(err))
	})

	t.Run("empty id rejected", func(t *testing.T) {
		_, err := resolver.Resolve("   ")
		assert.ErrorIs(t, err, shared.ErrUnknownAdmin)
	})
}
