package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsAdmin(t *testing.T) {
	pariser := Pariser()
	tabu := Tabu()

	// The same apartment number means nothing across residences.
	assert.True(t, pariser.IsAdmin("bar", "515"))
	assert.False(t, tabu.IsAdmin("tabuBar", "515"))

	assert.False(t, pariser.IsAdmin("bar", "101"))
	assert.False(t, pariser.IsAdmin("unknownPage", "515"))
	assert.False(t, pariser.IsAdmin("bar", ""))

	assert.True(t, tabu.IsAdmin("tabuBar", "42345"))
}

func TestBuildingFor(t *testing.T) {
	tabu := Tabu()

	first, ok := tabu.BuildingFor("tw1")
	require.True(t, ok)
	assert.Equal(t, "tabu-58", first)

	second, ok := tabu.BuildingFor("tw4")
	require.True(t, ok)
	assert.Equal(t, "tabu-62", second)

	_, ok = tabu.BuildingFor("pw1")
	assert.False(t, ok, "machine ids are namespaced per residence")
}

func TestValidRoom(t *testing.T) {
	pariser := Pariser()
	for _, room := range []string{"100", "203", "515", "740"} {
		assert.True(t, pariser.ValidRoom(room), "room %s", room)
	}
	for _, room := range []string{"", "999", "841", "20", "1234"} {
		assert.False(t, pariser.ValidRoom(room), "room %s", room)
	}

	tabu := Tabu()
	assert.True(t, tabu.ValidRoom("40211"))
	assert.False(t, tabu.ValidRoom("40299"))
	assert.False(t, tabu.ValidRoom("515"))
}

func TestRegistryOrder(t *testing.T) {
	reg := Default()

	list := reg.List()
	require.Len(t, list, 2)
	assert.Equal(t, "tabu", list[0].ID)
	assert.Equal(t, "pariser", list[1].ID)

	_, ok := reg.Get("pariser")
	assert.True(t, ok)
	_, ok = reg.Get("elsewhere")
	assert.False(t, ok)
}
