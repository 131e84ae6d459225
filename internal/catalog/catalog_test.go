package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()

	assert.True(t, c.Has("Lisbon"))
	assert.True(t, c.Has("Bali"))
	assert.False(t, c.Has("Tokyo"))
	assert.Equal(t, "Lisbon", c.DefaultDestination())
	assert.Equal(t, []string{"Lisbon", "Bali"}, c.Names())

	lisbon := c.Lookup("Lisbon")
	assert.Equal(t, 450.0, lisbon.Flight.Price)
	assert.Equal(t, 160.0, lisbon.Hotel.PricePerNight)
	assert.Len(t, lisbon.Activities, 2)
}

func TestLookup_FallsBackToDefault(t *testing.T) {
	c := Default()
	got := c.Lookup("Atlantis")
	assert.Equal(t, "Lisbon", got.Name)
}

func TestNew_KeepsFirstInsertionOrder(t *testing.T) {
	c := New(Destination{Name: "B"}, Destination{Name: "A"}, Destination{Name: "B", Flight: Flight{Price: 1}})
	assert.Equal(t, []string{"B", "A"}, c.Names())
	assert.Equal(t, 1.0, c.Lookup("B").Flight.Price)
	assert.Len(t, c.Snapshot(), 2)
}

func TestEmptyCatalog(t *testing.T) {
	c := New()
	assert.Equal(t, "", c.DefaultDestination())
	assert.Equal(t, Destination{}, c.Lookup("anything"))
}
