// Package catalog holds the static destination catalog: flight and hotel
// prices plus a short curated activity list per destination.
package catalog

// Flight is the mock flight offer for a destination.
type Flight struct {
	Provider      string  `json:"provider"`
	Price         float64 `json:"price"`
	DurationHours int     `json:"duration_hours"`
}

// Hotel is the mock hotel offer for a destination.
type Hotel struct {
	Name          string  `json:"name"`
	PricePerNight float64 `json:"price_per_night"`
}

// Activity is a curated catalog activity.
type Activity struct {
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	Price           float64 `json:"price"`
	BookingRequired bool    `json:"booking_required"`
}

// Destination is everything the catalog knows about one place.
type Destination struct {
	Name       string     `json:"name"`
	Flight     Flight     `json:"flight"`
	Hotel      Hotel      `json:"hotel"`
	Activities []Activity `json:"activities"`
}

// Catalog is an immutable, ordered set of destinations. Safe for
// concurrent use.
type Catalog struct {
	order []string
	byKey map[string]Destination
}

// New builds a catalog from destinations in the given order. The first
// entry is the default destination.
func New(destinations ...Destination) *Catalog {
	c := &Catalog{byKey: make(map[string]Destination, len(destinations))}
	for _, d := range destinations {
		if _, dup := c.byKey[d.Name]; !dup {
			c.order = append(c.order, d.Name)
		}
		c.byKey[d.Name] = d
	}
	return c
}

// Default returns the demo catalog.
func Default() *Catalog {
	return New(
		Destination{
			Name:   "Lisbon",
			Flight: Flight{Provider: "mock-air", Price: 450.0, DurationHours: 4},
			Hotel:  Hotel{Name: "Lisbon Central", PricePerNight: 160.0},
			Activities: []Activity{
				{Title: "Alfama walking tour", Description: "Explore historic Lisbon on foot.", Price: 60.0, BookingRequired: true},
				{Title: "LX Factory evening", Description: "Food and art markets by the river.", Price: 40.0, BookingRequired: false},
			},
		},
		Destination{
			Name:   "Bali",
			Flight: Flight{Provider: "mock-air", Price: 900.0, DurationHours: 16},
			Hotel:  Hotel{Name: "Ubud Retreat", PricePerNight: 120.0},
			Activities: []Activity{
				{Title: "Rice terrace sunrise", Description: "Guided sunrise hike to Tegallalang.", Price: 80.0, BookingRequired: true},
				{Title: "Cooking class", Description: "Learn Balinese cuisine with locals.", Price: 55.0, BookingRequired: true},
			},
		},
	)
}

// Has reports whether the destination is in the catalog.
func (c *Catalog) Has(name string) bool {
	_, ok := c.byKey[name]
	return ok
}

// DefaultDestination returns the first destination in catalog order, or
// "" for an empty catalog.
func (c *Catalog) DefaultDestination() string {
	if len(c.order) == 0 {
		return ""
	}
	return c.order[0]
}

// Lookup returns the destination, falling back to the default one when
// name is unknown.
func (c *Catalog) Lookup(name string) Destination {
	if d, ok := c.byKey[name]; ok {
		return d
	}
	return c.byKey[c.DefaultDestination()]
}

// Names returns destination names in catalog order.
func (c *Catalog) Names() []string {
	return append([]string(nil), c.order...)
}

// Snapshot returns all destinations in catalog order. Used to describe the
// catalog to the external planner.
func (c *Catalog) Snapshot() []Destination {
	out := make([]Destination, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.byKey[name])
	}
	return out
}
