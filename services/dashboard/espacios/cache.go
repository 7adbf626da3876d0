package espacios

// Cache is the transient copy of one building's espacios held for a view.
// Writes are reflected only after the backend confirms them.
type Cache struct {
	edificioID int
	items      []Espacio
}

// NewCache returns an empty cache for a building.
func NewCache(edificioID int) *Cache {
	return &Cache{edificioID: edificioID, items: []Espacio{}}
}

// EdificioID returns the building this cache mirrors.
func (c *Cache) EdificioID() int { return c.edificioID }

// Replace swaps the contents wholesale after a fetch.
func (c *Cache) Replace(items []Espacio) {
	c.items = append(make([]Espacio, 0, len(items)), items...)
}

// List returns a copy of the cached espacios.
func (c *Cache) List() []Espacio {
	return append(make([]Espacio, 0, len(c.items)), c.items...)
}

// Get returns the espacio with id.
func (c *Cache) Get(id int) (Espacio, bool) {
	if i := c.index(id); i >= 0 {
		return c.items[i], true
	}
	return Espacio{}, false
}

// Upsert reflects a confirmed create or update, keeping list position for
// existing rows.
func (c *Cache) Upsert(e Espacio) {
	if i := c.index(e.ID); i >= 0 {
		c.items[i] = e
		return
	}
	c.items = append(c.items, e)
}

// Remove reflects a confirmed delete. It reports whether the id was cached.
func (c *Cache) Remove(id int) bool {
	i := c.index(id)
	if i < 0 {
		return false
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	return true
}

func (c *Cache) index(id int) int {
	for i, e := range c.items {
		if e.ID == id {
			return i
		}
	}
	return -1
}
