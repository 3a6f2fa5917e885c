package workflow

// Catalog is the ordered, immutable stage sequence a ficha walks through.
// The first stage is where fichas are created, the last stage is the approved
// stage. At most one stage is the machining stage, which is skipped for parts
// that need no machining.
type Catalog struct {
	name      string
	stages    []Stage
	index     map[StageKey]int
	machining StageKey
	realData  map[StageKey]bool
}

// Name returns the variant name the catalog was built under
func (c *Catalog) Name() string {
	return c.name
}

// Stages returns a copy of the ordered stage list
func (c *Catalog) Stages() []Stage {
	out := make([]Stage, len(c.stages))
	copy(out, c.stages)
	return out
}

// Lookup returns the stage for key
func (c *Catalog) Lookup(key StageKey) (Stage, bool) {
	i, ok := c.index[key]
	if !ok {
		return Stage{}, false
	}
	return c.stages[i], true
}

// Contains reports whether key is part of the catalog
func (c *Catalog) Contains(key StageKey) bool {
	_, ok := c.index[key]
	return ok
}

// Order returns the rank of key, or 0 when key is unknown
func (c *Catalog) Order(key StageKey) int {
	if s, ok := c.Lookup(key); ok {
		return s.Order
	}
	return 0
}

// DisplayName returns the human readable name of key, falling back to the key itself
func (c *Catalog) DisplayName(key StageKey) string {
	if s, ok := c.Lookup(key); ok {
		return s.DisplayName
	}
	return string(key)
}

// First returns the creation stage
func (c *Catalog) First() Stage {
	return c.stages[0]
}

// Terminal returns the approved stage
func (c *Catalog) Terminal() Stage {
	return c.stages[len(c.stages)-1]
}

// IsTerminal reports whether key is the approved stage
func (c *Catalog) IsTerminal(key StageKey) bool {
	return key == c.Terminal().Key
}

// MachiningStage returns the skippable machining stage key, empty if the catalog has none
func (c *Catalog) MachiningStage() StageKey {
	return c.machining
}

// HasRealData reports whether key carries a per-stage real data payload
func (c *Catalog) HasRealData(key StageKey) bool {
	return c.realData[key]
}

// Next returns the stage immediately after key. When that stage is the
// machining stage and hasMachining is false the stage after machining is
// returned instead. The bool is false when key is unknown or already last.
func (c *Catalog) Next(key StageKey, hasMachining bool) (Stage, bool) {
	i, ok := c.index[key]
	if !ok || i+1 >= len(c.stages) {
		return Stage{}, false
	}

	next := c.stages[i+1]
	if next.Key == c.machining && !hasMachining {
		if i+2 >= len(c.stages) {
			return Stage{}, false
		}
		next = c.stages[i+2]
	}
	return next, true
}

// Previous returns the stage immediately before key
func (c *Catalog) Previous(key StageKey) (Stage, bool) {
	i, ok := c.index[key]
	if !ok || i == 0 {
		return Stage{}, false
	}
	return c.stages[i-1], true
}
