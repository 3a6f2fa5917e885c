package workflow

import "fmt"

// CatalogBuilder assembles a Catalog. Stages are ranked in the order they are
// added. Build panics on a malformed definition since catalogs are fixed at
// startup and a bad one is a programming error.
type CatalogBuilder struct {
	name      string
	stages    []Stage
	machining StageKey
	realData  []StageKey
}

// NewCatalogBuilder creates a new catalog builder
func NewCatalogBuilder(name string) *CatalogBuilder {
	return &CatalogBuilder{name: name}
}

// Stage appends a stage with the next order rank
func (b *CatalogBuilder) Stage(key StageKey, displayName string) *CatalogBuilder {
	b.stages = append(b.stages, Stage{
		Key:         key,
		Order:       len(b.stages) + 1,
		DisplayName: displayName,
	})
	return b
}

// Machining marks key as the stage skipped for parts without machining
func (b *CatalogBuilder) Machining(key StageKey) *CatalogBuilder {
	b.machining = key
	return b
}

// WithRealData marks stages that collect a real data payload when departed
func (b *CatalogBuilder) WithRealData(keys ...StageKey) *CatalogBuilder {
	b.realData = append(b.realData, keys...)
	return b
}

// Build creates the immutable catalog
func (b *CatalogBuilder) Build() *Catalog {
	if len(b.stages) < 2 {
		panic(fmt.Sprintf("catalog %s: at least two stages required", b.name))
	}

	stages := make([]Stage, len(b.stages))
	copy(stages, b.stages)

	index := make(map[StageKey]int, len(stages))
	for i, s := range stages {
		if s.Key == "" {
			panic(fmt.Sprintf("catalog %s: empty stage key at position %d", b.name, i+1))
		}
		if _, dup := index[s.Key]; dup {
			panic(fmt.Sprintf("catalog %s: duplicate stage key %s", b.name, s.Key))
		}
		index[s.Key] = i
	}

	if b.machining != "" {
		i, ok := index[b.machining]
		if !ok {
			panic(fmt.Sprintf("catalog %s: machining stage %s not in catalog", b.name, b.machining))
		}
		if i == 0 || i == len(stages)-1 {
			panic(fmt.Sprintf("catalog %s: machining stage %s cannot be first or last", b.name, b.machining))
		}
	}

	realData := make(map[StageKey]bool, len(b.realData))
	for _, key := range b.realData {
		if _, ok := index[key]; !ok {
			panic(fmt.Sprintf("catalog %s: real data stage %s not in catalog", b.name, key))
		}
		realData[key] = true
	}

	return &Catalog{
		name:      b.name,
		stages:    stages,
		index:     index,
		machining: b.machining,
		realData:  realData,
	}
}
