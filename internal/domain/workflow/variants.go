package workflow

import "fmt"

// Catalog variant names accepted by configuration
const (
	CatalogRQ24Rev06 = "rq24-rev06"
	CatalogLegacy8   = "legacy-8"
)

// NewRQ24Rev06Catalog builds the ten stage sequence of form RQ-24 revision 06
func NewRQ24Rev06Catalog() *Catalog {
	return NewCatalogBuilder(CatalogRQ24Rev06).
		Stage(StageCreation, "Criação da Ficha").
		Stage(StagePatternMaking, "Modelação").
		Stage(StageMolding, "Moldagem").
		Stage(StageMelting, "Fusão").
		Stage(StageFinishing, "Acabamento").
		Stage(StageCriticalReview, "Análise Crítica").
		Stage(StageInspection, "Inspeção").
		Stage(StageDimensional, "Dimensional").
		Stage(StageMachining, "Usinagem").
		Stage(StageApproved, "Aprovado").
		Machining(StageMachining).
		WithRealData(StagePatternMaking, StageMolding, StageMelting, StageFinishing,
			StageCriticalReview, StageInspection, StageDimensional, StageMachining).
		Build()
}

// NewLegacy8Catalog builds the earlier eight stage sequence
func NewLegacy8Catalog() *Catalog {
	return NewCatalogBuilder(CatalogLegacy8).
		Stage(StageCreation, "Criação da Ficha").
		Stage(StagePatternMaking, "Modelação").
		Stage(StageMolding, "Moldagem").
		Stage(StageMelting, "Fusão").
		Stage(StageDeburring, "Rebarbação").
		Stage(StageInspection, "Inspeção").
		Stage(StageMachining, "Usinagem").
		Stage(StageApproved, "Aprovado").
		Machining(StageMachining).
		WithRealData(StagePatternMaking, StageMolding, StageMelting, StageDeburring,
			StageInspection, StageMachining).
		Build()
}

// CatalogByName returns the catalog variant registered under name
func CatalogByName(name string) (*Catalog, error) {
	switch name {
	case CatalogRQ24Rev06:
		return NewRQ24Rev06Catalog(), nil
	case CatalogLegacy8:
		return NewLegacy8Catalog(), nil
	default:
		return nil, fmt.Errorf("unknown stage catalog: %q", name)
	}
}
