package workflow

// StageKey identifies one station of the manufacturing sequence
type StageKey string

const (
	StageCreation       StageKey = "criacao"
	StagePatternMaking  StageKey = "modelacao"
	StageMolding        StageKey = "moldagem"
	StageMelting        StageKey = "fusao"
	StageFinishing      StageKey = "acabamento"
	StageDeburring      StageKey = "rebarbacao"
	StageCriticalReview StageKey = "analise_critica"
	StageInspection     StageKey = "inspecao"
	StageDimensional    StageKey = "dimensional"
	StageMachining      StageKey = "usinagem"
	StageApproved       StageKey = "aprovado"
)

// String returns the string representation of the stage key
func (k StageKey) String() string {
	return string(k)
}

// Stage is an immutable catalog entry
type Stage struct {
	Key         StageKey `json:"key"`
	Order       int      `json:"order"`
	DisplayName string   `json:"display_name"`
}
