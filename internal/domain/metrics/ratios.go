// Package metrics computes values derived from ficha measurements and dates.
// Every function here is pure.
package metrics

import "math"

// Measurements is one side (estimated or obtained) of a ficha's weight fields.
// Nil means the value was not provided.
type Measurements struct {
	Material      string   `json:"material,omitempty"`
	PieceWeight   *float64 `json:"piece_weight,omitempty"`
	MoldWeight    *float64 `json:"mold_weight,omitempty"`
	TreeWeight    *float64 `json:"tree_weight,omitempty"`
	PiecesPerMold *int     `json:"pieces_per_mold,omitempty"`
	TreeMoldCount *int     `json:"tree_mold_count,omitempty"`
}

// Ratios holds the derived RAM and RM of one measurement side
type Ratios struct {
	RAM *float64 `json:"ram,omitempty"`
	RM  *float64 `json:"rm,omitempty"`
}

// RAM returns mold weight divided by piece weight
func RAM(moldWeight, pieceWeight *float64) *float64 {
	if moldWeight == nil || pieceWeight == nil || *pieceWeight <= 0 {
		return nil
	}
	return finite(*moldWeight / *pieceWeight)
}

// RM returns piece weight divided by tree weight, as a percentage
func RM(pieceWeight, treeWeight *float64) *float64 {
	if pieceWeight == nil || treeWeight == nil || *treeWeight <= 0 {
		return nil
	}
	return finite(*pieceWeight / *treeWeight * 100)
}

// Compute derives both ratios of one side
func Compute(m Measurements) Ratios {
	return Ratios{
		RAM: RAM(m.MoldWeight, m.PieceWeight),
		RM:  RM(m.PieceWeight, m.TreeWeight),
	}
}

// Recompute derives only the ratios whose inputs differ between before and
// after. Ratios whose inputs are untouched are carried over from current.
func Recompute(before, after Measurements, current Ratios) Ratios {
	out := current

	if !sameFloat(before.MoldWeight, after.MoldWeight) || !sameFloat(before.PieceWeight, after.PieceWeight) {
		out.RAM = RAM(after.MoldWeight, after.PieceWeight)
	}
	if !sameFloat(before.PieceWeight, after.PieceWeight) || !sameFloat(before.TreeWeight, after.TreeWeight) {
		out.RM = RM(after.PieceWeight, after.TreeWeight)
	}
	return out
}

func sameFloat(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
