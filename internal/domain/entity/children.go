package entity

import "time"

// CoreBox is a core box used to make the part. Replaced wholesale on edit.
type CoreBox struct {
	ID             int64    `json:"id"`
	FichaID        int64    `json:"ficha_id"`
	Identification string   `json:"identification"`
	Material       string   `json:"material,omitempty"`
	BoxWeight      *float64 `json:"box_weight,omitempty"`
	CoresPerPiece  *int     `json:"cores_per_piece,omitempty"`
	CoreWeight     *float64 `json:"core_weight,omitempty"`
	Process        string   `json:"process,omitempty"`
	SandQuality    string   `json:"sand_quality,omitempty"`
	CoresPerHour   *int     `json:"cores_per_hour,omitempty"`
	Painted        bool     `json:"painted"`
	PaintType      string   `json:"paint_type,omitempty"`
	Order          int      `json:"order"`
}

// TreeMold is one mold of the casting tree. Replaced wholesale on edit.
type TreeMold struct {
	ID              int64      `json:"id"`
	FichaID         int64      `json:"ficha_id"`
	MoldNumber      string     `json:"mold_number"`
	QualityApproved *bool      `json:"quality_approved,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	ValidatedBy     *int64     `json:"validated_by,omitempty"`
	ValidatedAt     *time.Time `json:"validated_at,omitempty"`
	Order           int        `json:"order"`
}

// KalpurSleeve is an exothermic sleeve line. Replaced wholesale on edit.
type KalpurSleeve struct {
	ID          int64    `json:"id"`
	FichaID     int64    `json:"ficha_id"`
	Quantity    int      `json:"quantity"`
	Description string   `json:"description,omitempty"`
	WeightKg    *float64 `json:"weight_kg,omitempty"`
	Order       int      `json:"order"`
}
