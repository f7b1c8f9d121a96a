package domain

import "time"

type DamageStatus string

const (
	DamageStatusPending  DamageStatus = "PENDING"
	DamageStatusAccepted DamageStatus = "ACCEPTED"
	DamageStatusDisputed DamageStatus = "DISPUTED"
)

type DamageSeverity string

const (
	DamageSeverityLow    DamageSeverity = "LOW"
	DamageSeverityMedium DamageSeverity = "MEDIUM"
	DamageSeverityHigh   DamageSeverity = "HIGH"
)

func (s DamageSeverity) Valid() bool {
	return s == DamageSeverityLow || s == DamageSeverityMedium || s == DamageSeverityHigh
}

type DamageReport struct {
	ID              string         `json:"id"`
	RentalID        string         `json:"rental_id"`
	ResourceID      string         `json:"resource_id"`
	ReporterID      string         `json:"reporter_id"`
	Status          DamageStatus   `json:"status"`
	Severity        DamageSeverity `json:"severity"`
	Description     string         `json:"description"`
	RepairCostCents *int64         `json:"repair_cost_cents,omitempty"`
	PhotoURLs       []string       `json:"photo_urls,omitempty"`
	CreatedOn       time.Time      `json:"created_on"`
	UpdatedOn       time.Time      `json:"updated_on"`
}
