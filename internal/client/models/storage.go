package models

// StorageSnapshot is the quota readout returned by the storage endpoint.
type StorageSnapshot struct {
	UsedMB      float64 `json:"used_mb"`
	TotalMB     float64 `json:"total_mb"`
	AvailableMB float64 `json:"available_mb"`
	Percentage  float64 `json:"percentage"`
}

// StorageLevel is the indicator colour class derived from AvailableMB.
type StorageLevel string

const (
	StorageAmple    StorageLevel = "ample"
	StorageCaution  StorageLevel = "caution"
	StorageCritical StorageLevel = "critical"
)
