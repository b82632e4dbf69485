package models

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// DeviceAssignment is the time-bounded placement of a device at a location.
// AssignDate is inclusive, EndDate exclusive; a nil EndDate means the
// assignment is still active. For a given device, intervals never overlap,
// so at most one assignment covers any instant.
type DeviceAssignment struct {
	ID                int        `gorm:"primary_key" json:"id"`
	DeviceId          int        `gorm:"index;not null;index:idx_da_device_dates,priority:1" json:"device_id" binding:"required"`
	LocationId        int        `gorm:"index;not null" json:"location_id" binding:"required"`
	AssignDate        time.Time  `gorm:"not null;index:idx_da_device_dates,priority:2" json:"assign_date" binding:"required"`
	EndDate           *time.Time `json:"end_date"`
	AssignById        int        `json:"assign_by_id"`
	EndById           *int       `json:"end_by_id"`
	WorkorderAssignId *string    `gorm:"size:50" json:"workorder_assign_id"`
	WorkorderRemoveId *string    `gorm:"size:50" json:"workorder_remove_id"`
	Notes             string     `gorm:"type:text" json:"notes"`
	CreatedAt         time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (DeviceAssignment) TableName() string { return "fact_device_assignment" }

// Covers reports whether ts falls inside [AssignDate, EndDate).
// A transaction stamped exactly at EndDate belongs to the next assignment.
func (a *DeviceAssignment) Covers(ts time.Time) bool {
	if ts.Before(a.AssignDate) {
		return false
	}
	if a.EndDate != nil && !ts.Before(*a.EndDate) {
		return false
	}
	return true
}

var ErrAssignmentOverlap = errors.New("device assignment overlaps an existing assignment")

// CreateDeviceAssignment inserts an assignment after checking the
// no-overlap invariant against existing assignments of the same device.
func CreateDeviceAssignment(ctx context.Context, tx *gorm.DB, assignment *DeviceAssignment) error {
	var existing []DeviceAssignment
	if err := tx.WithContext(ctx).
		Where("device_id = ?", assignment.DeviceId).
		Find(&existing).Error; err != nil {
		return err
	}
	for i := range existing {
		if intervalsOverlap(assignment.AssignDate, assignment.EndDate, existing[i].AssignDate, existing[i].EndDate) {
			return ErrAssignmentOverlap
		}
	}
	return tx.WithContext(ctx).Create(assignment).Error
}

func intervalsOverlap(aStart time.Time, aEnd *time.Time, bStart time.Time, bEnd *time.Time) bool {
	// Half-open intervals: [start, end). A nil end is open-ended.
	if aEnd != nil && !bStart.Before(*aEnd) {
		return false
	}
	if bEnd != nil && !aStart.Before(*bEnd) {
		return false
	}
	return true
}
