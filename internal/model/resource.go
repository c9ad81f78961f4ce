package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ResourceCategory classifies what kind of thing a resource is.
type ResourceCategory string

const (
	CategoryTransportation ResourceCategory = "TRANSPORTATION"
	CategoryMeetingRoom    ResourceCategory = "MEETING_ROOM"
	CategoryITEquipment    ResourceCategory = "IT_EQUIPMENT"
	CategoryTool           ResourceCategory = "TOOL"
	CategoryFacility       ResourceCategory = "FACILITY"
)

// ResourceCategories lists every valid category.
var ResourceCategories = []ResourceCategory{
	CategoryTransportation,
	CategoryMeetingRoom,
	CategoryITEquipment,
	CategoryTool,
	CategoryFacility,
}

// Valid reports whether c is a known category.
func (c ResourceCategory) Valid() bool {
	for _, known := range ResourceCategories {
		if c == known {
			return true
		}
	}
	return false
}

// ResourceStatus is the administrative state of a resource.
type ResourceStatus string

const (
	ResourceAvailable   ResourceStatus = "AVAILABLE"
	ResourceMaintenance ResourceStatus = "MAINTENANCE"
	ResourceRetired     ResourceStatus = "RETIRED"
)

// Valid reports whether s is a known resource status.
func (s ResourceStatus) Valid() bool {
	switch s {
	case ResourceAvailable, ResourceMaintenance, ResourceRetired:
		return true
	}
	return false
}

// Resource is a bookable asset: a meeting room, vehicle, piece of IT
// equipment, tool or facility. Resources are created and updated through the
// administrative API; the booking engine only ever reads them.
type Resource struct {
	ID          string           `gorm:"primaryKey;size:36" json:"id"`
	Name        string           `gorm:"size:200;not null" json:"name"`
	Category    ResourceCategory `gorm:"size:32;not null;index" json:"category"`
	Description string           `gorm:"size:1000" json:"description,omitempty"`
	Capacity    int              `gorm:"not null;default:1" json:"capacity"`
	Location    string           `gorm:"size:200" json:"location,omitempty"`
	Status      ResourceStatus   `gorm:"size:32;not null" json:"status"`
	HourlyRate  decimal.Decimal  `gorm:"type:numeric(12,2)" json:"hourlyRate"`
	CreatedAt   time.Time        `gorm:"not null" json:"createdAt"`
	UpdatedAt   time.Time        `gorm:"not null" json:"updatedAt"`

	// Associations
	Bookings []Booking `gorm:"foreignKey:ResourceID" json:"-"`
}

// Bookable reports whether the resource accepts new bookings. A resource
// under maintenance or retired never does.
func (r *Resource) Bookable() bool {
	return r.Status == ResourceAvailable
}
