// Package authz resolves what a caller's role allows. Roles arrive in the
// identity token; the booking engine itself never consults this package, the
// API layer does.
package authz

import "itms-booking-backend/internal/model"

// Role is the closed set of roles the identity provider may assign.
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleManager    Role = "manager"
	RoleTechnician Role = "technician"
	RoleUser       Role = "user"
)

// ParseRole maps a token claim onto a known role.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleSuperAdmin, RoleAdmin, RoleManager, RoleTechnician, RoleUser:
		return Role(s), true
	}
	return "", false
}

// Capability is a single permitted action.
type Capability string

const (
	CapCreateBooking   Capability = "create_booking"
	CapReadBooking     Capability = "read_booking"
	CapUpdateBooking   Capability = "update_booking"
	CapDeleteBooking   Capability = "delete_booking"
	CapApproveBooking  Capability = "approve_booking"
	CapManageResources Capability = "manage_resources"
	CapViewStats       Capability = "view_stats"
)

// capabilities is the fixed lookup table from role to capability set.
var capabilities = map[Role]map[Capability]bool{
	RoleSuperAdmin: {
		CapCreateBooking: true, CapReadBooking: true, CapUpdateBooking: true,
		CapDeleteBooking: true, CapApproveBooking: true, CapManageResources: true,
		CapViewStats: true,
	},
	RoleAdmin: {
		CapCreateBooking: true, CapReadBooking: true, CapUpdateBooking: true,
		CapDeleteBooking: true, CapApproveBooking: true, CapManageResources: true,
		CapViewStats: true,
	},
	RoleManager: {
		CapCreateBooking: true, CapReadBooking: true, CapUpdateBooking: true,
		CapApproveBooking: true, CapViewStats: true,
	},
	RoleTechnician: {
		CapCreateBooking: true, CapReadBooking: true, CapUpdateBooking: true,
		CapApproveBooking: true,
	},
	RoleUser: {
		CapCreateBooking: true, CapReadBooking: true,
	},
}

// Can reports whether the role holds the capability.
func (r Role) Can(c Capability) bool {
	return capabilities[r][c]
}

// CanApprove reports whether the role may approve bookings for resources of
// the given category. Technicians approve only the equipment they service;
// managers and above approve everything.
func (r Role) CanApprove(category model.ResourceCategory) bool {
	if !r.Can(CapApproveBooking) {
		return false
	}
	if r == RoleTechnician {
		return category == model.CategoryITEquipment || category == model.CategoryTool
	}
	return true
}
