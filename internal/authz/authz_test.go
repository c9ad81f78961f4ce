package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"itms-booking-backend/internal/model"
)

func TestParseRole(t *testing.T) {
	for _, r := range []Role{RoleSuperAdmin, RoleAdmin, RoleManager, RoleTechnician, RoleUser} {
		got, ok := ParseRole(string(r))
		assert.True(t, ok)
		assert.Equal(t, r, got)
	}

	_, ok := ParseRole("root")
	assert.False(t, ok)
	_, ok = ParseRole("")
	assert.False(t, ok)
}

func TestRoleCan(t *testing.T) {
	tests := []struct {
		role Role
		cap  Capability
		want bool
	}{
		{RoleUser, CapCreateBooking, true},
		{RoleUser, CapReadBooking, true},
		{RoleUser, CapApproveBooking, false},
		{RoleUser, CapManageResources, false},
		{RoleUser, CapViewStats, false},
		{RoleTechnician, CapApproveBooking, true},
		{RoleTechnician, CapManageResources, false},
		{RoleTechnician, CapViewStats, false},
		{RoleManager, CapApproveBooking, true},
		{RoleManager, CapViewStats, true},
		{RoleManager, CapManageResources, false},
		{RoleManager, CapDeleteBooking, false},
		{RoleAdmin, CapManageResources, true},
		{RoleAdmin, CapDeleteBooking, true},
		{RoleSuperAdmin, CapManageResources, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.role.Can(tt.cap), "%s / %s", tt.role, tt.cap)
	}
}

func TestCanApprove(t *testing.T) {
	t.Run("technicians approve only equipment and tools", func(t *testing.T) {
		assert.True(t, RoleTechnician.CanApprove(model.CategoryITEquipment))
		assert.True(t, RoleTechnician.CanApprove(model.CategoryTool))
		assert.False(t, RoleTechnician.CanApprove(model.CategoryMeetingRoom))
		assert.False(t, RoleTechnician.CanApprove(model.CategoryTransportation))
		assert.False(t, RoleTechnician.CanApprove(model.CategoryFacility))
	})

	t.Run("managers and admins approve everything", func(t *testing.T) {
		for _, role := range []Role{RoleManager, RoleAdmin, RoleSuperAdmin} {
			for _, cat := range model.ResourceCategories {
				assert.True(t, role.CanApprove(cat), "%s / %s", role, cat)
			}
		}
	})

	t.Run("users approve nothing", func(t *testing.T) {
		for _, cat := range model.ResourceCategories {
			assert.False(t, RoleUser.CanApprove(cat))
		}
	})
}
