package staff

import "time"

// Roles mirror the register's role picker.
const (
	RoleAdmin   = "Admin"
	RoleManager = "Manager"
	RoleCashier = "Cashier"
	RoleKitchen = "Kitchen"
)

// Permission names granted to staff and checked by the auth middleware.
const (
	PermViewDashboard   = "VIEW_DASHBOARD"
	PermViewReports     = "VIEW_REPORTS"
	PermManageInventory = "MANAGE_INVENTORY"
	PermManageMenu      = "MANAGE_MENU"
	PermManageExpenses  = "MANAGE_EXPENSES"
	PermManageSettings  = "MANAGE_SETTINGS"
	PermProcessRefund   = "PROCESS_REFUND"
	PermAdjustStock     = "ADJUST_STOCK"
	PermAccessPOS       = "ACCESS_POS"
	PermAccessKitchen   = "ACCESS_KITCHEN"
)

// SalaryType selects how a staff member's salary amount is interpreted.
type SalaryType string

const (
	SalaryMonthly SalaryType = "Monthly"
	SalaryDaily   SalaryType = "Daily"
)

// AttendanceStatus is the day's attendance outcome for one staff member.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "Present"
	AttendanceAbsent  AttendanceStatus = "Absent"
	AttendanceLate    AttendanceStatus = "Late"
)

// Member is a staff record. Members are never deleted; deactivation keeps
// historical orders and attendance attributable.
type Member struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Role         string     `json:"role"`
	Phone        string     `json:"phone,omitempty"`
	Permissions  []string   `json:"permissions"`
	SalaryAmount float64    `json:"salaryAmount"`
	SalaryType   SalaryType `json:"salaryType"`
	Active       bool       `json:"active"`
	JoinDate     time.Time  `json:"joinDate"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// AttendanceRecord is one staff member's attendance for one calendar day.
type AttendanceRecord struct {
	ID      string           `json:"id"`
	StaffID string           `json:"staffId"`
	Date    string           `json:"date"`
	Status  AttendanceStatus `json:"status"`
	CheckIn string           `json:"checkIn,omitempty"`
}

// ValidRole reports whether the role is one of the known roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleManager, RoleCashier, RoleKitchen:
		return true
	}
	return false
}

// ValidAttendanceStatus reports whether the status is known.
func ValidAttendanceStatus(s AttendanceStatus) bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceLate:
		return true
	}
	return false
}
