package auth

const (
	// RoleEmployee punches are subject to geofence admission control.
	RoleEmployee = "employee"
	// RoleAdmin may punch anywhere (recorded and audited) and manages
	// sites, schedules, employees and the time-bank ledger.
	RoleAdmin = "admin"
)

// UserContext is the authenticated identity attached to a request.
type UserContext struct {
	UserID   string
	TenantID string
	Role     string
	Name     string
}

func (u UserContext) IsAdmin() bool {
	return u.Role == RoleAdmin
}
