package model

// AccountStatus is the approval state shared by families and children
type AccountStatus string

const (
	StatusPending  AccountStatus = "pending"
	StatusApproved AccountStatus = "approved"
	StatusBlocked  AccountStatus = "blocked"
)

// Family is a parent's account as seen by the room server.
// Families are created and approved by the dashboard; the server only reads them.
type Family struct {
	ID           string        `json:"id"`
	ParentUserID string        `json:"parent_user_id"`
	ParentCode   string        `json:"parent_code"`
	Status       AccountStatus `json:"status"`
}

// IsBlocked reports whether the family has been blocked
func (f *Family) IsBlocked() bool {
	return f.Status == StatusBlocked
}

// Child is a kid profile belonging to a family
type Child struct {
	ID            string        `json:"id"`
	FamilyID      string        `json:"family_id"`
	DisplayName   string        `json:"display_name"`
	Status        AccountStatus `json:"status"`
	TimeBudgetDay int           `json:"time_budget_day"` // seconds per day
	TimeLeftDay   int           `json:"time_left_day"`   // seconds remaining today
}

// IsApproved reports whether the child may play
func (c *Child) IsApproved() bool {
	return c.Status == StatusApproved
}
