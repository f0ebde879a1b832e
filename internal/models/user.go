package models

// User is a registered chat participant. Nullable columns are pointers.
type User struct {
	ID        int64    `json:"id"`
	FirstName string   `json:"first_name"`
	LastName  *string  `json:"last_name,omitempty"`
	Username  *string  `json:"username,omitempty"`
	Weight    *float64 `json:"weight,omitempty"` // kilograms
}

// UserWeight pairs a user id with a non-null current weight.
type UserWeight struct {
	UserID int64
	Weight float64
}

// ProfileView is a User projected into display strings, with placeholders
// substituted for null fields.
type ProfileView struct {
	FirstName string
	LastName  string
	Username  string
	Weight    string
}

// StringPtr returns nil for an empty string, otherwise a pointer to s.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
