// Package model defines the core domain entities for the review dashboard.
package model

// UserStateActive is the upstream state of a user who may count as a team member.
const UserStateActive = "active"

// TeamUser represents a user identity on the Git hosting platform.
//
// @Description Team member identity as reported by the Git hosting platform
type TeamUser struct {
	// ID is the numeric user id, unique per platform instance
	ID int `json:"id" example:"123"`
	// Name is the display name
	Name string `json:"name" example:"Jane Doe"`
	// Username is the login handle
	Username string `json:"username" example:"jdoe"`
	// AvatarURL is the profile image URL, if any
	AvatarURL string `json:"avatar_url,omitempty"`
	// State is the account state; only "active" users count as team members
	State string `json:"state" example:"active"`
} // @name TeamUser

// Active reports whether the user account is in the active state.
func (u TeamUser) Active() bool {
	return u.State == UserStateActive
}

// FilterActive returns only the active users from the given slice,
// preserving order.
func FilterActive(users []TeamUser) []TeamUser {
	active := make([]TeamUser, 0, len(users))
	for _, u := range users {
		if u.Active() {
			active = append(active, u)
		}
	}
	return active
}
