package models

import (
	"encoding/json"
	"time"
)

// DefaultAvatar is the avatar reference given to users who have not set one.
const DefaultAvatar = "/placeholder.svg"

// UserStatus is the registration state of a user. The only transition is
// placeholder -> registered.
type UserStatus string

const (
	// StatusPlaceholder marks a user created by a login with an unknown
	// username. It holds a random credential nobody knows.
	StatusPlaceholder UserStatus = "placeholder"
	// StatusRegistered marks a user who completed registration or edited
	// their profile.
	StatusRegistered UserStatus = "registered"
)

func (s UserStatus) IsPlaceholder() bool { return s == StatusPlaceholder }

func (s UserStatus) Valid() bool {
	return s == StatusPlaceholder || s == StatusRegistered
}

// User represents a row in the PostgreSQL users table.
type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        *string    `json:"email"`
	PasswordHash string     `json:"-"` // never serialize
	FullName     string     `json:"fullName"`
	Avatar       string     `json:"avatar"`
	Location     string     `json:"location"`
	Bio          string     `json:"bio"`
	JoinDate     *time.Time `json:"joinDate"`
	Status       UserStatus `json:"-"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// MarshalJSON renders the public profile. The status is exposed as the
// isPlaceholder flag the client understands.
func (u User) MarshalJSON() ([]byte, error) {
	type user User
	return json.Marshal(struct {
		user
		IsPlaceholder bool `json:"isPlaceholder"`
	}{user(u), u.Status.IsPlaceholder()})
}

func (u *User) UnmarshalJSON(data []byte) error {
	type user User
	var aux struct {
		user
		IsPlaceholder bool `json:"isPlaceholder"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*u = User(aux.user)
	u.Status = StatusRegistered
	if aux.IsPlaceholder {
		u.Status = StatusPlaceholder
	}
	return nil
}

// RegisterRequest is the JSON body for POST /api/auth/register.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
}

// LoginRequest is the JSON body for POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserPatch is the JSON body for PUT /api/auth/user/{id}. Only set fields
// are written.
type UserPatch struct {
	FullName Optional[string]  `json:"fullName,omitzero"`
	Username Optional[string]  `json:"username,omitzero"`
	Email    Optional[*string] `json:"email,omitzero"`
	Bio      Optional[string]  `json:"bio,omitzero"`
	Location Optional[string]  `json:"location,omitzero"`
	Avatar   Optional[string]  `json:"avatar,omitzero"`
}
