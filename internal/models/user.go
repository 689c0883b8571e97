package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is a permission tag held by a user.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleSeller   Role = "seller"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleSeller, RoleAdmin:
		return true
	}
	return false
}

// Roles is a set of roles persisted as an ordered JSON list.
type Roles []Role

// Has reports whether role is present.
func (rs Roles) Has(role Role) bool {
	for _, r := range rs {
		if r == role {
			return true
		}
	}
	return false
}

// Add returns rs with role appended unless it is already present.
func (rs Roles) Add(role Role) Roles {
	if rs.Has(role) {
		return rs
	}
	return append(rs, role)
}

// Remove returns rs without role. Absent roles leave rs unchanged.
func (rs Roles) Remove(role Role) Roles {
	if !rs.Has(role) {
		return rs
	}
	out := make(Roles, 0, len(rs)-1)
	for _, r := range rs {
		if r != role {
			out = append(out, r)
		}
	}
	return out
}

// User represents a user of the store. Email is the login identifier.
type User struct {
	ID          string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Email       string     `json:"email" gorm:"uniqueIndex;type:varchar(255);not null"`
	Username    string     `json:"username" gorm:"uniqueIndex;type:varchar(150);not null"`
	Password    string     `json:"-" gorm:"type:varchar(255);not null"`
	FirstName   string     `json:"first_name" gorm:"type:varchar(150)"`
	LastName    string     `json:"last_name" gorm:"type:varchar(150)"`
	Roles       Roles      `json:"roles" gorm:"type:jsonb;serializer:json"`
	IsActive    bool       `json:"is_active" gorm:"not null"`
	IsStaff     bool       `json:"is_staff" gorm:"not null"`
	IsSuperuser bool       `json:"is_superuser" gorm:"not null"`
	LastLogin   *time.Time `json:"last_login"`
	DateJoined  time.Time  `json:"date_joined" gorm:"not null"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// BeforeCreate assigns an ID and the join date.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.DateJoined.IsZero() {
		u.DateJoined = time.Now()
	}
	if u.Roles == nil {
		u.Roles = Roles{}
	}
	return nil
}

// HasRole reports whether the user holds role.
func (u *User) HasRole(role Role) bool { return u.Roles.Has(role) }

func (u *User) IsCustomer() bool { return u.HasRole(RoleCustomer) }
func (u *User) IsSeller() bool   { return u.HasRole(RoleSeller) }
func (u *User) IsAdmin() bool    { return u.HasRole(RoleAdmin) }

// AddRole adds role in memory and reports whether the set changed.
func (u *User) AddRole(role Role) bool {
	if u.Roles.Has(role) {
		return false
	}
	u.Roles = u.Roles.Add(role)
	return true
}

// RemoveRole removes role in memory and reports whether the set changed.
func (u *User) RemoveRole(role Role) bool {
	if !u.Roles.Has(role) {
		return false
	}
	u.Roles = u.Roles.Remove(role)
	return true
}

// RevokedToken records a session token id that was logged out before expiry.
type RevokedToken struct {
	JTI       string    `gorm:"primaryKey;type:varchar(36)"`
	UserID    string    `gorm:"type:varchar(36);index"`
	ExpiresAt time.Time `gorm:"index"`
	CreatedAt time.Time
}
