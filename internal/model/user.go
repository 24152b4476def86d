package model

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultBcryptCost is used when no cost is set on the record.
const DefaultBcryptCost = 10

// Roles form a closed set; anything else is rejected before persistence.
const (
	RoleUser      = "user"
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
)

// ErrInvalidRole is returned when a role outside the known set is supplied.
var ErrInvalidRole = errors.New("invalid role")

// ValidRole reports whether role belongs to the known set.
func ValidRole(role string) bool {
	switch role {
	case RoleUser, RoleAdmin, RoleModerator:
		return true
	}
	return false
}

// User represents an account in the system.
//
// Password is a transient carrier for a plaintext password on its way into
// the hasher; it is never persisted and never serialized. PasswordHash is the
// stored bcrypt hash, excluded from JSON regardless of how the record was
// fetched.
type User struct {
	ID           uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	Name         string    `json:"name" gorm:"size:255;not null"`
	Email        string    `json:"email" gorm:"uniqueIndex;size:255;not null"`
	Password     string    `json:"-" gorm:"-"`
	PasswordHash string    `json:"-" gorm:"size:255;not null"`
	Role         string    `json:"role" gorm:"size:50;not null;default:'user';index"`
	Active       bool      `json:"active" gorm:"not null;default:true;index"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// BcryptCost overrides the hashing work factor; zero means DefaultBcryptCost.
	BcryptCost int `json:"-" gorm:"-"`
}

// BeforeCreate assigns the ID and defaults the role.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}

// BeforeSave normalizes the email, validates the role and re-hashes whenever
// the transient Password field was touched. Runs on create and on every
// update, so a password write through any repository path picks up a fresh
// hash.
func (u *User) BeforeSave(tx *gorm.DB) error {
	u.Email = NormalizeEmail(u.Email)

	if u.Role != "" && !ValidRole(u.Role) {
		return ErrInvalidRole
	}

	if u.Password != "" {
		if err := u.hashPassword(); err != nil {
			return err
		}
	}
	return nil
}

func (u *User) hashPassword() error {
	cost := u.BcryptCost
	if cost == 0 {
		cost = DefaultBcryptCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(u.Password), cost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashed)
	u.Password = ""
	return nil
}

// CheckPassword compares a candidate plaintext against the stored hash.
// bcrypt performs the comparison in constant time.
func (u *User) CheckPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plain)) == nil
}

// NormalizeEmail lowercases and trims an email address so uniqueness is
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
