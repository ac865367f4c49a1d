package domain

import (
	"time" // Timestamps

	"github.com/google/uuid" // Unique identifiers
)

// User Model
type User struct {
	ID               string    `gorm:"primaryKey;size:36" bson:"_id" json:"_id"`                                             // Primary key (UUID)
	FirstName        string    `gorm:"not null" bson:"firstName" json:"firstName"`                                           // First name
	LastName         string    `gorm:"not null" bson:"lastName" json:"lastName"`                                             // Last name
	Email            string    `gorm:"type:varchar(255) COLLATE utf8mb4_bin;uniqueIndex;not null" bson:"email" json:"email"` // Unique email, case-sensitive
	PasswordHash     string    `gorm:"column:password;not null" bson:"password" json:"-"`                                    // Hashed password, never serialized
	Bank             string    `gorm:"not null" bson:"bank" json:"bank"`                                                     // Bank identifier
	DateOfBirth      string    `gorm:"not null" bson:"dateOfBirth" json:"dateOfBirth"`                                       // Date of birth as submitted
	AccountNumber    string    `gorm:"not null" bson:"accountNumber" json:"accountNumber"`                                   // Account number
	IsAvatarImageSet bool      `gorm:"not null;default:false" bson:"isAvatarImageSet" json:"isAvatarImageSet"`               // Whether an avatar has been stored
	AvatarImage      string    `gorm:"default:''" bson:"avatarImage,omitempty" json:"avatarImage,omitempty"`                 // Reference to the stored avatar
	CreatedAt        time.Time `bson:"createdAt" json:"createdAt"`                                                           // Creation time
	UpdatedAt        time.Time `bson:"updatedAt" json:"updatedAt"`                                                           // Last update time
}

// Profile holds the fields submitted at registration
type Profile struct {
	FirstName     string
	LastName      string
	Email         string
	Bank          string
	DateOfBirth   string
	AccountNumber string
}

// NewUser builds a fresh user record with a generated id and no avatar
func NewUser(p Profile, passwordHash string) *User {
	now := time.Now().UTC()
	return &User{
		ID:               uuid.NewString(), // System-generated id
		FirstName:        p.FirstName,
		LastName:         p.LastName,
		Email:            p.Email,
		PasswordHash:     passwordHash,
		Bank:             p.Bank,
		DateOfBirth:      p.DateOfBirth,
		AccountNumber:    p.AccountNumber,
		IsAvatarImageSet: false, // Avatar unset until uploaded
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// SetAvatar moves the avatar state to set with the given reference
func (u *User) SetAvatar(ref string, at time.Time) {
	u.IsAvatarImageSet = true
	u.AvatarImage = ref
	u.UpdatedAt = at
}
