// Package model defines database models
package model

type User struct {
	ID           string `gorm:"primaryKey" json:"id"`
	Username     string `gorm:"unique;not null" json:"username"`
	Email        string `gorm:"unique;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`

	// Discord holds the linked Discord user ID. Nil means no account
	// has been linked yet
	Discord *string `json:"discord"`

	Suspended        bool   `gorm:"default:false" json:"suspended"`
	SuspensionReason string `json:"suspension_reason"`
	Admin            bool   `gorm:"default:false" json:"admin"`
	Moderator        bool   `gorm:"default:false" json:"moderator"`

	// Unix millisecond timestamp
	CreatedAt int64 `gorm:"not null" json:"created_at"`

	Images  []Image        `gorm:"foreignKey:UserID" json:"-"`
	Pastes  []Paste        `gorm:"foreignKey:UserID" json:"-"`
	URLs    []ShortenedURL `gorm:"foreignKey:UserID" json:"-"`
	Invites []Invite       `gorm:"foreignKey:CreatorID" json:"-"`
}

// Profile is the public view of a user handed to templates and the
// analytics dashboard. It never carries credentials.
type Profile struct {
	ID               string  `json:"id"`
	Username         string  `json:"username"`
	Email            string  `json:"email"`
	Discord          *string `json:"discord"`
	Suspended        bool    `json:"suspended"`
	SuspensionReason string  `json:"suspension_reason,omitempty"`
	Admin            bool    `json:"admin"`
	Moderator        bool    `json:"moderator"`
	CreatedAt        int64   `json:"created_at"`
}

func (u *User) Serialize() Profile {
	return Profile{
		ID:               u.ID,
		Username:         u.Username,
		Email:            u.Email,
		Discord:          u.Discord,
		Suspended:        u.Suspended,
		SuspensionReason: u.SuspensionReason,
		Admin:            u.Admin,
		Moderator:        u.Moderator,
		CreatedAt:        u.CreatedAt,
	}
}
