package model

type Invite struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Code      string `gorm:"uniqueIndex;not null" json:"code"`
	CreatorID string `gorm:"index" json:"-"`

	// RedeemedBy holds the username of whoever used the invite.
	// Empty until redeemed
	RedeemedBy string `gorm:"index" json:"redeemed_by"`

	// Unix millisecond timestamp
	CreatedAt int64 `gorm:"not null" json:"created_at"`

	Creator *User `gorm:"foreignKey:CreatorID" json:"-"`
}
