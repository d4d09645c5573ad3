package model

type ShortenedURL struct {
	ID     uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID string `gorm:"index" json:"-"`

	ShortID     string `gorm:"uniqueIndex;not null" json:"short_id"`
	Destination string `gorm:"not null" json:"destination"`
	Clicks      int64  `gorm:"default:0" json:"clicks"`

	// Unix millisecond timestamp
	CreatedAt int64 `gorm:"not null" json:"created_at"`
}
