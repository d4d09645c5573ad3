package model

type Paste struct {
	ID     uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID string `gorm:"index" json:"-"`

	ShortID string `gorm:"uniqueIndex;not null" json:"short_id"`
	Title   string `json:"title"`
	Content string `json:"content"`

	// Unix millisecond timestamp
	CreatedAt int64 `gorm:"not null" json:"created_at"`
}
