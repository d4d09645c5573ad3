package model

type Report struct {
	ID      uint `gorm:"primaryKey;autoIncrement" json:"id"`
	ImageID uint `gorm:"index" json:"image_id"`

	ReporterIP string `json:"reporter_ip"`
	Reason     string `gorm:"not null" json:"reason"`
	Resolved   bool   `gorm:"default:false" json:"resolved"`

	// Unix millisecond timestamp
	CreatedAt int64 `gorm:"not null" json:"created_at"`

	Image *Image `gorm:"foreignKey:ImageID" json:"-"`
}
