package model

type Image struct {
	ID     uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID string `gorm:"index" json:"-"`

	// ShortID is the public identifier used in upload URLs
	ShortID string `gorm:"uniqueIndex;not null" json:"short_id"`

	// Since different users may upload files with the same name the
	// S3 objects are kept under a separate random key
	S3Key string `json:"-"`

	OriginalName string `json:"name"`
	ContentType  string `json:"content_type"`
	Size         int64  `json:"size"`

	Deleted        bool   `gorm:"default:false" json:"deleted"`
	DeletionReason string `json:"deletion_reason,omitempty"`

	// Unix millisecond timestamp
	CreatedAt int64 `gorm:"not null" json:"created_at"`

	Uploader *User `gorm:"foreignKey:UserID" json:"-"`
}
