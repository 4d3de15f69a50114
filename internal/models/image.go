package models

import "time"

// Image is the metadata record of an uploaded asset. The binary itself
// lives in the object store under PublicID.
type Image struct {
	ID         string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	URL        string    `json:"url" gorm:"type:varchar(1024);not null"`
	PublicID   string    `json:"publicId" gorm:"uniqueIndex;type:varchar(255);not null"`
	UploadedBy string    `json:"uploadedBy" gorm:"index;type:varchar(36);not null"`
	CreatedAt  time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
