package models

import "time"

// Author is referenced by books through Book.AuthorID.
type Author struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name      string    `json:"name" gorm:"type:varchar(100);not null" validate:"required,max=100"`
	Bio       string    `json:"bio" validate:"omitempty,max=1000"`
	CreatedAt time.Time `json:"createdAt"`
}

// Book is a catalogue entry. Author is the free-text author name; AuthorID
// optionally links a registered Author.
type Book struct {
	ID            string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Title         string    `json:"title" gorm:"type:varchar(100);not null" validate:"required,max=100"`
	Author        string    `json:"author" gorm:"type:varchar(100);not null" validate:"required,max=100"`
	Year          int       `json:"year" gorm:"not null" validate:"required,gte=1000"`
	AuthorID      *string   `json:"authorId,omitempty" gorm:"type:varchar(36);index" validate:"omitempty,uuid"`
	AuthorDetails *Author   `json:"authorDetails,omitempty" gorm:"foreignKey:AuthorID" validate:"-"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
