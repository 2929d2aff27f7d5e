package models

import "time"

// Category groups catalog content (videos, articles).
type Category struct {
	ID        string    `gorm:"column:id;primaryKey"`
	Name      string    `gorm:"column:name;not null;uniqueIndex"`
	SortOrder int       `gorm:"column:sort_order;not null;default:0"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (Category) TableName() string { return "categories" }

// Article is a global content entry, not user-owned.
type Article struct {
	ID          string     `gorm:"column:id;primaryKey"`
	Title       string     `gorm:"column:title;not null"`
	Content     string     `gorm:"column:content;not null"`
	Category    string     `gorm:"column:category;index"`
	ImageURL    *string    `gorm:"column:image_url"`
	PublishedAt *time.Time `gorm:"column:published_at"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
}

func (Article) TableName() string { return "articles" }

// Food is a nutrition catalog entry tagged by trimester (0 = any).
type Food struct {
	ID          string    `gorm:"column:id;primaryKey"`
	Name        string    `gorm:"column:name;not null"`
	Description string    `gorm:"column:description"`
	Trimester   int       `gorm:"column:trimester;not null;default:0"`
	Benefits    string    `gorm:"column:benefits"`
	ImageURL    *string   `gorm:"column:image_url"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (Food) TableName() string { return "foods" }
