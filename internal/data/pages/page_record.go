package pages

import "gorm.io/gorm"

// PageRecord is a page document persisted in SQLite. Sections holds the JSON
// encoding of the page's open-ended section tree.
type PageRecord struct {
	gorm.Model
	Name     string `gorm:"size:255;uniqueIndex:idx_pages_name;not null"`
	Sections string `gorm:"type:text;not null;default:'{}'"`
}

// TableName defines the table name for the page model.
func (PageRecord) TableName() string {
	return "pages"
}
