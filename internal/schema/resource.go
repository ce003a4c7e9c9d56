package schema

import "time"

// Book 学习用书籍。PDF 渲染不在本系统范围内，这里只保存文件路径。
type Book struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Title          string    `gorm:"size:255;not null" json:"title"`
	Author         string    `gorm:"size:100" json:"author"`
	Description    string    `gorm:"type:text" json:"description"`
	CoverImagePath string    `gorm:"size:255" json:"cover_image_path"`
	PDFFilePath    string    `gorm:"size:255;uniqueIndex;not null" json:"pdf_file_path"`
	AddedAt        time.Time `gorm:"autoCreateTime" json:"added_at"`
}

// TableName 指定表名
func (Book) TableName() string {
	return "books"
}

// ResourceLink 学习用外部链接
type ResourceLink struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	URL         string    `gorm:"size:500;not null" json:"url"`
	Description string    `gorm:"type:text" json:"description"`
	AddedAt     time.Time `gorm:"autoCreateTime" json:"added_at"`
}

// TableName 指定表名
func (ResourceLink) TableName() string {
	return "resource_links"
}
