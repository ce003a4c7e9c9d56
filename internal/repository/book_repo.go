package repository

import (
	"context"
	"fmt"

	"github.com/yuqie6/ArtMirror/internal/schema"
	"gorm.io/gorm"
)

// BookRepository 书籍仓储
type BookRepository struct {
	db *gorm.DB
}

// NewBookRepository 创建书籍仓储
func NewBookRepository(db *gorm.DB) *BookRepository {
	return &BookRepository{db: db}
}

// Create 创建书籍
func (r *BookRepository) Create(ctx context.Context, book *schema.Book) error {
	if book == nil {
		return fmt.Errorf("book 不能为空")
	}
	if err := r.db.WithContext(ctx).Create(book).Error; err != nil {
		return fmt.Errorf("创建书籍失败: %w", err)
	}
	return nil
}

// GetByID 按 ID 查询书籍，不存在时返回 nil
func (r *BookRepository) GetByID(ctx context.Context, id int64) (*schema.Book, error) {
	var book schema.Book
	err := r.db.WithContext(ctx).First(&book, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("查询书籍失败: %w", err)
	}
	return &book, nil
}

// List 分页查询书籍，支持标题/作者模糊搜索
func (r *BookRepository) List(ctx context.Context, page, pageSize int, search string) ([]schema.Book, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	query := r.db.WithContext(ctx).Model(&schema.Book{})
	if search != "" {
		like := "%" + search + "%"
		query = query.Where("title LIKE ? OR author LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("统计书籍失败: %w", err)
	}

	var books []schema.Book
	err := query.
		Order("added_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&books).Error
	if err != nil {
		return nil, 0, fmt.Errorf("查询书籍失败: %w", err)
	}
	return books, total, nil
}

// Update 更新书籍字段（允许部分更新）
func (r *BookRepository) Update(ctx context.Context, id int64, title, author, description, coverImagePath, pdfFilePath string) error {
	updates := map[string]interface{}{}
	if title != "" {
		updates["title"] = title
	}
	if author != "" {
		updates["author"] = author
	}
	if description != "" {
		updates["description"] = description
	}
	if coverImagePath != "" {
		updates["cover_image_path"] = coverImagePath
	}
	if pdfFilePath != "" {
		updates["pdf_file_path"] = pdfFilePath
	}
	if len(updates) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Model(&schema.Book{}).Where("id = ?", id).Updates(updates).Error
	if err != nil {
		return fmt.Errorf("更新书籍失败: %w", err)
	}
	return nil
}

// Delete 删除书籍
func (r *BookRepository) Delete(ctx context.Context, id int64) error {
	if err := r.db.WithContext(ctx).Delete(&schema.Book{}, id).Error; err != nil {
		return fmt.Errorf("删除书籍失败: %w", err)
	}
	return nil
}

// DeleteAllTx 在指定事务中清空书籍（数据重置用）
func (r *BookRepository) DeleteAllTx(tx *gorm.DB) error {
	if err := tx.Where("1 = 1").Delete(&schema.Book{}).Error; err != nil {
		return fmt.Errorf("清空书籍失败: %w", err)
	}
	return nil
}
