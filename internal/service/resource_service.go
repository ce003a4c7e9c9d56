package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/yuqie6/ArtMirror/internal/repository"
	"github.com/yuqie6/ArtMirror/internal/schema"
)

// ResourceService 学习资源服务（书籍 / 外部链接 / 播放列表元数据与讲义资料）
type ResourceService struct {
	books         *repository.BookRepository
	links         *repository.LinkRepository
	playlists     *repository.PlaylistRepository
	materials     *repository.MaterialRepository
	materialFiles *MaterialStore
}

// NewResourceService 创建资源服务
func NewResourceService(
	books *repository.BookRepository,
	links *repository.LinkRepository,
	playlists *repository.PlaylistRepository,
	materials *repository.MaterialRepository,
	materialFiles *MaterialStore,
) *ResourceService {
	return &ResourceService{
		books:         books,
		links:         links,
		playlists:     playlists,
		materials:     materials,
		materialFiles: materialFiles,
	}
}

// BookPage 分页的书籍列表
type BookPage struct {
	Books    []schema.Book `json:"books"`
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
}

// ListBooks 分页查询书籍
func (s *ResourceService) ListBooks(ctx context.Context, page, pageSize int, search string) (*BookPage, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	books, total, err := s.books.List(ctx, page, pageSize, search)
	if err != nil {
		return nil, err
	}
	return &BookPage{Books: books, Total: total, Page: page, PageSize: pageSize}, nil
}

// GetBook 查询单本书籍
func (s *ResourceService) GetBook(ctx context.Context, id int64) (*schema.Book, error) {
	book, err := s.books.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, ErrBookNotFound
	}
	return book, nil
}

// CreateBook 登记一本书籍（PDF 路径必填且唯一）
func (s *ResourceService) CreateBook(ctx context.Context, book *schema.Book) error {
	if book == nil || strings.TrimSpace(book.Title) == "" {
		return fmt.Errorf("书名不能为空")
	}
	if strings.TrimSpace(book.PDFFilePath) == "" {
		return fmt.Errorf("PDF 路径不能为空")
	}
	return s.books.Create(ctx, book)
}

// UpdateBook 更新书籍元数据（空字段保持不变）
func (s *ResourceService) UpdateBook(ctx context.Context, id int64, title, author, description, coverImagePath, pdfFilePath string) error {
	book, err := s.books.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if book == nil {
		return ErrBookNotFound
	}
	return s.books.Update(ctx, id, title, author, description, coverImagePath, pdfFilePath)
}

// DeleteBook 删除书籍
func (s *ResourceService) DeleteBook(ctx context.Context, id int64) error {
	book, err := s.books.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if book == nil {
		return ErrBookNotFound
	}
	return s.books.Delete(ctx, id)
}

// ListLinks 查询全部链接
func (s *ResourceService) ListLinks(ctx context.Context) ([]schema.ResourceLink, error) {
	return s.links.List(ctx)
}

// CreateLink 登记一条链接
func (s *ResourceService) CreateLink(ctx context.Context, link *schema.ResourceLink) error {
	if link == nil || strings.TrimSpace(link.Name) == "" {
		return fmt.Errorf("链接名称不能为空")
	}
	if strings.TrimSpace(link.URL) == "" {
		return fmt.Errorf("URL 不能为空")
	}
	return s.links.Create(ctx, link)
}

// UpdateLink 更新链接
func (s *ResourceService) UpdateLink(ctx context.Context, id int64, name, url, description string) error {
	link, err := s.links.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if link == nil {
		return ErrLinkNotFound
	}
	return s.links.Update(ctx, id, name, url, description)
}

// DeleteLink 删除链接
func (s *ResourceService) DeleteLink(ctx context.Context, id int64) error {
	link, err := s.links.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if link == nil {
		return ErrLinkNotFound
	}
	return s.links.Delete(ctx, id)
}

// ListPlaylists 查询全部播放列表
func (s *ResourceService) ListPlaylists(ctx context.Context) ([]schema.Playlist, error) {
	return s.playlists.List(ctx)
}

// CreatePlaylist 登记一个播放列表（playlist_id 去重）
func (s *ResourceService) CreatePlaylist(ctx context.Context, playlist *schema.Playlist) error {
	if playlist == nil || strings.TrimSpace(playlist.PlaylistID) == "" {
		return fmt.Errorf("playlist_id 不能为空")
	}
	existing, err := s.playlists.GetByPlaylistID(ctx, playlist.PlaylistID)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("播放列表 %s 已存在", playlist.PlaylistID)
	}
	if playlist.Title == "" {
		playlist.Title = playlist.PlaylistID
	}
	return s.playlists.Create(ctx, playlist)
}

// UpdatePlaylistMetadata 更新播放列表元数据
func (s *ResourceService) UpdatePlaylistMetadata(ctx context.Context, id int64, title, description, thumbnailURL string) error {
	playlist, err := s.playlists.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if playlist == nil {
		return ErrPlaylistNotFound
	}
	return s.playlists.UpdateMetadata(ctx, id, title, description, thumbnailURL)
}

// DeletePlaylist 删除播放列表及其观看进度、讲义资料。
// 数据库行在事务里删除，物理文件随后尽力清理。
func (s *ResourceService) DeletePlaylist(ctx context.Context, id int64) error {
	playlist, err := s.playlists.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if playlist == nil {
		return ErrPlaylistNotFound
	}
	materials, err := s.materials.ListByPlaylist(ctx, id)
	if err != nil {
		return err
	}
	if err := s.playlists.Delete(ctx, id); err != nil {
		return err
	}
	for _, m := range materials {
		_ = s.materialFiles.Remove(m.StoredFilename)
	}
	return nil
}

// ListMaterials 查询某个播放列表的讲义资料
func (s *ResourceService) ListMaterials(ctx context.Context, playlistID int64) ([]schema.PlaylistMaterial, error) {
	playlist, err := s.playlists.GetByID(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	if playlist == nil {
		return nil, ErrPlaylistNotFound
	}
	return s.materials.ListByPlaylist(ctx, playlistID)
}

// AddMaterial 保存一份讲义资料并登记到播放列表。
// 登记失败时回收已写入的文件。
func (s *ResourceService) AddMaterial(ctx context.Context, playlistID int64, originalName string, content io.Reader) (*schema.PlaylistMaterial, error) {
	if strings.TrimSpace(originalName) == "" {
		return nil, fmt.Errorf("文件名不能为空")
	}
	playlist, err := s.playlists.GetByID(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	if playlist == nil {
		return nil, ErrPlaylistNotFound
	}

	stored, size, err := s.materialFiles.Save(originalName, content)
	if err != nil {
		return nil, err
	}
	material := &schema.PlaylistMaterial{
		PlaylistID:       playlistID,
		StoredFilename:   stored,
		OriginalFilename: originalName,
		DisplayName:      originalName,
		FileSize:         size,
	}
	if err := s.materials.Create(ctx, material); err != nil {
		_ = s.materialFiles.Remove(stored)
		return nil, err
	}
	return material, nil
}

// GetMaterial 查询单份讲义资料
func (s *ResourceService) GetMaterial(ctx context.Context, id int64) (*schema.PlaylistMaterial, error) {
	material, err := s.materials.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if material == nil {
		return nil, ErrMaterialNotFound
	}
	return material, nil
}

// MaterialPath 返回讲义资料的磁盘路径（下载接口用）
func (s *ResourceService) MaterialPath(material *schema.PlaylistMaterial) string {
	return s.materialFiles.Path(material.StoredFilename)
}

// DeleteMaterial 删除一份讲义资料（数据库行与物理文件）
func (s *ResourceService) DeleteMaterial(ctx context.Context, id int64) error {
	material, err := s.materials.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if material == nil {
		return ErrMaterialNotFound
	}
	if err := s.materials.Delete(ctx, id); err != nil {
		return err
	}
	return s.materialFiles.Remove(material.StoredFilename)
}
