package service

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/yuqie6/ArtMirror/internal/repository"
	"github.com/yuqie6/ArtMirror/internal/schema"
	"github.com/yuqie6/ArtMirror/internal/testutil"
)

func newTestResourceService(t *testing.T) *ResourceService {
	t.Helper()
	db := testutil.OpenTestDB(t)
	store, err := NewMaterialStore(t.TempDir())
	if err != nil {
		t.Fatalf("new material store: %v", err)
	}
	return NewResourceService(
		repository.NewBookRepository(db),
		repository.NewLinkRepository(db),
		repository.NewPlaylistRepository(db),
		repository.NewMaterialRepository(db),
		store,
	)
}

func TestBookLifecycle(t *testing.T) {
	svc := newTestResourceService(t)
	ctx := context.Background()

	if err := svc.CreateBook(ctx, &schema.Book{Title: "  ", PDFFilePath: "a.pdf"}); err == nil {
		t.Fatal("blank title should be rejected")
	}
	if err := svc.CreateBook(ctx, &schema.Book{Title: "人体デッサン入門"}); err == nil {
		t.Fatal("missing pdf path should be rejected")
	}

	book := &schema.Book{Title: "人体デッサン入門", Author: "山田", PDFFilePath: "books/anatomy.pdf"}
	if err := svc.CreateBook(ctx, book); err != nil {
		t.Fatalf("CreateBook error: %v", err)
	}

	got, err := svc.GetBook(ctx, book.ID)
	if err != nil {
		t.Fatalf("GetBook error: %v", err)
	}
	if got.Title != "人体デッサン入門" || got.Author != "山田" {
		t.Fatalf("book=%+v", got)
	}

	page, err := svc.ListBooks(ctx, 0, 0, "")
	if err != nil {
		t.Fatalf("ListBooks error: %v", err)
	}
	if page.Total != 1 || page.Page != 1 || page.PageSize != 20 {
		t.Fatalf("page=%+v, defaults not applied", page)
	}

	if err := svc.DeleteBook(ctx, book.ID); err != nil {
		t.Fatalf("DeleteBook error: %v", err)
	}
	if _, err := svc.GetBook(ctx, book.ID); !errors.Is(err, ErrBookNotFound) {
		t.Fatalf("err=%v, want ErrBookNotFound", err)
	}
	if err := svc.DeleteBook(ctx, book.ID); !errors.Is(err, ErrBookNotFound) {
		t.Fatalf("double delete err=%v, want ErrBookNotFound", err)
	}
}

func TestBookSearch(t *testing.T) {
	svc := newTestResourceService(t)
	ctx := context.Background()

	if err := svc.CreateBook(ctx, &schema.Book{Title: "色彩と光のテクニック", PDFFilePath: "books/color.pdf"}); err != nil {
		t.Fatalf("CreateBook error: %v", err)
	}
	if err := svc.CreateBook(ctx, &schema.Book{Title: "パース完全教本", PDFFilePath: "books/perspective.pdf"}); err != nil {
		t.Fatalf("CreateBook error: %v", err)
	}

	page, err := svc.ListBooks(ctx, 1, 20, "色彩")
	if err != nil {
		t.Fatalf("ListBooks error: %v", err)
	}
	if page.Total != 1 || len(page.Books) != 1 || page.Books[0].Title != "色彩と光のテクニック" {
		t.Fatalf("search result=%+v", page)
	}
}

func TestLinkLifecycle(t *testing.T) {
	svc := newTestResourceService(t)
	ctx := context.Background()

	if err := svc.CreateLink(ctx, &schema.ResourceLink{Name: "", URL: "https://example.com"}); err == nil {
		t.Fatal("blank name should be rejected")
	}
	if err := svc.CreateLink(ctx, &schema.ResourceLink{Name: "参考サイト", URL: " "}); err == nil {
		t.Fatal("blank url should be rejected")
	}

	link := &schema.ResourceLink{Name: "参考サイト", URL: "https://example.com"}
	if err := svc.CreateLink(ctx, link); err != nil {
		t.Fatalf("CreateLink error: %v", err)
	}

	if err := svc.UpdateLink(ctx, link.ID, "配色ツール", "https://example.com/palette", "よく使う"); err != nil {
		t.Fatalf("UpdateLink error: %v", err)
	}
	links, err := svc.ListLinks(ctx)
	if err != nil {
		t.Fatalf("ListLinks error: %v", err)
	}
	if len(links) != 1 || links[0].Name != "配色ツール" || links[0].Description != "よく使う" {
		t.Fatalf("links=%+v", links)
	}

	if err := svc.UpdateLink(ctx, 9999, "x", "y", ""); !errors.Is(err, ErrLinkNotFound) {
		t.Fatalf("update missing err=%v, want ErrLinkNotFound", err)
	}
	if err := svc.DeleteLink(ctx, 9999); !errors.Is(err, ErrLinkNotFound) {
		t.Fatalf("delete missing err=%v, want ErrLinkNotFound", err)
	}
	if err := svc.DeleteLink(ctx, link.ID); err != nil {
		t.Fatalf("DeleteLink error: %v", err)
	}
}

func TestBookUpdate(t *testing.T) {
	svc := newTestResourceService(t)
	ctx := context.Background()

	book := &schema.Book{Title: "人体デッサン入門", Author: "山田", PDFFilePath: "books/anatomy.pdf"}
	if err := svc.CreateBook(ctx, book); err != nil {
		t.Fatalf("CreateBook error: %v", err)
	}

	// 空字段保持不变
	if err := svc.UpdateBook(ctx, book.ID, "改訂版 人体デッサン", "", "加筆あり", "", ""); err != nil {
		t.Fatalf("UpdateBook error: %v", err)
	}
	got, err := svc.GetBook(ctx, book.ID)
	if err != nil {
		t.Fatalf("GetBook error: %v", err)
	}
	if got.Title != "改訂版 人体デッサン" || got.Author != "山田" || got.Description != "加筆あり" {
		t.Fatalf("book=%+v", got)
	}
	if got.PDFFilePath != "books/anatomy.pdf" {
		t.Fatalf("pdf path=%q, should be unchanged", got.PDFFilePath)
	}

	if err := svc.UpdateBook(ctx, 9999, "x", "", "", "", ""); !errors.Is(err, ErrBookNotFound) {
		t.Fatalf("update missing err=%v, want ErrBookNotFound", err)
	}
}

func TestPlaylistMaterialLifecycle(t *testing.T) {
	svc := newTestResourceService(t)
	ctx := context.Background()

	p := &schema.Playlist{PlaylistID: "PLabc", Title: "パース講座"}
	if err := svc.CreatePlaylist(ctx, p); err != nil {
		t.Fatalf("CreatePlaylist error: %v", err)
	}

	if _, err := svc.AddMaterial(ctx, 9999, "講義ノート.pdf", strings.NewReader("x")); !errors.Is(err, ErrPlaylistNotFound) {
		t.Fatalf("add to missing playlist err=%v, want ErrPlaylistNotFound", err)
	}
	if _, err := svc.AddMaterial(ctx, p.ID, "  ", strings.NewReader("x")); err == nil {
		t.Fatal("blank filename should be rejected")
	}

	material, err := svc.AddMaterial(ctx, p.ID, "講義ノート.pdf", strings.NewReader("lecture notes"))
	if err != nil {
		t.Fatalf("AddMaterial error: %v", err)
	}
	if material.DisplayName != "講義ノート.pdf" || material.OriginalFilename != "講義ノート.pdf" {
		t.Fatalf("material=%+v", material)
	}
	if material.FileSize != int64(len("lecture notes")) {
		t.Fatalf("file size=%d, want %d", material.FileSize, len("lecture notes"))
	}
	if _, err := os.Stat(svc.MaterialPath(material)); err != nil {
		t.Fatalf("stored file missing: %v", err)
	}

	materials, err := svc.ListMaterials(ctx, p.ID)
	if err != nil {
		t.Fatalf("ListMaterials error: %v", err)
	}
	if len(materials) != 1 || materials[0].ID != material.ID {
		t.Fatalf("materials=%+v", materials)
	}
	if _, err := svc.ListMaterials(ctx, 9999); !errors.Is(err, ErrPlaylistNotFound) {
		t.Fatalf("list missing playlist err=%v, want ErrPlaylistNotFound", err)
	}

	if err := svc.DeleteMaterial(ctx, material.ID); err != nil {
		t.Fatalf("DeleteMaterial error: %v", err)
	}
	if _, err := os.Stat(svc.MaterialPath(material)); !os.IsNotExist(err) {
		t.Fatalf("stored file should be removed, stat err=%v", err)
	}
	if err := svc.DeleteMaterial(ctx, material.ID); !errors.Is(err, ErrMaterialNotFound) {
		t.Fatalf("double delete err=%v, want ErrMaterialNotFound", err)
	}
}

func TestDeletePlaylistRemovesMaterials(t *testing.T) {
	svc := newTestResourceService(t)
	ctx := context.Background()

	p := &schema.Playlist{PlaylistID: "PLabc", Title: "パース講座"}
	if err := svc.CreatePlaylist(ctx, p); err != nil {
		t.Fatalf("CreatePlaylist error: %v", err)
	}
	material, err := svc.AddMaterial(ctx, p.ID, "補足資料.zip", strings.NewReader("zip"))
	if err != nil {
		t.Fatalf("AddMaterial error: %v", err)
	}

	if err := svc.DeletePlaylist(ctx, p.ID); err != nil {
		t.Fatalf("DeletePlaylist error: %v", err)
	}
	if _, err := svc.GetMaterial(ctx, material.ID); !errors.Is(err, ErrMaterialNotFound) {
		t.Fatalf("material row should be gone, err=%v", err)
	}
	if _, err := os.Stat(svc.MaterialPath(material)); !os.IsNotExist(err) {
		t.Fatalf("stored file should be removed, stat err=%v", err)
	}
}

func TestPlaylistCreateDedup(t *testing.T) {
	svc := newTestResourceService(t)
	ctx := context.Background()

	if err := svc.CreatePlaylist(ctx, &schema.Playlist{PlaylistID: " "}); err == nil {
		t.Fatal("blank playlist_id should be rejected")
	}

	p := &schema.Playlist{PlaylistID: "PLabc"}
	if err := svc.CreatePlaylist(ctx, p); err != nil {
		t.Fatalf("CreatePlaylist error: %v", err)
	}
	// 标题缺省时回退为 playlist_id
	if p.Title != "PLabc" {
		t.Fatalf("title=%q, want fallback PLabc", p.Title)
	}

	if err := svc.CreatePlaylist(ctx, &schema.Playlist{PlaylistID: "PLabc", Title: "重複"}); err == nil {
		t.Fatal("duplicate playlist_id should be rejected")
	}
}

func TestPlaylistUpdateAndDelete(t *testing.T) {
	svc := newTestResourceService(t)
	ctx := context.Background()

	p := &schema.Playlist{PlaylistID: "PLabc", Title: "初期タイトル"}
	if err := svc.CreatePlaylist(ctx, p); err != nil {
		t.Fatalf("CreatePlaylist error: %v", err)
	}

	if err := svc.UpdatePlaylistMetadata(ctx, p.ID, "パース講座", "基礎から", "https://img.example/t.jpg"); err != nil {
		t.Fatalf("UpdatePlaylistMetadata error: %v", err)
	}
	lists, err := svc.ListPlaylists(ctx)
	if err != nil {
		t.Fatalf("ListPlaylists error: %v", err)
	}
	if len(lists) != 1 || lists[0].Title != "パース講座" {
		t.Fatalf("playlists=%+v", lists)
	}

	if err := svc.UpdatePlaylistMetadata(ctx, 9999, "x", "", ""); !errors.Is(err, ErrPlaylistNotFound) {
		t.Fatalf("update missing err=%v, want ErrPlaylistNotFound", err)
	}
	if err := svc.DeletePlaylist(ctx, 9999); !errors.Is(err, ErrPlaylistNotFound) {
		t.Fatalf("delete missing err=%v, want ErrPlaylistNotFound", err)
	}
	if err := svc.DeletePlaylist(ctx, p.ID); err != nil {
		t.Fatalf("DeletePlaylist error: %v", err)
	}
}
