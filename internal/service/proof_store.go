package service

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// 证明图片允许的扩展名
var allowedProofExtensions = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".gif":  {},
	".webp": {},
}

// ProofStore 证明图片的本地文件存储。
// 文件名统一用 uuid 生成，避免用户文件名带来的路径问题；
// 记录里只保存相对路径这一不透明引用。
type ProofStore struct {
	dir string
}

// NewProofStore 创建文件存储（目录不存在时创建）
func NewProofStore(dir string) (*ProofStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("上传目录不能为空")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("创建上传目录失败: %w", err)
	}
	return &ProofStore{dir: dir}, nil
}

// Allowed 判断原始文件名的扩展名是否被允许
func (s *ProofStore) Allowed(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	_, ok := allowedProofExtensions[ext]
	return ok
}

// Save 保存一份证明图片，返回相对路径。
// 扩展名不合法时返回错误，调用方应翻译成表单校验错误。
func (s *ProofStore) Save(originalName string, content io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if _, ok := allowedProofExtensions[ext]; !ok {
		return "", fmt.Errorf("不允许的文件格式: %s", ext)
	}

	name := uuid.NewString() + ext
	fullPath := filepath.Join(s.dir, name)

	f, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("创建文件失败: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, content); err != nil {
		_ = os.Remove(fullPath)
		return "", fmt.Errorf("写入文件失败: %w", err)
	}
	return name, nil
}

// Remove 删除一份证明图片（路径穿越防护：只接受纯文件名）
func (s *ProofStore) Remove(name string) error {
	if name == "" {
		return nil
	}
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if err := os.Remove(filepath.Join(s.dir, base)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("删除文件失败: %w", err)
	}
	return nil
}

// Dir 返回存储目录（HTTP 层挂静态目录用）
func (s *ProofStore) Dir() string {
	return s.dir
}
