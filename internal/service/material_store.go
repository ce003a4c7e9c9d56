package service

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// MaterialStore 讲义资料的本地文件存储。
// 与证明图片不同，资料不限定扩展名（PDF、压缩包等都允许），
// 展示用的原始文件名保存在数据库里，磁盘上只留不透明名称。
type MaterialStore struct {
	dir string
}

// NewMaterialStore 创建资料文件存储（目录不存在时创建）
func NewMaterialStore(dir string) (*MaterialStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("上传目录不能为空")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("创建上传目录失败: %w", err)
	}
	return &MaterialStore{dir: dir}, nil
}

// Save 保存一份资料文件，返回存储名称与字节数
func (s *MaterialStore) Save(originalName string, content io.Reader) (string, int64, error) {
	ext := strings.ToLower(filepath.Ext(filepath.Base(originalName)))
	name := uuid.NewString() + ext
	fullPath := filepath.Join(s.dir, name)

	f, err := os.Create(fullPath)
	if err != nil {
		return "", 0, fmt.Errorf("创建文件失败: %w", err)
	}
	defer f.Close()

	size, err := io.Copy(f, content)
	if err != nil {
		_ = os.Remove(fullPath)
		return "", 0, fmt.Errorf("写入文件失败: %w", err)
	}
	return name, size, nil
}

// Path 返回存储名称对应的完整路径（路径穿越防护：只接受纯文件名）
func (s *MaterialStore) Path(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	return filepath.Join(s.dir, base)
}

// Remove 删除一份资料文件
func (s *MaterialStore) Remove(name string) error {
	if name == "" {
		return nil
	}
	if err := os.Remove(s.Path(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("删除文件失败: %w", err)
	}
	return nil
}

// Dir 返回存储目录
func (s *MaterialStore) Dir() string {
	return s.dir
}
