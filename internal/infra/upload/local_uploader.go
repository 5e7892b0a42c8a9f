package upload

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ImageUploader 收一個檔案、回一個公開 URL。雲端圖床是外部協作者，
// 這裡提供本地磁碟實作供自架/測試環境用
type ImageUploader interface {
	Upload(ctx context.Context, r io.Reader, filename string) (string, error)
}

type LocalUploader struct {
	dir     string
	baseURL string
}

func NewLocalUploader(dir, baseURL string) (*LocalUploader, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &LocalUploader{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

func (u *LocalUploader) Upload(ctx context.Context, r io.Reader, filename string) (string, error) {
	name := uuid.NewString() + filepath.Ext(filename)
	path := filepath.Join(u.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write upload file: %w", err)
	}

	return u.baseURL + "/" + name, nil
}

var _ ImageUploader = (*LocalUploader)(nil)
