package repo

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sir_venger/vidstream/internal/models"
)

// tempPrefix помечает незавершённые загрузки; такие файлы не попадают в каталог.
const tempPrefix = ".upload-"

// FileEntry: сведения о файле каталога на момент чтения директории.
type FileEntry struct {
	Name      string
	Size      int64
	CreatedAt time.Time
}

// VideoDir: плоская директория с видеофайлами. Каталогом служит сама директория, без БД.
type VideoDir struct {
	root string
}

// OpenVideoDir создаёт директорию при необходимости и возвращает хранилище поверх неё.
func OpenVideoDir(root string) (*VideoDir, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("videos dir is empty")
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}

	return &VideoDir{root: abs}, nil
}

// Root возвращает абсолютный путь директории.
func (d *VideoDir) Root() string {
	return d.root
}

// Resolve возвращает путь к файлу name внутри директории.
// Имена с разделителями, "..", абсолютные пути и служебные temp-файлы дают ErrNotFound.
func (d *VideoDir) Resolve(name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.HasPrefix(name, tempPrefix) {
		return "", models.ErrNotFound
	}
	if strings.ContainsAny(name, `/\`) || filepath.IsAbs(name) {
		return "", models.ErrNotFound
	}

	p := filepath.Join(d.root, name)
	// Итоговый путь обязан лежать непосредственно в root.
	if filepath.Dir(p) != d.root {
		return "", models.ErrNotFound
	}

	return p, nil
}

// Open открывает файл на чтение. Отсутствующий файл или директория: ErrNotFound.
func (d *VideoDir) Open(name string) (*os.File, fs.FileInfo, error) {
	p, err := d.Resolve(name)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, models.ErrNotFound
		}
		return nil, nil, err
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, nil, err
	}
	if !info.Mode().IsRegular() {
		_ = f.Close()
		return nil, nil, models.ErrNotFound
	}

	return f, info, nil
}

// List перечисляет обычные файлы директории в порядке os.ReadDir. Размер и время
// создания берутся из файловой системы при каждом вызове.
func (d *VideoDir) List(ctx context.Context) ([]FileEntry, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, err
	}

	out := make([]FileEntry, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), tempPrefix) {
			continue
		}

		info, err := e.Info()
		if err != nil {
			// Файл удалили между ReadDir и Stat.
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, err
		}

		out = append(out, FileEntry{
			Name:      e.Name(),
			Size:      info.Size(),
			CreatedAt: birthTime(filepath.Join(d.root, e.Name()), info),
		})
	}

	return out, nil
}

// CreateTemp создаёт скрытый временный файл для приёма загрузки.
func (d *VideoDir) CreateTemp() (*os.File, error) {
	return os.CreateTemp(d.root, tempPrefix+"*")
}

// Commit публикует временный файл под именем name. Существующий файл не перезаписывается.
func (d *VideoDir) Commit(tmpPath, name string) error {
	dst, err := d.Resolve(name)
	if err != nil {
		return err
	}
	// link атомарно падает с EEXIST, если имя уже занято.
	err = os.Link(tmpPath, dst)
	switch {
	case err == nil:
		_ = os.Remove(tmpPath)
		return nil
	case errors.Is(err, fs.ErrExist):
		return fmt.Errorf("commit %s: %w", name, fs.ErrExist)
	}

	// ФС без жёстких ссылок.
	if _, err := os.Lstat(dst); err == nil {
		return fmt.Errorf("commit %s: %w", name, fs.ErrExist)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	return os.Rename(tmpPath, dst)
}

// SweepTemp удаляет временные файлы загрузок старше ttl и возвращает их количество.
func (d *VideoDir) SweepTemp(ttl time.Duration) (int, error) {
	now := time.Now()
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), tempPrefix) {
			continue
		}

		info, err := e.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) < ttl {
			continue
		}

		if err := os.Remove(filepath.Join(d.root, e.Name())); err == nil {
			removed++
		}
	}

	return removed, nil
}
