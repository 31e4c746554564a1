package repositories

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"pdfshrink/internal/domain/entities"
	"pdfshrink/internal/infrastructure/compressors"
)

// FileSystemRepository реализация репозитория для работы с файловой системой
type FileSystemRepository struct{}

// NewFileSystemRepository создает новый репозиторий файловой системы
func NewFileSystemRepository() *FileSystemRepository {
	return &FileSystemRepository{}
}

// ReadSourceFile читает файл целиком в память
func (r *FileSystemRepository) ReadSourceFile(path string) (entities.SourceFile, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return entities.SourceFile{}, fmt.Errorf("%w: %s", entities.ErrFileNotFound, path)
	}
	if err != nil {
		return entities.SourceFile{}, err
	}
	if info.IsDir() {
		return entities.SourceFile{}, fmt.Errorf("%w: %s является директорией", entities.ErrInvalidFileFormat, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return entities.SourceFile{}, fmt.Errorf("ошибка чтения %s: %w", path, err)
	}
	return entities.NewSourceFile(filepath.Base(path), data), nil
}

// FileExists проверяет существование файла
func (r *FileSystemRepository) FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// CreateDirectory создает директорию
func (r *FileSystemRepository) CreateDirectory(path string) error {
	return os.MkdirAll(path, 0755)
}

// ListPDFFiles возвращает список PDF файлов в директории и всех подпапках
func (r *FileSystemRepository) ListPDFFiles(directory string) ([]string, error) {
	return listFiles(directory, func(name string) bool {
		return strings.EqualFold(filepath.Ext(name), ".pdf")
	})
}

// ListImageFiles возвращает список JPEG и PNG файлов в директории и всех подпапках
func (r *FileSystemRepository) ListImageFiles(directory string) ([]string, error) {
	return listFiles(directory, compressors.IsImageFile)
}

func listFiles(directory string, match func(name string) bool) ([]string, error) {
	var files []string

	err := filepath.WalkDir(directory, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if match(d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// DirectorySink сохраняет готовые файлы в директорию.
// Запись идет во временный файл, который затем переименовывается.
type DirectorySink struct {
	dir string
}

// NewDirectorySink создает получателя файлов для директории dir
func NewDirectorySink(dir string) *DirectorySink {
	return &DirectorySink{dir: dir}
}

// Save записывает data в dir/filename и возвращает итоговый путь
func (s *DirectorySink) Save(data []byte, filename string) (string, error) {
	name := filepath.Base(filename)
	if name == "." || name == string(filepath.Separator) {
		return "", fmt.Errorf("%w: пустое имя файла", entities.ErrInvalidFileFormat)
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("ошибка создания директории %s: %w", s.dir, err)
	}

	target := filepath.Join(s.dir, name)
	tmp := filepath.Join(s.dir, "."+uuid.NewString()+".tmp")

	if err := os.WriteFile(tmp, data, 0644); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("ошибка записи %s: %w", target, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("ошибка переименования в %s: %w", target, err)
	}

	return target, nil
}
