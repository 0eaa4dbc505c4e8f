package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LocalStorage archives files on the local filesystem under
// basePath/<ownerID>/, with sidecar metadata in a .meta directory.
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates the archive root if needed.
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create archive directory: %w", err)
	}
	return &LocalStorage{basePath: basePath}, nil
}

var _ Storage = (*LocalStorage)(nil)

func (s *LocalStorage) Upload(_ context.Context, ownerID uuid.UUID, filename, contentType string, r io.Reader) (*FileInfo, error) {
	fileID := uuid.New()

	ownerDir := filepath.Join(s.basePath, ownerID.String())
	if err := os.MkdirAll(filepath.Join(ownerDir, ".meta"), 0o755); err != nil {
		return nil, fmt.Errorf("create owner directory: %w", err)
	}

	stored := fmt.Sprintf("%s_%s", fileID.String()[:8], sanitizeFilename(filename))
	path := filepath.Join(ownerDir, stored)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create archive file: %w", err)
	}
	defer f.Close()

	size, err := io.Copy(f, r)
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("write archive file: %w", err)
	}

	info := &FileInfo{
		ID:          fileID,
		Name:        filename,
		Size:        size,
		ContentType: contentType,
		Path:        stored,
		CreatedAt:   fileModTime(path),
	}

	meta, err := json.Marshal(info)
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	metaPath := filepath.Join(ownerDir, ".meta", fileID.String()+".json")
	if err := os.WriteFile(metaPath, meta, 0o644); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("write metadata: %w", err)
	}

	return info, nil
}

func (s *LocalStorage) Open(_ context.Context, ownerID uuid.UUID, fileID uuid.UUID) (io.ReadCloser, error) {
	info, err := s.readMeta(ownerID, fileID)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(s.basePath, ownerID.String(), info.Path))
	if err != nil {
		return nil, fmt.Errorf("open archived file: %w", err)
	}
	return f, nil
}

func (s *LocalStorage) List(_ context.Context, ownerID uuid.UUID) ([]*FileInfo, error) {
	metaDir := filepath.Join(s.basePath, ownerID.String(), ".meta")
	entries, err := os.ReadDir(metaDir)
	if os.IsNotExist(err) {
		return []*FileInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list metadata: %w", err)
	}

	files := make([]*FileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		id, err := uuid.Parse(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			continue
		}
		info, err := s.readMeta(ownerID, id)
		if err != nil {
			continue
		}
		files = append(files, info)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].CreatedAt.After(files[j].CreatedAt)
	})
	return files, nil
}

// Prune removes archived files created before the cutoff, along with their
// metadata, across all owners. It returns the number of files removed.
func (s *LocalStorage) Prune(cutoff time.Time) (int, error) {
	owners, err := os.ReadDir(s.basePath)
	if err != nil {
		return 0, fmt.Errorf("list archive root: %w", err)
	}

	removed := 0
	for _, owner := range owners {
		if !owner.IsDir() {
			continue
		}
		ownerID, err := uuid.Parse(owner.Name())
		if err != nil {
			continue
		}

		files, err := s.List(context.Background(), ownerID)
		if err != nil {
			continue
		}
		for _, info := range files {
			if !info.CreatedAt.Before(cutoff) {
				continue
			}
			ownerDir := filepath.Join(s.basePath, owner.Name())
			if err := os.Remove(filepath.Join(ownerDir, info.Path)); err != nil && !os.IsNotExist(err) {
				continue
			}
			os.Remove(filepath.Join(ownerDir, ".meta", info.ID.String()+".json"))
			removed++
		}
	}
	return removed, nil
}

func (s *LocalStorage) readMeta(ownerID, fileID uuid.UUID) (*FileInfo, error) {
	metaPath := filepath.Join(s.basePath, ownerID.String(), ".meta", fileID.String()+".json")
	data, err := os.ReadFile(metaPath)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("archived file not found: %s", fileID)
	}
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	var info FileInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return &info, nil
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}

func fileModTime(path string) time.Time {
	if st, err := os.Stat(path); err == nil {
		return st.ModTime()
	}
	return time.Now()
}
