package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/plcworks/plchub-backend/internal/config"
	"github.com/plcworks/plchub-backend/internal/platform/logger"
	"github.com/plcworks/plchub-backend/internal/platform/ziputil"
)

const extractWorkers = 8

// StoredFile describes one file written to the upload tree.
type StoredFile struct {
	FileName string
	Path     string
	Size     int64
	SHA256   string
}

// StorageOperator writes validated upload content to the local upload
// tree and cleans it up again when an upload fails after files were
// written. Deletion is best effort and never returns an error.
type StorageOperator interface {
	FilterArchive(zipData []byte, keep []string) ([]byte, error)
	ExtractLadderFiles(ctx context.Context, pgmID string, zipData []byte) ([]StoredFile, error)
	SaveOriginalZip(pgmID, originalName string, zipData []byte, extractedCount int) (*StoredFile, error)
	SaveTemplateFile(pgmID, originalName string, data []byte) (*StoredFile, error)
	DeleteProgramFiles(pgmID string)
	DeleteFiles(paths []string)
}

type storageOperator struct {
	cfg *config.Config
	log *logger.Logger
}

func NewStorageOperator(cfg *config.Config, baseLog *logger.Logger) StorageOperator {
	return &storageOperator{
		cfg: cfg,
		log: baseLog.With("service", "StorageOperator"),
	}
}

// FilterArchive rebuilds the archive keeping only entries whose
// extension-stripped base name is in keep. Extra files never reach disk.
func (so *storageOperator) FilterArchive(zipData []byte, keep []string) ([]byte, error) {
	keepSet := make(map[string]bool, len(keep))
	for _, name := range keep {
		keepSet[name] = true
	}
	filtered, err := ziputil.Filter(zipData, keepSet)
	if err != nil {
		return nil, fmt.Errorf("filter archive: %w", err)
	}
	return filtered, nil
}

// ExtractLadderFiles writes every file entry of the (already filtered)
// archive into the program's ladder directory, hashing each file as it
// is written. Entries are extracted concurrently.
func (so *storageOperator) ExtractLadderFiles(ctx context.Context, pgmID string, zipData []byte) ([]StoredFile, error) {
	dir := so.cfg.LadderFilesDir(pgmID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create ladder dir: %w", err)
	}

	zr, err := ziputil.Open(zipData)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	var (
		mu    sync.Mutex
		files []StoredFile
	)
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(extractWorkers)

	for _, entry := range zr.File {
		if entry.FileInfo().IsDir() {
			continue
		}
		entry := entry
		g.Go(func() error {
			rc, err := entry.Open()
			if err != nil {
				return fmt.Errorf("open entry %s: %w", entry.Name, err)
			}
			defer rc.Close()

			name := filepath.Base(filepath.FromSlash(entry.Name))
			target := filepath.Join(dir, name)
			out, err := os.Create(target)
			if err != nil {
				return fmt.Errorf("create %s: %w", target, err)
			}
			defer out.Close()

			hasher := sha256.New()
			size, err := io.Copy(io.MultiWriter(out, hasher), rc)
			if err != nil {
				return fmt.Errorf("write %s: %w", target, err)
			}

			mu.Lock()
			files = append(files, StoredFile{
				FileName: name,
				Path:     target,
				Size:     size,
				SHA256:   hex.EncodeToString(hasher.Sum(nil)),
			})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	so.log.Info("ladder files extracted", "pgm_id", pgmID, "count", len(files))
	return files, nil
}

// SaveOriginalZip keeps the uploaded archive alongside the extracted
// files. The stored name is timestamped so repeat uploads never clobber
// an earlier backup.
func (so *storageOperator) SaveOriginalZip(pgmID, originalName string, zipData []byte, extractedCount int) (*StoredFile, error) {
	dir := so.cfg.ZipFileDir(pgmID)
	name := timestampedName(originalName)
	sf, err := so.writeFile(dir, name, zipData)
	if err != nil {
		return nil, err
	}
	so.log.Info("original archive kept", "pgm_id", pgmID, "path", sf.Path, "extracted_file_count", extractedCount)
	return sf, nil
}

func (so *storageOperator) SaveTemplateFile(pgmID, originalName string, data []byte) (*StoredFile, error) {
	dir := so.cfg.TemplateFileDir(pgmID)
	name := timestampedName(originalName)
	sf, err := so.writeFile(dir, name, data)
	if err != nil {
		return nil, err
	}
	so.log.Info("manifest file saved", "pgm_id", pgmID, "path", sf.Path)
	return sf, nil
}

func (so *storageOperator) writeFile(dir, name string, data []byte) (*StoredFile, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create dir %s: %w", dir, err)
	}
	target := filepath.Join(dir, name)
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", target, err)
	}
	sum := sha256.Sum256(data)
	return &StoredFile{
		FileName: name,
		Path:     target,
		Size:     int64(len(data)),
		SHA256:   hex.EncodeToString(sum[:]),
	}, nil
}

// DeleteProgramFiles removes the whole upload directory of a program.
// Used by upload rollback; errors are logged and swallowed so cleanup
// can never mask the failure that triggered it.
func (so *storageOperator) DeleteProgramFiles(pgmID string) {
	dir := so.cfg.ProgramUploadDir(pgmID)
	if err := os.RemoveAll(dir); err != nil {
		so.log.Warn("failed to remove program upload dir", "pgm_id", pgmID, "dir", dir, "error", err)
		return
	}
	so.log.Info("program upload dir removed", "pgm_id", pgmID, "dir", dir)
}

func (so *storageOperator) DeleteFiles(paths []string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			so.log.Warn("failed to remove file", "path", p, "error", err)
		}
	}
}

func timestampedName(originalName string) string {
	base := filepath.Base(originalName)
	ext := filepath.Ext(base)
	stem := base[:len(base)-len(ext)]
	return fmt.Sprintf("%s_%s%s", stem, time.Now().Format("20060102_150405"), ext)
}
