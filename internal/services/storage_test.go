package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/plcworks/plchub-backend/internal/platform/ziputil"
)

func newTestStorage(t *testing.T) StorageOperator {
	t.Helper()
	cfg := testConfig(t)
	cfg.Storage.UploadBasePath = t.TempDir()
	return NewStorageOperator(cfg, testLog(t))
}

func TestFilterArchiveDropsExtras(t *testing.T) {
	so := newTestStorage(t)
	zipData := buildTestZip(t, map[string]string{
		"export/L001.csv": "a",
		"export/L002.csv": "b",
		"export/notes.txt": "c",
	})

	filtered, err := so.FilterArchive(zipData, []string{"L001", "L002"})
	if err != nil {
		t.Fatalf("FilterArchive: %v", err)
	}
	names, err := ziputil.ListBaseNames(filtered)
	if err != nil {
		t.Fatalf("ListBaseNames: %v", err)
	}
	sort.Strings(names)
	if len(names) != 2 || names[0] != "L001" || names[1] != "L002" {
		t.Fatalf("want [L001 L002] got=%v", names)
	}
}

func TestExtractLadderFiles(t *testing.T) {
	so := newTestStorage(t)
	content := ladderCSV(3)
	zipData := buildTestZip(t, map[string]string{
		"export/L001.csv": content,
		"export/L002.csv": content,
	})

	files, err := so.ExtractLadderFiles(context.Background(), "PGM_1", zipData)
	if err != nil {
		t.Fatalf("ExtractLadderFiles: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("want 2 files got=%d", len(files))
	}

	wantSum := sha256.Sum256([]byte(content))
	for _, f := range files {
		data, err := os.ReadFile(f.Path)
		if err != nil {
			t.Fatalf("read %s: %v", f.Path, err)
		}
		if string(data) != content {
			t.Fatalf("%s content mismatch", f.FileName)
		}
		if f.SHA256 != hex.EncodeToString(wantSum[:]) {
			t.Fatalf("%s hash mismatch: %s", f.FileName, f.SHA256)
		}
		if f.Size != int64(len(content)) {
			t.Fatalf("%s want size=%d got=%d", f.FileName, len(content), f.Size)
		}
		if filepath.Base(filepath.Dir(f.Path)) != "ladder" {
			t.Fatalf("%s extracted outside ladder dir: %s", f.FileName, f.Path)
		}
	}
}

func TestSaveOriginalZipTimestamped(t *testing.T) {
	so := newTestStorage(t)
	zipData := buildTestZip(t, map[string]string{"L001.csv": "a"})

	sf, err := so.SaveOriginalZip("PGM_1", "export.zip", zipData, 1)
	if err != nil {
		t.Fatalf("SaveOriginalZip: %v", err)
	}
	if !strings.HasPrefix(sf.FileName, "export_") || !strings.HasSuffix(sf.FileName, ".zip") {
		t.Fatalf("want timestamped name, got %s", sf.FileName)
	}
	if _, err := os.Stat(sf.Path); err != nil {
		t.Fatalf("archive not on disk: %v", err)
	}
}

func TestSaveTemplateFileTimestamped(t *testing.T) {
	so := newTestStorage(t)

	sf, err := so.SaveTemplateFile("PGM_1", "manifest.xlsx", []byte("xlsx"))
	if err != nil {
		t.Fatalf("SaveTemplateFile: %v", err)
	}
	if !strings.HasPrefix(sf.FileName, "manifest_") || !strings.HasSuffix(sf.FileName, ".xlsx") {
		t.Fatalf("want timestamped name, got %s", sf.FileName)
	}
	if _, err := os.Stat(sf.Path); err != nil {
		t.Fatalf("manifest not on disk: %v", err)
	}
}

func TestDeleteProgramFilesIdempotent(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.UploadBasePath = t.TempDir()
	so := NewStorageOperator(cfg, testLog(t))

	zipData := buildTestZip(t, map[string]string{"L001.csv": "a"})
	if _, err := so.ExtractLadderFiles(context.Background(), "PGM_9", zipData); err != nil {
		t.Fatalf("ExtractLadderFiles: %v", err)
	}

	so.DeleteProgramFiles("PGM_9")
	if _, err := os.Stat(cfg.ProgramUploadDir("PGM_9")); !os.IsNotExist(err) {
		t.Fatalf("upload dir still present: %v", err)
	}
	// Second delete on an absent dir must stay silent.
	so.DeleteProgramFiles("PGM_9")
}

func TestDeleteFilesIgnoresMissing(t *testing.T) {
	so := newTestStorage(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "keepsake.csv")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	so.DeleteFiles([]string{path, filepath.Join(dir, "missing.csv"), ""})
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("file not removed: %v", err)
	}
}
