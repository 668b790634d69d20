package config

import (
	"testing"

	"github.com/plcworks/plchub-backend/internal/platform/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

func TestLoadEmbeddedDefaults(t *testing.T) {
	cfg, err := Load(testLogger(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.LadderZip.MaxSizeBytes != 104857600 {
		t.Fatalf("ladder zip max size: want=104857600 got=%d", cfg.LadderZip.MaxSizeBytes)
	}
	if len(cfg.Template.RequiredColumns) != 6 {
		t.Fatalf("template required columns: want=6 got=%d", len(cfg.Template.RequiredColumns))
	}
	if cfg.Template.LogicIDColumn != "Logic ID" {
		t.Fatalf("logic id column: want=%q got=%q", "Logic ID", cfg.Template.LogicIDColumn)
	}
	if !cfg.Storage.KeepOriginalZip {
		t.Fatalf("keep original zip: want=true got=false")
	}
	if cfg.Mapping.BulkMaxIDs != 100 {
		t.Fatalf("bulk max ids: want=100 got=%d", cfg.Mapping.BulkMaxIDs)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PGM_LADDER_ZIP_MAX_SIZE", "1024")
	t.Setenv("PGM_KEEP_ORIGINAL_ZIP", "false")
	t.Setenv("PGM_UPLOAD_BASE_PATH", "/data/uploads")
	t.Setenv("PGM_BULK_MAPPING_MAX_IDS", "10")

	cfg, err := Load(testLogger(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LadderZip.MaxSizeBytes != 1024 {
		t.Fatalf("ladder zip max size: want=1024 got=%d", cfg.LadderZip.MaxSizeBytes)
	}
	if cfg.Storage.KeepOriginalZip {
		t.Fatalf("keep original zip: want=false got=true")
	}
	if cfg.Mapping.BulkMaxIDs != 10 {
		t.Fatalf("bulk max ids: want=10 got=%d", cfg.Mapping.BulkMaxIDs)
	}
	if got := cfg.LadderFilesDir("PGM_7"); got != "/data/uploads/PGM_7/ladder" {
		t.Fatalf("ladder dir: want=%q got=%q", "/data/uploads/PGM_7/ladder", got)
	}
}
