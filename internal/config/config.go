// Package config loads the upload validation profile: embedded defaults,
// then an optional site profile file, then environment overrides.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/plcworks/plchub-backend/internal/platform/logger"
	"github.com/plcworks/plchub-backend/internal/utils"
)

//go:embed profile.yaml
var defaultProfile []byte

type LadderZipConfig struct {
	AllowedExtensions []string `yaml:"allowed_extensions"`
	MaxSizeBytes      int64    `yaml:"max_size_bytes"`
}

type TemplateConfig struct {
	AllowedExtensions []string `yaml:"allowed_extensions"`
	MaxSizeBytes      int64    `yaml:"max_size_bytes"`
	RequiredColumns   []string `yaml:"required_columns"`
	LogicIDColumn     string   `yaml:"logic_id_column"`
}

type LadderCSVConfig struct {
	StructureValidationEnabled bool     `yaml:"structure_validation_enabled"`
	ValidateFileIdentifier     bool     `yaml:"validate_file_identifier"`
	ValidateModuleInfo         bool     `yaml:"validate_module_info"`
	ModuleInfoPrefix           string   `yaml:"module_info_prefix"`
	RequiredColumns            []string `yaml:"required_columns"`
	HeaderRow                  int      `yaml:"header_row"`
	MinDataRows                int      `yaml:"min_data_rows"`
	Encoding                   string   `yaml:"encoding"`
}

type StorageConfig struct {
	KeepOriginalZip bool   `yaml:"keep_original_zip"`
	UploadBasePath  string `yaml:"upload_base_path"`
	LadderDirName   string `yaml:"ladder_dir_name"`
	TemplateDirName string `yaml:"template_dir_name"`
	ZipDirName      string `yaml:"zip_dir_name"`
}

type MappingConfig struct {
	BulkMaxIDs int `yaml:"bulk_max_ids"`
}

type Config struct {
	LadderZip LadderZipConfig `yaml:"ladder_zip"`
	Template  TemplateConfig  `yaml:"template"`
	LadderCSV LadderCSVConfig `yaml:"ladder_csv"`
	Storage   StorageConfig   `yaml:"storage"`
	Mapping   MappingConfig   `yaml:"mapping"`
}

// Load builds the effective configuration. A site profile named by
// PGM_VALIDATION_PROFILE is layered over the embedded defaults before
// environment overrides are applied.
func Load(log *logger.Logger) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultProfile, cfg); err != nil {
		return nil, fmt.Errorf("parse embedded profile: %w", err)
	}

	if path := os.Getenv("PGM_VALIDATION_PROFILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read validation profile %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse validation profile %s: %w", path, err)
		}
		if log != nil {
			log.Info("Loaded site validation profile", "path", path)
		}
	}

	cfg.applyEnv(log)
	return cfg, nil
}

func (c *Config) applyEnv(log *logger.Logger) {
	c.LadderZip.MaxSizeBytes = utils.GetEnvAsInt64("PGM_LADDER_ZIP_MAX_SIZE", c.LadderZip.MaxSizeBytes, log)
	c.Template.MaxSizeBytes = utils.GetEnvAsInt64("PGM_TEMPLATE_MAX_SIZE", c.Template.MaxSizeBytes, log)
	c.LadderCSV.StructureValidationEnabled = utils.GetEnvAsBool("PGM_LADDER_CSV_VALIDATION_ENABLED", c.LadderCSV.StructureValidationEnabled, log)
	c.LadderCSV.ValidateFileIdentifier = utils.GetEnvAsBool("PGM_LADDER_CSV_VALIDATE_FILE_IDENTIFIER", c.LadderCSV.ValidateFileIdentifier, log)
	c.LadderCSV.ValidateModuleInfo = utils.GetEnvAsBool("PGM_LADDER_CSV_VALIDATE_MODULE_INFO", c.LadderCSV.ValidateModuleInfo, log)
	c.LadderCSV.ModuleInfoPrefix = utils.GetEnv("PGM_LADDER_CSV_MODULE_INFO_PREFIX", c.LadderCSV.ModuleInfoPrefix, log)
	c.LadderCSV.HeaderRow = utils.GetEnvAsInt("PGM_LADDER_CSV_HEADER_ROW", c.LadderCSV.HeaderRow, log)
	c.LadderCSV.MinDataRows = utils.GetEnvAsInt("PGM_LADDER_CSV_MIN_DATA_ROWS", c.LadderCSV.MinDataRows, log)
	c.LadderCSV.Encoding = utils.GetEnv("PGM_LADDER_CSV_ENCODING", c.LadderCSV.Encoding, log)
	c.Storage.KeepOriginalZip = utils.GetEnvAsBool("PGM_KEEP_ORIGINAL_ZIP", c.Storage.KeepOriginalZip, log)
	c.Storage.UploadBasePath = utils.GetEnv("PGM_UPLOAD_BASE_PATH", c.Storage.UploadBasePath, log)
	c.Mapping.BulkMaxIDs = utils.GetEnvAsInt("PGM_BULK_MAPPING_MAX_IDS", c.Mapping.BulkMaxIDs, log)
}

// ProgramUploadDir is the directory owned by one program's stored files.
func (c *Config) ProgramUploadDir(pgmID string) string {
	return filepath.Join(c.Storage.UploadBasePath, pgmID)
}

func (c *Config) LadderFilesDir(pgmID string) string {
	return filepath.Join(c.ProgramUploadDir(pgmID), c.Storage.LadderDirName)
}

func (c *Config) TemplateFileDir(pgmID string) string {
	return filepath.Join(c.ProgramUploadDir(pgmID), c.Storage.TemplateDirName)
}

func (c *Config) ZipFileDir(pgmID string) string {
	return filepath.Join(c.ProgramUploadDir(pgmID), c.Storage.ZipDirName)
}
