package services

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/unicode"

	"github.com/plcworks/plchub-backend/internal/config"
	types "github.com/plcworks/plchub-backend/internal/domain"
	"github.com/plcworks/plchub-backend/internal/platform/logger"
	"github.com/plcworks/plchub-backend/internal/platform/xlsx"
	"github.com/plcworks/plchub-backend/internal/platform/ziputil"
)

// ManifestRow is one data row of the manifest spreadsheet, keyed by the
// required columns.
type ManifestRow struct {
	PgmID         string
	FolderID      string
	FolderName    string
	SubFolderName string
	LogicID       string
	LogicName     string
}

// ManifestResult is the outcome of manifest structure validation.
// LogicIDs is deduplicated only in the sense that duplicates are a hard
// failure, so it always holds distinct values in row order.
type ManifestResult struct {
	Columns  []string
	Rows     []ManifestRow
	LogicIDs []string
	RowCount int
}

// ValidationResult reports the set comparison between the manifest's
// required units and the archive's contents.
type ValidationResult struct {
	RequiredFiles    []string `json:"required_files"`
	ZipFiles         []string `json:"zip_files"`
	MatchedFiles     []string `json:"matched_files"`
	MissingFiles     []string `json:"missing_files"`
	ExtraFiles       []string `json:"extra_files"`
	ValidationPassed bool     `json:"validation_passed"`
}

// ValidationEngine runs every upload check that needs no storage or DB
// access. All methods operate on in-memory bytes and return
// *types.ValidationError for business-rule failures.
type ValidationEngine interface {
	CheckLadderZipUpload(filename string, size int64) error
	CheckTemplateUpload(filename string, size int64) error
	ValidateManifest(data []byte) (*ManifestResult, error)
	ValidateArchive(data []byte) ([]string, error)
	MatchFiles(required, actual []string) (*ValidationResult, error)
	ValidateLadderCSVs(zipData []byte, matchedFiles []string) error
}

type validationEngine struct {
	cfg *config.Config
	log *logger.Logger
}

func NewValidationEngine(cfg *config.Config, baseLog *logger.Logger) ValidationEngine {
	return &validationEngine{
		cfg: cfg,
		log: baseLog.With("service", "ValidationEngine"),
	}
}

func checkExtension(filename string, allowed []string) bool {
	lower := strings.ToLower(filename)
	for _, ext := range allowed {
		if strings.HasSuffix(lower, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}

func (ve *validationEngine) CheckLadderZipUpload(filename string, size int64) error {
	if filename == "" {
		return types.NewValidationError(types.ValidationCodeInvalidFileType, "ladder archive was not uploaded")
	}
	if !checkExtension(filename, ve.cfg.LadderZip.AllowedExtensions) {
		return types.NewValidationError(types.ValidationCodeInvalidFileType,
			fmt.Sprintf("ladder archive must be one of %s", strings.Join(ve.cfg.LadderZip.AllowedExtensions, ", ")),
			filename)
	}
	if size > ve.cfg.LadderZip.MaxSizeBytes {
		return types.NewValidationError(types.ValidationCodeFileTooLarge,
			fmt.Sprintf("ladder archive exceeds %d bytes", ve.cfg.LadderZip.MaxSizeBytes),
			filename)
	}
	return nil
}

func (ve *validationEngine) CheckTemplateUpload(filename string, size int64) error {
	if filename == "" {
		return types.NewValidationError(types.ValidationCodeInvalidFileType, "manifest file was not uploaded")
	}
	if !checkExtension(filename, ve.cfg.Template.AllowedExtensions) {
		return types.NewValidationError(types.ValidationCodeInvalidFileType,
			fmt.Sprintf("manifest file must be one of %s", strings.Join(ve.cfg.Template.AllowedExtensions, ", ")),
			filename)
	}
	if size > ve.cfg.Template.MaxSizeBytes {
		return types.NewValidationError(types.ValidationCodeFileTooLarge,
			fmt.Sprintf("manifest file exceeds %d bytes", ve.cfg.Template.MaxSizeBytes),
			filename)
	}
	return nil
}

// ValidateManifest checks the spreadsheet's header for the required
// columns, extracts its rows, and hard-fails on duplicate logic IDs.
func (ve *validationEngine) ValidateManifest(data []byte) (*ManifestResult, error) {
	rows, err := xlsx.Rows(data)
	if err != nil {
		return nil, types.NewValidationError(types.ValidationCodeInvalidFormat,
			fmt.Sprintf("manifest file could not be read: %v", err))
	}
	if len(rows) == 0 {
		return nil, types.NewValidationError(types.ValidationCodeInvalidFormat, "manifest file is empty")
	}

	header := rows[0]
	colIndex := map[string]int{}
	for i, name := range header {
		colIndex[strings.TrimSpace(name)] = i
	}

	var missing []string
	for _, col := range ve.cfg.Template.RequiredColumns {
		if _, ok := colIndex[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, types.NewValidationError(types.ValidationCodeMissingColumns,
			"manifest is missing required columns", missing...)
	}

	cell := func(row []string, col string) string {
		idx := colIndex[col]
		if idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	logicIDCol := ve.cfg.Template.LogicIDColumn
	result := &ManifestResult{Columns: header}
	seen := map[string]bool{}
	var duplicates []string
	dupSeen := map[string]bool{}

	for _, row := range rows[1:] {
		logicID := cell(row, logicIDCol)
		if logicID == "" {
			continue
		}
		result.RowCount++
		result.Rows = append(result.Rows, ManifestRow{
			PgmID:         cell(row, "PGM ID"),
			FolderID:      cell(row, "Folder ID"),
			FolderName:    cell(row, "Folder Name"),
			SubFolderName: cell(row, "Sub Folder Name"),
			LogicID:       logicID,
			LogicName:     cell(row, "Logic Name"),
		})
		if seen[logicID] {
			if !dupSeen[logicID] {
				duplicates = append(duplicates, logicID)
				dupSeen[logicID] = true
			}
			continue
		}
		seen[logicID] = true
		result.LogicIDs = append(result.LogicIDs, logicID)
	}

	if len(result.LogicIDs) == 0 {
		return nil, types.NewValidationError(types.ValidationCodeInvalidFormat,
			"manifest has no logic IDs")
	}
	if len(duplicates) > 0 {
		return nil, types.NewValidationError(types.ValidationCodeDuplicateLogicID,
			fmt.Sprintf("manifest contains %d duplicated logic IDs", len(duplicates)),
			duplicates...)
	}

	ve.log.Debug("manifest validated", "logic_ids", len(result.LogicIDs), "rows", result.RowCount)
	return result, nil
}

// ValidateArchive verifies the archive opens and every entry reads back
// cleanly, then returns the extension-stripped base names of its files.
// Directory entries and macOS resource forks are ignored.
func (ve *validationEngine) ValidateArchive(data []byte) ([]string, error) {
	names, err := ziputil.ListBaseNames(data)
	if err != nil {
		return nil, types.NewValidationError(types.ValidationCodeInvalidFormat,
			fmt.Sprintf("ladder archive could not be read: %v", err))
	}
	ve.log.Debug("archive validated", "files", len(names))
	return names, nil
}

// MatchFiles compares the manifest's required units against the archive
// contents as sets. Extra files are tolerated; missing files fail the
// upload with the full missing list.
func (ve *validationEngine) MatchFiles(required, actual []string) (*ValidationResult, error) {
	requiredSet := map[string]bool{}
	for _, f := range required {
		requiredSet[f] = true
	}
	actualSet := map[string]bool{}
	for _, f := range actual {
		actualSet[f] = true
	}

	var matched, missing, extra []string
	for f := range requiredSet {
		if actualSet[f] {
			matched = append(matched, f)
		} else {
			missing = append(missing, f)
		}
	}
	for f := range actualSet {
		if !requiredSet[f] {
			extra = append(extra, f)
		}
	}
	sort.Strings(matched)
	sort.Strings(missing)
	sort.Strings(extra)

	result := &ValidationResult{
		RequiredFiles:    required,
		ZipFiles:         actual,
		MatchedFiles:     matched,
		MissingFiles:     missing,
		ExtraFiles:       extra,
		ValidationPassed: len(missing) == 0,
	}
	if !result.ValidationPassed {
		return result, types.NewValidationError(types.ValidationCodeMissingFiles,
			fmt.Sprintf("%d required files are missing from the archive", len(missing)),
			missing...)
	}
	ve.log.Debug("file matching passed", "matched", len(matched), "extra", len(extra))
	return result, nil
}

// ValidateLadderCSVs checks the header structure of every matched file
// inside the archive. Failures are collected across all files and
// reported together; a matched name that cannot be located in the
// archive is skipped, since matching has already proven the set
// relationship.
func (ve *validationEngine) ValidateLadderCSVs(zipData []byte, matchedFiles []string) error {
	if !ve.cfg.LadderCSV.StructureValidationEnabled {
		return nil
	}

	var failures []string
	for _, name := range matchedFiles {
		raw, found, err := ziputil.ReadEntryBySuffix(zipData, name+".csv")
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s.csv (%v)", name, err))
			continue
		}
		if !found {
			ve.log.Warn("matched file not found in archive", "file", name+".csv")
			continue
		}
		if err := ve.checkCSVStructure(raw); err != nil {
			failures = append(failures, fmt.Sprintf("%s.csv (%v)", name, err))
		}
	}

	if len(failures) > 0 {
		return types.NewValidationError(types.ValidationCodeCSVStructure,
			fmt.Sprintf("%d ladder files failed structure validation", len(failures)),
			failures...)
	}
	return nil
}

func (ve *validationEngine) checkCSVStructure(raw []byte) error {
	text, err := ve.decodeCSV(raw)
	if err != nil {
		return err
	}

	// Identifier and module-info checks work on raw lines. The csv
	// reader skips blank lines, which would shift these fixed offsets.
	if ve.cfg.LadderCSV.ValidateFileIdentifier || ve.cfg.LadderCSV.ValidateModuleInfo {
		lines := strings.Split(text, "\n")
		if ve.cfg.LadderCSV.ValidateFileIdentifier {
			if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
				return fmt.Errorf("file identifier line is empty")
			}
		}
		if ve.cfg.LadderCSV.ValidateModuleInfo {
			prefix := ve.cfg.LadderCSV.ModuleInfoPrefix
			if len(lines) < 2 || !strings.HasPrefix(strings.TrimSpace(lines[1]), prefix) {
				return fmt.Errorf("module info line does not start with %q", prefix)
			}
		}
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1

	headerRow := ve.cfg.LadderCSV.HeaderRow
	var header []string
	rowIdx := 0
	dataRows := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("row %d unreadable: %w", rowIdx, err)
		}
		if rowIdx == headerRow {
			header = record
		} else if rowIdx > headerRow {
			dataRows++
		}
		rowIdx++
	}
	if header == nil {
		return fmt.Errorf("header row %d not present", headerRow)
	}

	present := map[string]bool{}
	for _, col := range header {
		present[strings.TrimSpace(col)] = true
	}
	var missing []string
	for _, col := range ve.cfg.LadderCSV.RequiredColumns {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}
	if dataRows < ve.cfg.LadderCSV.MinDataRows {
		return fmt.Errorf("only %d data rows, need at least %d", dataRows, ve.cfg.LadderCSV.MinDataRows)
	}
	return nil
}

// decodeCSV decodes with the configured encoding and falls back to
// EUC-KR when the bytes are not valid UTF-8. Ladder exports from older
// engineering tools commonly ship in the legacy codepage.
func (ve *validationEngine) decodeCSV(raw []byte) (string, error) {
	enc := csvEncoding(ve.cfg.LadderCSV.Encoding)
	if enc == nil {
		if utf8.Valid(raw) {
			return string(raw), nil
		}
		enc = korean.EUCKR
	}
	decoded, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("decode failed: %w", err)
	}
	return string(decoded), nil
}

func csvEncoding(name string) encoding.Encoding {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return nil
	case "utf-16", "utf16":
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)
	case "euc-kr", "euckr", "cp949":
		return korean.EUCKR
	default:
		return nil
	}
}
