package services

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"golang.org/x/text/encoding/korean"

	types "github.com/plcworks/plchub-backend/internal/domain"
)

func newTestEngine(t *testing.T) ValidationEngine {
	t.Helper()
	return NewValidationEngine(testConfig(t), testLog(t))
}

func wantValidationCode(t *testing.T, err error, code string) *types.ValidationError {
	t.Helper()
	if err == nil {
		t.Fatalf("want validation error %s, got nil", code)
	}
	var verr *types.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("want *types.ValidationError, got %T: %v", err, err)
	}
	if verr.Code != code {
		t.Fatalf("want code=%s got=%s (%v)", code, verr.Code, verr)
	}
	return verr
}

func TestCheckLadderZipUpload(t *testing.T) {
	ve := newTestEngine(t)

	if err := ve.CheckLadderZipUpload("export.zip", 1024); err != nil {
		t.Fatalf("valid archive rejected: %v", err)
	}
	if err := ve.CheckLadderZipUpload("EXPORT.ZIP", 1024); err != nil {
		t.Fatalf("case-insensitive extension rejected: %v", err)
	}
	wantValidationCode(t, ve.CheckLadderZipUpload("export.rar", 1024), types.ValidationCodeInvalidFileType)
	wantValidationCode(t, ve.CheckLadderZipUpload("", 1024), types.ValidationCodeInvalidFileType)
	wantValidationCode(t, ve.CheckLadderZipUpload("export.zip", 104857601), types.ValidationCodeFileTooLarge)
}

func TestCheckTemplateUpload(t *testing.T) {
	ve := newTestEngine(t)

	if err := ve.CheckTemplateUpload("manifest.xlsx", 1024); err != nil {
		t.Fatalf("valid manifest rejected: %v", err)
	}
	wantValidationCode(t, ve.CheckTemplateUpload("manifest.csv", 1024), types.ValidationCodeInvalidFileType)
	wantValidationCode(t, ve.CheckTemplateUpload("manifest.xlsx", 10485761), types.ValidationCodeFileTooLarge)
}

func TestValidateManifestExtractsRows(t *testing.T) {
	ve := newTestEngine(t)
	data := buildManifest(t, manifestHeader, [][]string{
		{"PGM_1", "F1", "Main", "Conveyor", "L001", "Start Logic"},
		{"PGM_1", "F1", "Main", "", "", ""},
		{"PGM_1", "F2", "Safety", "", "L002", "E-Stop"},
	})

	result, err := ve.ValidateManifest(data)
	if err != nil {
		t.Fatalf("ValidateManifest: %v", err)
	}
	if result.RowCount != 2 {
		t.Fatalf("want RowCount=2 got=%d", result.RowCount)
	}
	if want := []string{"L001", "L002"}; !reflect.DeepEqual(result.LogicIDs, want) {
		t.Fatalf("want LogicIDs=%v got=%v", want, result.LogicIDs)
	}
	if result.Rows[0].SubFolderName != "Conveyor" || result.Rows[1].FolderName != "Safety" {
		t.Fatalf("row fields not mapped: %+v", result.Rows)
	}
}

func TestValidateManifestMissingColumns(t *testing.T) {
	ve := newTestEngine(t)
	data := buildManifest(t, []string{"PGM ID", "Folder ID", "Logic Name"}, [][]string{
		{"PGM_1", "F1", "Start Logic"},
	})

	_, err := ve.ValidateManifest(data)
	verr := wantValidationCode(t, err, types.ValidationCodeMissingColumns)
	want := []string{"Folder Name", "Sub Folder Name", "Logic ID"}
	if !reflect.DeepEqual(verr.Items, want) {
		t.Fatalf("want missing=%v got=%v", want, verr.Items)
	}
}

func TestValidateManifestDuplicateLogicIDs(t *testing.T) {
	ve := newTestEngine(t)
	data := buildManifest(t, manifestHeader, [][]string{
		{"PGM_1", "F1", "Main", "", "L001", "A"},
		{"PGM_1", "F1", "Main", "", "L002", "B"},
		{"PGM_1", "F1", "Main", "", "L001", "C"},
		{"PGM_1", "F1", "Main", "", "L002", "D"},
	})

	_, err := ve.ValidateManifest(data)
	verr := wantValidationCode(t, err, types.ValidationCodeDuplicateLogicID)
	if want := []string{"L001", "L002"}; !reflect.DeepEqual(verr.Items, want) {
		t.Fatalf("want duplicates=%v got=%v", want, verr.Items)
	}
	if !strings.Contains(verr.Msg, "2 duplicated") {
		t.Fatalf("want duplicate count in message, got %q", verr.Msg)
	}
}

func TestValidateManifestEmpty(t *testing.T) {
	ve := newTestEngine(t)
	data := buildManifest(t, manifestHeader, nil)

	_, err := ve.ValidateManifest(data)
	wantValidationCode(t, err, types.ValidationCodeInvalidFormat)
}

func TestValidateArchiveRejectsGarbage(t *testing.T) {
	ve := newTestEngine(t)

	_, err := ve.ValidateArchive([]byte("not a zip"))
	wantValidationCode(t, err, types.ValidationCodeInvalidFormat)
}

func TestMatchFiles(t *testing.T) {
	ve := newTestEngine(t)

	result, err := ve.MatchFiles(
		[]string{"L001", "L002", "L003"},
		[]string{"L003", "L001", "readme"},
	)
	verr := wantValidationCode(t, err, types.ValidationCodeMissingFiles)
	if want := []string{"L002"}; !reflect.DeepEqual(verr.Items, want) {
		t.Fatalf("want missing=%v got=%v", want, verr.Items)
	}
	if result == nil || result.ValidationPassed {
		t.Fatalf("want failed result, got %+v", result)
	}
	if want := []string{"L001", "L003"}; !reflect.DeepEqual(result.MatchedFiles, want) {
		t.Fatalf("want matched=%v got=%v", want, result.MatchedFiles)
	}
	if want := []string{"readme"}; !reflect.DeepEqual(result.ExtraFiles, want) {
		t.Fatalf("want extra=%v got=%v", want, result.ExtraFiles)
	}

	result, err = ve.MatchFiles([]string{"L001"}, []string{"L001", "extra"})
	if err != nil {
		t.Fatalf("complete archive rejected: %v", err)
	}
	if !result.ValidationPassed {
		t.Fatalf("want ValidationPassed=true got=%+v", result)
	}
}

func TestValidateLadderCSVsCollectsFailures(t *testing.T) {
	ve := newTestEngine(t)
	zipData := buildTestZip(t, map[string]string{
		"export/L001.csv": ladderCSV(2),
		"export/L002.csv": "EXPORT,v1\nMODULE,CPU01\nStep,Comment\n1,LD\n",
		"export/L003.csv": "EXPORT,v1\n",
	})

	err := ve.ValidateLadderCSVs(zipData, []string{"L001", "L002", "L003"})
	verr := wantValidationCode(t, err, types.ValidationCodeCSVStructure)
	if len(verr.Items) != 2 {
		t.Fatalf("want 2 failures got=%v", verr.Items)
	}
	if !strings.HasPrefix(verr.Items[0], "L002.csv") || !strings.HasPrefix(verr.Items[1], "L003.csv") {
		t.Fatalf("unexpected failure items: %v", verr.Items)
	}
}

func TestValidateLadderCSVsSkipsMissingEntry(t *testing.T) {
	ve := newTestEngine(t)
	zipData := buildTestZip(t, map[string]string{
		"export/L001.csv": ladderCSV(1),
	})

	// L404 is matched but absent from the archive; it is skipped with a
	// warning instead of failing the upload a second time.
	if err := ve.ValidateLadderCSVs(zipData, []string{"L001", "L404"}); err != nil {
		t.Fatalf("missing entry should be skipped: %v", err)
	}
}

func TestValidateLadderCSVsEUCKRFallback(t *testing.T) {
	ve := newTestEngine(t)

	encoded, err := korean.EUCKR.NewEncoder().Bytes([]byte("내보내기,v1\n모듈,CPU01\nStep,Instruction,Device\n1,LD,X0\n"))
	if err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	zipData := buildTestZip(t, map[string]string{"L001.csv": string(encoded)})

	if err := ve.ValidateLadderCSVs(zipData, []string{"L001"}); err != nil {
		t.Fatalf("EUC-KR ladder file rejected: %v", err)
	}
}

func TestValidateLadderCSVsFileIdentifier(t *testing.T) {
	cfg := testConfig(t)
	cfg.LadderCSV.ValidateFileIdentifier = true
	ve := NewValidationEngine(cfg, testLog(t))

	good := buildTestZip(t, map[string]string{"L001.csv": ladderCSV(1)})
	if err := ve.ValidateLadderCSVs(good, []string{"L001"}); err != nil {
		t.Fatalf("identifier line present but rejected: %v", err)
	}

	bad := buildTestZip(t, map[string]string{
		"L001.csv": "\nMODULE,CPU01\nStep,Instruction,Device\n1,LD,X0\n",
	})
	err := ve.ValidateLadderCSVs(bad, []string{"L001"})
	verr := wantValidationCode(t, err, types.ValidationCodeCSVStructure)
	if !strings.Contains(verr.Items[0], "file identifier") {
		t.Fatalf("want identifier failure got=%v", verr.Items)
	}
}

func TestValidateLadderCSVsModuleInfo(t *testing.T) {
	cfg := testConfig(t)
	cfg.LadderCSV.ValidateModuleInfo = true
	ve := NewValidationEngine(cfg, testLog(t))

	good := buildTestZip(t, map[string]string{"L001.csv": ladderCSV(1)})
	if err := ve.ValidateLadderCSVs(good, []string{"L001"}); err != nil {
		t.Fatalf("module info line present but rejected: %v", err)
	}

	bad := buildTestZip(t, map[string]string{
		"L001.csv": "EXPORT,v1\nWRONG_INFO,CPU01\nStep,Instruction,Device\n1,LD,X0\n",
	})
	err := ve.ValidateLadderCSVs(bad, []string{"L001"})
	verr := wantValidationCode(t, err, types.ValidationCodeCSVStructure)
	if !strings.Contains(verr.Items[0], "module info") {
		t.Fatalf("want module info failure got=%v", verr.Items)
	}

	// The checks read fixed line offsets, so a blank second line fails
	// even though the csv reader would have skipped it.
	blank := buildTestZip(t, map[string]string{
		"L001.csv": "EXPORT,v1\n\nMODULE,CPU01\nStep,Instruction,Device\n1,LD,X0\n",
	})
	if err := ve.ValidateLadderCSVs(blank, []string{"L001"}); err == nil {
		t.Fatalf("blank module info line accepted")
	}
}

func TestValidateLadderCSVsDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.LadderCSV.StructureValidationEnabled = false
	ve := NewValidationEngine(cfg, testLog(t))

	if err := ve.ValidateLadderCSVs([]byte("not a zip"), []string{"L001"}); err != nil {
		t.Fatalf("disabled validation should pass: %v", err)
	}
}
