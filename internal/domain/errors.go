package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Not-found and conflict conditions surfaced to callers verbatim.
var (
	ErrProgramNotFound      = errors.New("program not found")
	ErrProgramAlreadyExists = errors.New("program already exists")
	ErrPLCNotFound          = errors.New("plc not found")
	ErrPLCAlreadyExists     = errors.New("plc already exists")
	ErrPLCDeleted           = errors.New("plc is deleted; restore it instead")
	ErrNoProgramMapped      = errors.New("no program mapped")
	ErrTemplateNotFound     = errors.New("template not found")
)

// ValidationError is a business-rule or request-shape failure. It is
// raised before any storage or DB write and always names the offending
// files, columns or devices so the caller can fix and resubmit.
type ValidationError struct {
	Code  string
	Msg   string
	Items []string
}

func (e *ValidationError) Error() string {
	if len(e.Items) == 0 {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Msg, strings.Join(e.Items, ", "))
}

func NewValidationError(code, msg string, items ...string) *ValidationError {
	return &ValidationError{Code: code, Msg: msg, Items: items}
}

// Validation error codes.
const (
	ValidationCodeInvalidFileType  = "invalid_file_type"
	ValidationCodeFileTooLarge     = "file_too_large"
	ValidationCodeInvalidFormat    = "invalid_data_format"
	ValidationCodeMissingColumns   = "required_columns_missing"
	ValidationCodeDuplicateLogicID = "duplicate_logic_ids"
	ValidationCodeMissingFiles     = "required_files_missing"
	ValidationCodeCSVStructure     = "csv_structure_invalid"
	ValidationCodeBadRequest       = "invalid_request"
)
