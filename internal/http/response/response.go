package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	types "github.com/plcworks/plchub-backend/internal/domain"
)

type APIError struct {
	Message string   `json:"message"`
	Code    string   `json:"code,omitempty"`
	Items   []string `json:"items,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondDomainError maps domain errors to HTTP statuses: validation
// failures are 400 or 422, not-found sentinels 404, conflicts 409,
// anything else 500.
func RespondDomainError(c *gin.Context, err error) {
	var verr *types.ValidationError
	if errors.As(err, &verr) {
		status := http.StatusBadRequest
		switch verr.Code {
		case types.ValidationCodeMissingFiles,
			types.ValidationCodeCSVStructure,
			types.ValidationCodeDuplicateLogicID,
			types.ValidationCodeMissingColumns:
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, ErrorEnvelope{
			Error: APIError{
				Message: verr.Msg,
				Code:    verr.Code,
				Items:   verr.Items,
			},
		})
		return
	}

	switch {
	case errors.Is(err, types.ErrProgramNotFound):
		RespondError(c, http.StatusNotFound, "program_not_found", err)
	case errors.Is(err, types.ErrPLCNotFound):
		RespondError(c, http.StatusNotFound, "plc_not_found", err)
	case errors.Is(err, types.ErrTemplateNotFound):
		RespondError(c, http.StatusNotFound, "template_not_found", err)
	case errors.Is(err, types.ErrNoProgramMapped):
		RespondError(c, http.StatusNotFound, "no_program_mapped", err)
	case errors.Is(err, types.ErrProgramAlreadyExists):
		RespondError(c, http.StatusConflict, "program_already_exists", err)
	case errors.Is(err, types.ErrPLCAlreadyExists):
		RespondError(c, http.StatusConflict, "plc_already_exists", err)
	case errors.Is(err, types.ErrPLCDeleted):
		RespondError(c, http.StatusConflict, "plc_deleted", err)
	default:
		RespondError(c, http.StatusInternalServerError, "internal_error", err)
	}
}
