package handlers

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/plcworks/plchub-backend/internal/http/response"
	"github.com/plcworks/plchub-backend/internal/platform/dbctx"
	"github.com/plcworks/plchub-backend/internal/services"
)

type ProgramHandler struct {
	programs services.ProgramService
	upload   services.UploadOrchestrator
	plcs     services.PLCService
}

func NewProgramHandler(programs services.ProgramService, upload services.UploadOrchestrator, plcs services.PLCService) *ProgramHandler {
	return &ProgramHandler{programs: programs, upload: upload, plcs: plcs}
}

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func optField(c *gin.Context, name string) *string {
	v := strings.TrimSpace(c.PostForm(name))
	if v == "" {
		return nil
	}
	return &v
}

func queryInt(c *gin.Context, name string, def int) int {
	if v := strings.TrimSpace(c.Query(name)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// POST /api/programs/upload (multipart)
func (h *ProgramHandler) Upload(c *gin.Context) {
	ladderFH, err := c.FormFile("ladder_zip_file")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	templateFH, err := c.FormFile("template_file")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	ladderData, err := readFormFile(ladderFH)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	templateData, err := readFormFile(templateFH)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	req := services.UploadRequest{
		PgmName:       strings.TrimSpace(c.PostForm("pgm_name")),
		PgmVersion:    optField(c, "pgm_version"),
		Description:   optField(c, "description"),
		Notes:         optField(c, "notes"),
		CreateUser:    strings.TrimSpace(c.PostForm("create_user")),
		LadderZipName: ladderFH.Filename,
		LadderZipData: ladderData,
		TemplateName:  templateFH.Filename,
		TemplateData:  templateData,
	}

	dbc := dbctx.Context{Ctx: c.Request.Context()}
	result, err := h.upload.Upload(dbc, req)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// GET /api/programs?search=&version=&page=&size=
func (h *ProgramHandler) List(c *gin.Context) {
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	programs, total, err := h.programs.List(dbc,
		strings.TrimSpace(c.Query("search")),
		strings.TrimSpace(c.Query("version")),
		queryInt(c, "page", 1),
		queryInt(c, "size", 50))
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"programs": programs, "total": total})
}

// GET /api/programs/next-id
func (h *ProgramHandler) PreviewNextID(c *gin.Context) {
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	id, err := h.programs.PreviewNextID(dbc)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"next_pgm_id": id})
}

// GET /api/programs/:id
func (h *ProgramHandler) Get(c *gin.Context) {
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	program, err := h.programs.Get(dbc, c.Param("id"))
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"program": program})
}

type updateProgramReq struct {
	PgmName     *string `json:"pgm_name"`
	PgmVersion  *string `json:"pgm_version"`
	Description *string `json:"description"`
	Notes       *string `json:"notes"`
	UpdateUser  string  `json:"update_user"`
}

// PUT /api/programs/:id
func (h *ProgramHandler) Update(c *gin.Context) {
	var req updateProgramReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	program, err := h.programs.Update(dbc, c.Param("id"), services.ProgramUpdate{
		PgmName:     req.PgmName,
		PgmVersion:  req.PgmVersion,
		Description: req.Description,
		Notes:       req.Notes,
		UpdateUser:  req.UpdateUser,
	})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"program": program})
}

// DELETE /api/programs/:id
func (h *ProgramHandler) Delete(c *gin.Context) {
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	if err := h.programs.Delete(dbc, c.Param("id")); err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"deleted": true})
}

// GET /api/programs/:id/plcs
func (h *ProgramHandler) MappedPLCs(c *gin.Context) {
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	plcs, err := h.plcs.ListByProgram(dbc, c.Param("id"))
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"plcs": plcs, "total": len(plcs)})
}
