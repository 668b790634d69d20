package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	types "github.com/plcworks/plchub-backend/internal/domain"
	"github.com/plcworks/plchub-backend/internal/http/response"
	"github.com/plcworks/plchub-backend/internal/platform/dbctx"
	"github.com/plcworks/plchub-backend/internal/services"
)

type PLCHandler struct {
	plcs services.PLCService
}

func NewPLCHandler(plcs services.PLCService) *PLCHandler {
	return &PLCHandler{plcs: plcs}
}

func filterFromQuery(c *gin.Context) types.PLCFilter {
	filter := types.PLCFilter{
		Plant:          strings.TrimSpace(c.Query("plant")),
		Process:        strings.TrimSpace(c.Query("process")),
		Line:           strings.TrimSpace(c.Query("line")),
		EquipmentGroup: strings.TrimSpace(c.Query("equipment_group")),
		Unit:           strings.TrimSpace(c.Query("unit")),
	}
	switch strings.ToLower(strings.TrimSpace(c.Query("is_active"))) {
	case "", "true":
		active := true
		filter.IsActive = &active
	case "false":
		active := false
		filter.IsActive = &active
	case "all":
	}
	return filter
}

type createPLCReq struct {
	PlcID          string `json:"plc_id" binding:"required"`
	Plant          string `json:"plant" binding:"required"`
	Process        string `json:"process" binding:"required"`
	Line           string `json:"line" binding:"required"`
	EquipmentGroup string `json:"equipment_group" binding:"required"`
	Unit           string `json:"unit" binding:"required"`
	PlcName        string `json:"plc_name" binding:"required"`
	CreateUser     string `json:"create_user"`
}

// POST /api/plc
func (h *PLCHandler) Create(c *gin.Context) {
	var req createPLCReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	plc := &types.PLC{
		PlcID:          req.PlcID,
		Plant:          req.Plant,
		Process:        req.Process,
		Line:           req.Line,
		EquipmentGroup: req.EquipmentGroup,
		Unit:           req.Unit,
		PlcName:        req.PlcName,
	}
	if req.CreateUser != "" {
		plc.CreateUser = &req.CreateUser
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	created, err := h.plcs.Create(dbc, plc)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"plc": created})
}

// GET /api/plc/:id?include_deleted=false
func (h *PLCHandler) Get(c *gin.Context) {
	includeDeleted := strings.EqualFold(c.Query("include_deleted"), "true")
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	plc, err := h.plcs.Get(dbc, c.Param("id"), includeDeleted)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"plc": plc})
}

// GET /api/plcs
func (h *PLCHandler) List(c *gin.Context) {
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	plcs, total, err := h.plcs.List(dbc, filterFromQuery(c), queryInt(c, "page", 1), queryInt(c, "size", 100))
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"plcs": plcs, "total": total})
}

type updatePLCReq struct {
	Plant          *string `json:"plant"`
	Process        *string `json:"process"`
	Line           *string `json:"line"`
	EquipmentGroup *string `json:"equipment_group"`
	Unit           *string `json:"unit"`
	PlcName        *string `json:"plc_name"`
	UpdateUser     string  `json:"update_user"`
}

// PUT /api/plc/:id
func (h *PLCHandler) Update(c *gin.Context) {
	var req updatePLCReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	plc, err := h.plcs.Update(dbc, c.Param("id"), services.PLCUpdate{
		Plant:          req.Plant,
		Process:        req.Process,
		Line:           req.Line,
		EquipmentGroup: req.EquipmentGroup,
		Unit:           req.Unit,
		PlcName:        req.PlcName,
		UpdateUser:     req.UpdateUser,
	})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"plc": plc})
}

// DELETE /api/plc/:id?user=
func (h *PLCHandler) Delete(c *gin.Context) {
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	if err := h.plcs.Delete(dbc, c.Param("id"), strings.TrimSpace(c.Query("user"))); err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"deleted": true})
}

// POST /api/plc/:id/restore?user=
func (h *PLCHandler) Restore(c *gin.Context) {
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	if err := h.plcs.Restore(dbc, c.Param("id"), strings.TrimSpace(c.Query("user"))); err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"restored": true})
}

// GET /api/plc/:id/exists
func (h *PLCHandler) Exists(c *gin.Context) {
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	exists, err := h.plcs.Exists(dbc, c.Param("id"))
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"plc_id": c.Param("id"), "exists": exists})
}

// GET /api/plcs/search/keyword?keyword=&limit=
func (h *PLCHandler) Search(c *gin.Context) {
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	plcs, err := h.plcs.Search(dbc, strings.TrimSpace(c.Query("keyword")), queryInt(c, "limit", 100))
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"plcs": plcs, "total": len(plcs)})
}

// GET /api/plcs/count/summary
func (h *PLCHandler) CountSummary(c *gin.Context) {
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	summary, err := h.plcs.CountSummary(dbc)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, summary)
}

// GET /api/plcs/hierarchy/values?level=plant&plant=&process=&line=&equipment_group=
func (h *PLCHandler) HierarchyValues(c *gin.Context) {
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	values, err := h.plcs.HierarchyValues(dbc, strings.TrimSpace(c.Query("level")), filterFromQuery(c))
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"level": c.Query("level"), "values": values})
}

// GET /api/plcs/tree
func (h *PLCHandler) Tree(c *gin.Context) {
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	tree, err := h.plcs.Tree(dbc, filterFromQuery(c))
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"tree": tree})
}

// GET /api/plcs/unmapped/list
func (h *PLCHandler) Unmapped(c *gin.Context) {
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	plcs, err := h.plcs.ListUnmapped(dbc)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"plcs": plcs, "total": len(plcs)})
}

type mapProgramReq struct {
	PgmID string  `json:"pgm_id" binding:"required"`
	User  string  `json:"user" binding:"required"`
	Notes *string `json:"notes"`
}

// POST /api/plc/:id/mapping
func (h *PLCHandler) MapProgram(c *gin.Context) {
	var req mapProgramReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	plc, err := h.plcs.MapProgram(dbc, c.Param("id"), req.PgmID, req.User, req.Notes)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"plc": plc})
}

// DELETE /api/plc/:id/mapping?user=
func (h *PLCHandler) UnmapProgram(c *gin.Context) {
	user := strings.TrimSpace(c.Query("user"))
	if user == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", types.NewValidationError(types.ValidationCodeBadRequest, "user is required"))
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	plc, err := h.plcs.UnmapProgram(dbc, c.Param("id"), user, nil)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"plc": plc})
}

// GET /api/plc/:id/mapping/history?page=&size=
func (h *PLCHandler) MappingHistory(c *gin.Context) {
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	rows, total, err := h.plcs.MappingHistory(dbc, c.Param("id"), queryInt(c, "page", 1), queryInt(c, "size", 100))
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"history": rows, "total": total})
}

type bulkMapReq struct {
	PlcIDs          []string `json:"plc_ids" binding:"required"`
	PgmID           string   `json:"pgm_id" binding:"required"`
	User            string   `json:"user" binding:"required"`
	Notes           *string  `json:"notes"`
	RollbackOnError bool     `json:"rollback_on_error"`
}

// POST /api/plcs/mapping/bulk
func (h *PLCHandler) BulkMap(c *gin.Context) {
	var req bulkMapReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	result, err := h.plcs.BulkMap(dbc, req.PlcIDs, req.PgmID, req.User, req.Notes, req.RollbackOnError)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, result)
}

type bulkUnmapReq struct {
	PlcIDs          []string `json:"plc_ids" binding:"required"`
	User            string   `json:"user" binding:"required"`
	Notes           *string  `json:"notes"`
	RollbackOnError bool     `json:"rollback_on_error"`
}

// DELETE /api/plcs/mapping/bulk
func (h *PLCHandler) BulkUnmap(c *gin.Context) {
	var req bulkUnmapReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	result, err := h.plcs.BulkUnmap(dbc, req.PlcIDs, req.User, req.Notes, req.RollbackOnError)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, result)
}

type bulkReassignReq struct {
	PlcIDs          []string `json:"plc_ids" binding:"required"`
	NewPgmID        string   `json:"new_pgm_id" binding:"required"`
	User            string   `json:"user" binding:"required"`
	Notes           *string  `json:"notes"`
	RollbackOnError bool     `json:"rollback_on_error"`
}

// PUT /api/plcs/mapping/bulk
func (h *PLCHandler) BulkReassign(c *gin.Context) {
	var req bulkReassignReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	result, err := h.plcs.BulkReassign(dbc, req.PlcIDs, req.NewPgmID, req.User, req.Notes, req.RollbackOnError)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, result)
}
