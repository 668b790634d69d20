package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/plcworks/plchub-backend/internal/http/response"
	"github.com/plcworks/plchub-backend/internal/platform/dbctx"
	"github.com/plcworks/plchub-backend/internal/services"
)

type TemplateHandler struct {
	templates services.TemplateService
}

func NewTemplateHandler(templates services.TemplateService) *TemplateHandler {
	return &TemplateHandler{templates: templates}
}

// GET /api/programs/:id/template
func (h *TemplateHandler) List(c *gin.Context) {
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	rows, err := h.templates.List(dbc, c.Param("id"))
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"templates": rows, "total": len(rows)})
}

// GET /api/programs/:id/template/search?keyword=
func (h *TemplateHandler) Search(c *gin.Context) {
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	rows, err := h.templates.Search(dbc, c.Param("id"), strings.TrimSpace(c.Query("keyword")))
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"templates": rows, "total": len(rows)})
}

// GET /api/programs/:id/template/tree
func (h *TemplateHandler) Tree(c *gin.Context) {
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	tree, err := h.templates.Tree(dbc, c.Param("id"))
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, tree)
}

// GET /api/templates/summary
func (h *TemplateHandler) Summaries(c *gin.Context) {
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	summaries, err := h.templates.Summaries(dbc)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"summaries": summaries})
}

// DELETE /api/programs/:id/template
func (h *TemplateHandler) Delete(c *gin.Context) {
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	deleted, err := h.templates.Delete(dbc, c.Param("id"))
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"deleted_rows": deleted})
}
