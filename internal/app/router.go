package app

import (
	"os"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func wireRouter(h Handlers) *gin.Engine {
	router := gin.Default()

	origins := []string{
		"http://localhost:80",
		"http://localhost:3000",
		"http://localhost:5173",
	}
	if env := os.Getenv("CORS_ALLOWED_ORIGINS"); env != "" {
		origins = strings.Split(env, ",")
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	api := router.Group("/api")
	{
		api.GET("/healthcheck", h.Health.Check)

		api.POST("/programs/upload", h.Program.Upload)
		api.GET("/programs", h.Program.List)
		api.GET("/programs/next-id", h.Program.PreviewNextID)
		api.GET("/programs/:id", h.Program.Get)
		api.PUT("/programs/:id", h.Program.Update)
		api.DELETE("/programs/:id", h.Program.Delete)
		api.GET("/programs/:id/plcs", h.Program.MappedPLCs)

		api.GET("/programs/:id/template", h.Template.List)
		api.GET("/programs/:id/template/search", h.Template.Search)
		api.GET("/programs/:id/template/tree", h.Template.Tree)
		api.DELETE("/programs/:id/template", h.Template.Delete)
		api.GET("/templates/summary", h.Template.Summaries)

		api.POST("/plc", h.PLC.Create)
		api.GET("/plc/:id", h.PLC.Get)
		api.PUT("/plc/:id", h.PLC.Update)
		api.DELETE("/plc/:id", h.PLC.Delete)
		api.POST("/plc/:id/restore", h.PLC.Restore)
		api.GET("/plc/:id/exists", h.PLC.Exists)
		api.POST("/plc/:id/mapping", h.PLC.MapProgram)
		api.DELETE("/plc/:id/mapping", h.PLC.UnmapProgram)
		api.GET("/plc/:id/mapping/history", h.PLC.MappingHistory)

		api.GET("/plcs", h.PLC.List)
		api.GET("/plcs/search/keyword", h.PLC.Search)
		api.GET("/plcs/count/summary", h.PLC.CountSummary)
		api.GET("/plcs/hierarchy/values", h.PLC.HierarchyValues)
		api.GET("/plcs/tree", h.PLC.Tree)
		api.GET("/plcs/unmapped/list", h.PLC.Unmapped)
		api.POST("/plcs/mapping/bulk", h.PLC.BulkMap)
		api.PUT("/plcs/mapping/bulk", h.PLC.BulkReassign)
		api.DELETE("/plcs/mapping/bulk", h.PLC.BulkUnmap)
	}

	return router
}
