package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// SetupRouter builds the engine with middleware and every API route.
// The link and unlink routes are served under both /groups and /group.
// JSON bodies decode numbers as json.Number so integers reach the store
// as integers rather than float64.
func SetupRouter(h *APIHandler) *gin.Engine {
	binding.EnableDecoderUseNumber = true
	router := gin.New()
	router.Use(RequestID(), RequestLogger(h.Log), Recovery(h.Log))

	router.GET("/ping", PingHandler)

	// Student routes
	router.POST("/students", h.CreateStudent)
	router.GET("/students", h.ListStudents)
	router.GET("/students/:id", h.GetStudent)
	router.DELETE("/students/:id", h.DeleteStudent)
	router.PUT("/students/:id/groups/:group_id", h.AddStudentToGroup)
	router.PUT("/students/:id/group/:group_id", h.AddStudentToGroup)
	router.DELETE("/students/:id/groups", h.RemoveStudentFromGroup)
	router.DELETE("/students/:id/group", h.RemoveStudentFromGroup)
	router.PUT("/students/:id/transfer/:new_group_id", h.TransferStudent)

	// Group routes
	router.POST("/groups", h.CreateGroup)
	router.GET("/groups", h.ListGroups)
	router.GET("/groups/:id", h.GetGroup)
	router.DELETE("/groups/:id", h.DeleteGroup)
	router.GET("/groups/:id/students", h.GetStudentsInGroup)

	// Import route
	router.POST("/import/students", h.ImportStudents)

	return router
}
