package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"roster-server-go/models"
	"roster-server-go/service"
)

// Response messages and body keys
const (
	msgStudentDeleted     = "Student deleted successfully"
	msgGroupDeleted       = "Group deleted successfully"
	msgStudentAdded       = "Student added to group successfully"
	msgStudentRemoved     = "Student removed from group successfully"
	msgStudentTransferred = "Student transferred to new group successfully"
	msgImportSuccessful   = "Import successful"

	msgInvalidBody   = "Invalid request body"
	msgInternalError = "Internal Server Error"
	msgMissingUpload = "Missing 'file' in form data"
	detailKey        = "detail"
	messageKey       = "message"
)

// APIHandler holds the dependencies for API handlers, like the record service
type APIHandler struct {
	Records *service.RecordService
	Log     *logrus.Entry
}

// NewAPIHandler creates a new APIHandler
func NewAPIHandler(records *service.RecordService, log *logrus.Entry) *APIHandler {
	return &APIHandler{
		Records: records,
		Log:     log,
	}
}

// respondError maps service errors onto HTTP statuses. Anything that is not a
// known service error is logged and reported as a bare 500.
func (h *APIHandler) respondError(c *gin.Context, err error, action string) {
	var notFound *service.NotFoundError
	if errors.As(err, &notFound) {
		c.JSON(http.StatusNotFound, gin.H{detailKey: notFound.Message})
		return
	}
	var invalid *service.InvalidInputError
	if errors.As(err, &invalid) {
		c.JSON(http.StatusBadRequest, gin.H{detailKey: invalid.Message})
		return
	}

	h.Log.WithError(err).WithField("request_id", c.GetString(requestIDKey)).Errorf("Error in %s handler", action)
	c.JSON(http.StatusInternalServerError, gin.H{detailKey: msgInternalError})
}

func (h *APIHandler) bindDocument(c *gin.Context) (models.Document, bool) {
	var doc models.Document
	if err := c.ShouldBindJSON(&doc); err != nil {
		h.Log.WithError(err).Debug("Rejected request body")
		c.JSON(http.StatusBadRequest, gin.H{detailKey: msgInvalidBody})
		return nil, false
	}
	if doc == nil {
		doc = models.Document{}
	}
	return doc, true
}

// PingHandler handles GET /ping
func PingHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"Success": true})
}

// --- Student Handlers ---

// CreateStudent handles POST /students
func (h *APIHandler) CreateStudent(c *gin.Context) {
	doc, ok := h.bindDocument(c)
	if !ok {
		return
	}
	id, err := h.Records.CreateStudent(c.Request.Context(), doc)
	if err != nil {
		h.respondError(c, err, "CreateStudent")
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}

// GetStudent handles GET /students/:id
func (h *APIHandler) GetStudent(c *gin.Context) {
	doc, err := h.Records.GetStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "GetStudent")
		return
	}
	c.JSON(http.StatusOK, doc)
}

// DeleteStudent handles DELETE /students/:id
func (h *APIHandler) DeleteStudent(c *gin.Context) {
	if err := h.Records.DeleteStudent(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err, "DeleteStudent")
		return
	}
	c.JSON(http.StatusOK, gin.H{messageKey: msgStudentDeleted})
}

// ListStudents handles GET /students
func (h *APIHandler) ListStudents(c *gin.Context) {
	students, err := h.Records.ListStudents(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "ListStudents")
		return
	}
	c.JSON(http.StatusOK, students)
}

// AddStudentToGroup handles PUT /students/:id/groups/:group_id
func (h *APIHandler) AddStudentToGroup(c *gin.Context) {
	if err := h.Records.AddStudentToGroup(c.Request.Context(), c.Param("id"), c.Param("group_id")); err != nil {
		h.respondError(c, err, "AddStudentToGroup")
		return
	}
	c.JSON(http.StatusOK, gin.H{messageKey: msgStudentAdded})
}

// RemoveStudentFromGroup handles DELETE /students/:id/groups
func (h *APIHandler) RemoveStudentFromGroup(c *gin.Context) {
	if err := h.Records.RemoveStudentFromGroup(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err, "RemoveStudentFromGroup")
		return
	}
	c.JSON(http.StatusOK, gin.H{messageKey: msgStudentRemoved})
}

// TransferStudent handles PUT /students/:id/transfer/:new_group_id
func (h *APIHandler) TransferStudent(c *gin.Context) {
	if err := h.Records.TransferStudent(c.Request.Context(), c.Param("id"), c.Param("new_group_id")); err != nil {
		h.respondError(c, err, "TransferStudent")
		return
	}
	c.JSON(http.StatusOK, gin.H{messageKey: msgStudentTransferred})
}

// --- Group Handlers ---

// CreateGroup handles POST /groups
func (h *APIHandler) CreateGroup(c *gin.Context) {
	doc, ok := h.bindDocument(c)
	if !ok {
		return
	}
	id, err := h.Records.CreateGroup(c.Request.Context(), doc)
	if err != nil {
		h.respondError(c, err, "CreateGroup")
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}

// GetGroup handles GET /groups/:id
func (h *APIHandler) GetGroup(c *gin.Context) {
	doc, err := h.Records.GetGroup(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "GetGroup")
		return
	}
	c.JSON(http.StatusOK, doc)
}

// DeleteGroup handles DELETE /groups/:id
func (h *APIHandler) DeleteGroup(c *gin.Context) {
	if err := h.Records.DeleteGroup(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err, "DeleteGroup")
		return
	}
	c.JSON(http.StatusOK, gin.H{messageKey: msgGroupDeleted})
}

// ListGroups handles GET /groups
func (h *APIHandler) ListGroups(c *gin.Context) {
	groups, err := h.Records.ListGroups(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "ListGroups")
		return
	}
	c.JSON(http.StatusOK, groups)
}

// GetStudentsInGroup handles GET /groups/:id/students
func (h *APIHandler) GetStudentsInGroup(c *gin.Context) {
	students, err := h.Records.ListStudentsInGroup(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "GetStudentsInGroup")
		return
	}
	c.JSON(http.StatusOK, students)
}

// --- Import Handler ---

// ImportStudents handles POST /import/students
func (h *APIHandler) ImportStudents(c *gin.Context) {
	groupID := c.PostForm("group_id")

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{detailKey: msgMissingUpload})
		return
	}
	defer file.Close()

	h.Log.WithField("file", header.Filename).WithField("group_id", groupID).Info("Received roster upload")

	imported, err := h.Records.ImportStudents(c.Request.Context(), file, groupID)
	if err != nil {
		h.respondError(c, err, "ImportStudents")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		messageKey:       msgImportSuccessful,
		"imported_count": imported,
	})
}
