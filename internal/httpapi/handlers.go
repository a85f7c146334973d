package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/admitq/queue-kiosk/internal/admin"
	"github.com/admitq/queue-kiosk/internal/api"
	"github.com/admitq/queue-kiosk/internal/console"
	"github.com/admitq/queue-kiosk/internal/events"
	"github.com/admitq/queue-kiosk/internal/session"
)

type handlers struct {
	deps Deps
}

// writeErr maps domain errors onto HTTP statuses. Backend errors carry
// their original status through; illegal console transitions are conflicts.
func writeErr(c *gin.Context, err error) {
	var apiErr *api.Error
	switch {
	case errors.As(err, &apiErr):
		c.JSON(apiErr.StatusCode, gin.H{"error": apiErr.Detail})
	case errors.Is(err, console.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	}
}

// kioskStatus is the one-look operational snapshot for this kiosk.
func (h *handlers) kioskStatus(c *gin.Context) {
	resp := gin.H{"mode": h.deps.Mode}
	if h.deps.Session != nil {
		resp["logged_in"] = h.deps.Session.LoggedIn()
		resp["language"] = h.deps.Session.Language()
	}
	if h.deps.Console != nil {
		resp["console_status"] = h.deps.Console.Status()
	}
	if h.deps.Board != nil {
		snap := h.deps.Board.Snapshot()
		resp["display_entries"] = len(snap.Entries)
		resp["display_ducked"] = snap.Ducked
		resp["display_updated_at"] = snap.UpdatedAt
	}
	c.JSON(http.StatusOK, resp)
}

// refreshAll nudges every view to refetch immediately.
func (h *handlers) refreshAll(c *gin.Context) {
	h.deps.Bus.Publish(events.QueueUpdated)
	c.Status(http.StatusAccepted)
}

// --- session ---

func (h *handlers) sessionInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"logged_in": h.deps.Session.LoggedIn(),
		"user":      h.deps.Session.User(),
		"language":  h.deps.Session.Language(),
	})
}

func (h *handlers) login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tok, err := h.deps.Auth(c.Request.Context(), api.Credentials{Email: req.Email, Password: req.Password})
	if err != nil {
		writeErr(c, err)
		return
	}
	user := session.User{
		ID:       tok.User.ID,
		Email:    tok.User.Email,
		FullName: tok.User.FullName,
		Role:     tok.User.Role,
		Desk:     tok.User.Desk,
		Status:   tok.User.Status,
	}
	if err := h.deps.Session.SaveLogin(tok.AccessToken, user); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *handlers) logout(c *gin.Context) {
	if err := h.deps.Session.Logout(); err != nil {
		writeErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) register(c *gin.Context) {
	var req api.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	emp, err := h.deps.Register(c.Request.Context(), req)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, emp)
}

func (h *handlers) setLanguage(c *gin.Context) {
	var req struct {
		Language string `json:"language" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.deps.Session.SetLanguage(req.Language); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"language": h.deps.Session.Language()})
}

// --- public queue ---

func (h *handlers) joinQueue(c *gin.Context) {
	var req api.JoinQueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	entry, err := h.deps.Applicant.Join(c.Request.Context(), req)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (h *handlers) queueCount(c *gin.Context) {
	n, err := h.deps.Applicant.WaitingCount(c.Request.Context())
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}

func (h *handlers) checkQueue(c *gin.Context) {
	fullName := c.Query("full_name")
	if fullName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "full_name is required"})
		return
	}
	entry, err := h.deps.Applicant.CheckByName(c.Request.Context(), fullName)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *handlers) savedTicket(c *gin.Context) {
	entry, ok := h.deps.Applicant.SavedTicket()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no saved ticket"})
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *handlers) cancelQueue(c *gin.Context) {
	if err := h.deps.Applicant.Cancel(c.Request.Context(), c.Param("id")); err != nil {
		writeErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) moveBack(c *gin.Context) {
	entry, err := h.deps.Applicant.MoveBack(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// --- staff console ---

func (h *handlers) consoleStatus(c *gin.Context) {
	resp := gin.H{"status": h.deps.Console.Status()}
	if cur, ok := h.deps.Console.Current(); ok {
		resp["current"] = cur
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handlers) consoleAction(action func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := action(c.Request.Context()); err != nil {
			writeErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": h.deps.Console.Status()})
	}
}

func (h *handlers) callNext(c *gin.Context) {
	res, err := h.deps.Console.CallNext(c.Request.Context())
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *handlers) processNext(c *gin.Context) {
	entry, err := h.deps.Console.ProcessNext(c.Request.Context())
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *handlers) consoleQueue(c *gin.Context) {
	entries, err := h.deps.Console.Queue()
	resp := gin.H{"entries": entries}
	if err != nil {
		resp["last_error"] = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handlers) setConsoleFilters(c *gin.Context) {
	var req struct {
		Status   string `json:"status"`
		FullName string `json:"full_name"`
		Phone    string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.deps.Console.SetQueueFilters(api.QueueParams{
		Status:   req.Status,
		FullName: req.FullName,
		Phone:    req.Phone,
	})
	c.Status(http.StatusAccepted)
}

// --- display board ---

func (h *handlers) displaySnapshot(c *gin.Context) {
	snap := h.deps.Board.Snapshot()
	resp := gin.H{
		"entries":    snap.Entries,
		"updated_at": snap.UpdatedAt,
		"video":      snap.Video,
		"video_id":   snap.VideoID,
		"ducked":     snap.Ducked,
	}
	if snap.Announcing != nil {
		resp["announcing"] = snap.Announcing
	}
	if snap.LastErr != nil {
		resp["last_error"] = snap.LastErr.Error()
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handlers) displayRefresh(c *gin.Context) {
	h.deps.Board.Refresh()
	c.Status(http.StatusAccepted)
}

// --- admin ---

func (h *handlers) adminQueue(c *gin.Context) {
	entries, updatedAt, err := h.deps.Admin.Entries()
	resp := gin.H{"entries": entries, "updated_at": updatedAt}
	if err != nil {
		resp["last_error"] = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handlers) setFilters(c *gin.Context) {
	var req struct {
		Status   string `json:"status"`
		Search   string `json:"search"`
		SortBy   string `json:"sort_by"`
		SortDesc bool   `json:"sort_desc"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.deps.Admin.SetFilters(admin.Filters{
		Status:   req.Status,
		Search:   req.Search,
		SortBy:   req.SortBy,
		SortDesc: req.SortDesc,
	})
	c.Status(http.StatusAccepted)
}

func (h *handlers) updateEntry(c *gin.Context) {
	var update api.QueueUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	entry, err := h.deps.Admin.UpdateEntry(c.Request.Context(), c.Param("id"), update)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *handlers) deleteEntry(c *gin.Context) {
	if err := h.deps.Admin.DeleteEntry(c.Request.Context(), c.Param("id")); err != nil {
		writeErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) exportQueue(c *gin.Context) {
	data, err := h.deps.Admin.Export(c.Request.Context())
	if err != nil {
		writeErr(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="queue.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func (h *handlers) listEmployees(c *gin.Context) {
	employees, err := h.deps.Admin.Employees(c.Request.Context())
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, employees)
}

func (h *handlers) createEmployee(c *gin.Context) {
	var req api.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	emp, err := h.deps.Admin.CreateStaff(c.Request.Context(), req)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, emp)
}

func (h *handlers) updateEmployee(c *gin.Context) {
	var update api.EmployeeUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	emp, err := h.deps.Admin.UpdateEmployee(c.Request.Context(), c.Param("id"), update)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, emp)
}

func (h *handlers) deleteEmployee(c *gin.Context) {
	if err := h.deps.Admin.DeleteEmployee(c.Request.Context(), c.Param("id")); err != nil {
		writeErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) videoSettings(c *gin.Context) {
	settings, err := h.deps.Admin.VideoSettings(c.Request.Context())
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (h *handlers) updateVideo(c *gin.Context) {
	var settings api.VideoSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	updated, err := h.deps.Admin.UpdateVideo(c.Request.Context(), settings)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *handlers) sheetLink(c *gin.Context) {
	id, _ := h.deps.Admin.SheetID()
	c.JSON(http.StatusOK, gin.H{"sheet_id": id, "link": h.deps.Admin.SheetLink()})
}

func (h *handlers) saveSheetID(c *gin.Context) {
	var req struct {
		SheetID string `json:"sheet_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.deps.Admin.SaveSheetID(req.SheetID); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"link": h.deps.Admin.SheetLink()})
}
