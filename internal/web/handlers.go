package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"taskgrid/internal/collection"
	"taskgrid/internal/service"
)

// gridPage is the data rendered by grid.html.
type gridPage struct {
	Kind   collection.Kind
	Kinds  []collection.Kind
	Caps   collection.Capabilities
	Tasks  []service.Task
	Status collection.Status
	Fields []service.Field
	Stages []string
}

// taskJSON adds the local state to the wire record.
type taskJSON struct {
	service.Task
	State string `json:"state"`
}

func (s *Server) handleIndex(c *gin.Context) {
	c.Redirect(http.StatusFound, "/views/"+string(collection.WithID))
}

// viewKind resolves the :kind parameter, answering 404 when it is unknown.
func (s *Server) viewKind(c *gin.Context) (collection.Kind, bool) {
	kind, err := collection.ParseKind(c.Param("kind"))
	if err != nil {
		c.String(http.StatusNotFound, err.Error())
		return "", false
	}
	return kind, true
}

// allowed answers 403 unless the view offers the action.
func (s *Server) allowed(c *gin.Context, kind collection.Kind, ok bool, action string) bool {
	if !ok {
		c.String(http.StatusForbidden, fmt.Sprintf("%s is not available in the %s view", action, kind))
	}
	return ok
}

// backendContext keeps the request's values but not its cancellation, so a
// backend call runs to completion after the browser goes away.
func backendContext(c *gin.Context) context.Context {
	return context.WithoutCancel(c.Request.Context())
}

func backToView(c *gin.Context, kind collection.Kind) {
	c.Redirect(http.StatusSeeOther, "/views/"+string(kind))
}

func (s *Server) handleView(c *gin.Context) {
	kind, ok := s.viewKind(c)
	if !ok {
		return
	}

	c.HTML(http.StatusOK, "grid.html", gridPage{
		Kind:   kind,
		Kinds:  collection.Kinds,
		Caps:   kind.Capabilities(),
		Tasks:  s.tasks.View(kind),
		Status: s.tasks.Status(),
		Fields: service.Fields,
		Stages: service.Stages,
	})
}

func (s *Server) handleFetch(c *gin.Context) {
	kind, ok := s.viewKind(c)
	if !ok || !s.allowed(c, kind, kind.Capabilities().Fetch, "fetch") {
		return
	}

	// Failures are kept in the collection status and shown on the page.
	_, _ = s.tasks.FetchAndMerge(backendContext(c))
	backToView(c, kind)
}

func (s *Server) handleSave(c *gin.Context) {
	kind, ok := s.viewKind(c)
	if !ok || !s.allowed(c, kind, kind.Capabilities().Save, "save") {
		return
	}

	_, _ = s.tasks.SaveChanges(backendContext(c))
	backToView(c, kind)
}

func (s *Server) handleAdd(c *gin.Context) {
	kind, ok := s.viewKind(c)
	if !ok || !s.allowed(c, kind, kind.Capabilities().Add, "add") {
		return
	}

	s.tasks.AddLocalTask()
	backToView(c, kind)
}

func (s *Server) handleImport(c *gin.Context) {
	kind, ok := s.viewKind(c)
	if !ok || !s.allowed(c, kind, kind.Capabilities().Import, "import") {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.String(http.StatusBadRequest, "file required")
		return
	}
	f, err := header.Open()
	if err != nil {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("failed to open upload")
		c.String(http.StatusInternalServerError, "failed to read upload")
		return
	}
	defer f.Close()

	_, _ = s.tasks.ImportFromSpreadsheet(backendContext(c), header.Filename, f)
	backToView(c, kind)
}

func (s *Server) handleFields(c *gin.Context) {
	kind, ok := s.viewKind(c)
	if !ok {
		return
	}
	id := c.Param("id")

	for _, f := range service.Fields {
		value, posted := c.GetPostForm(f.Wire)
		if !posted {
			continue
		}
		if err := s.tasks.UpdateField(id, f.Wire, value); err != nil {
			if errors.Is(err, collection.ErrNotFound) {
				c.String(http.StatusNotFound, err.Error())
				return
			}
			zerolog.Ctx(c.Request.Context()).Error().Err(err).Str("id", id).Msg("failed to update field")
			c.String(http.StatusBadRequest, err.Error())
			return
		}
	}
	backToView(c, kind)
}

func (s *Server) handleDelete(c *gin.Context) {
	kind, ok := s.viewKind(c)
	if !ok || !s.allowed(c, kind, kind.Capabilities().Delete, "delete") {
		return
	}
	id := c.Param("id")
	confirmed := c.PostForm("confirm") == "yes"

	err := s.tasks.DeleteTask(id, collection.ConfirmFunc(func(string) bool { return confirmed }))
	switch {
	case errors.Is(err, collection.ErrNotFound):
		c.String(http.StatusNotFound, err.Error())
		return
	case err != nil && !errors.Is(err, collection.ErrDeclined):
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Str("id", id).Msg("failed to delete task")
		c.String(http.StatusInternalServerError, err.Error())
		return
	}
	backToView(c, kind)
}

// API handlers

func (s *Server) handleAPITasks(c *gin.Context) {
	kind := collection.All
	if v := c.Query("view"); v != "" {
		var err error
		if kind, err = collection.ParseKind(v); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	tasks := s.tasks.View(kind)
	resp := make([]taskJSON, len(tasks))
	for i, t := range tasks {
		resp[i] = taskJSON{Task: t, State: t.State.String()}
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleAPIStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.tasks.Status())
}

func (s *Server) handleAPIUpdate(c *gin.Context) {
	var req struct {
		Field string `json:"field" binding:"required"`
		Value string `json:"value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id := c.Param("id")
	if err := s.tasks.UpdateField(id, req.Field, req.Value); err != nil {
		switch {
		case errors.Is(err, collection.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}

	task, _ := s.tasks.Get(id)
	c.JSON(http.StatusOK, taskJSON{Task: task, State: task.State.String()})
}
