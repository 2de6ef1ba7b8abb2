package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"housetasks/internal/task"
)

type createTaskRequest struct {
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	ExpectedDate   *string `json:"expectedDate"`
	DaysToComplete *int    `json:"daysToComplete"`
	AssignedToID   string  `json:"assignedToId"`
	IsBacklog      bool    `json:"isBacklog"`
}

type updateTaskRequest struct {
	Title          *string `json:"title"`
	Description    *string `json:"description"`
	Comments       *string `json:"comments"`
	IsBacklog      *bool   `json:"isBacklog"`
	ExpectedDate   *string `json:"expectedDate"`
	DaysToComplete *int    `json:"daysToComplete"`
	IsCompleted    *bool   `json:"isCompleted"`
}

// handleListTasks fetches the tasks assigned to the caller, with delay
// annotations computed against a single "now" for the whole response.
func (s *Server) handleListTasks(c *gin.Context) {
	tasks, err := s.tasks.List(c.Request.Context(), caller(c), time.Now().UTC())
	if err != nil {
		s.respondEngineError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"tasks": tasks})
}

// handleCreateTask creates a task, assigned to the caller by default or to
// another account when requested.
func (s *Server) handleCreateTask(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	in := task.CreateInput{
		Title:          req.Title,
		Description:    req.Description,
		DaysToComplete: req.DaysToComplete,
		AssigneeID:     req.AssignedToID,
		IsBacklog:      req.IsBacklog,
	}
	if req.ExpectedDate != nil && *req.ExpectedDate != "" {
		d, err := parseDate(*req.ExpectedDate)
		if err != nil {
			s.respondError(c, http.StatusBadRequest, fmt.Errorf("invalid expected date: %w", err))
			return
		}
		in.ExpectedDate = &d
	}

	created, err := s.tasks.Create(c.Request.Context(), caller(c), in, time.Now().UTC())
	if err != nil {
		s.respondEngineError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"task": created})
}

// handleGetTask fetches a single task; only the assignee can see it.
func (s *Server) handleGetTask(c *gin.Context) {
	t, err := s.tasks.Get(c.Request.Context(), caller(c), c.Param("id"), time.Now().UTC())
	if err != nil {
		s.respondEngineError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": t})
}

// handleUpdateTask applies a partial update to one of the caller's tasks.
func (s *Server) handleUpdateTask(c *gin.Context) {
	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	patch := task.UpdatePatch{
		Title:          req.Title,
		Description:    req.Description,
		Comments:       req.Comments,
		IsBacklog:      req.IsBacklog,
		DaysToComplete: req.DaysToComplete,
		IsCompleted:    req.IsCompleted,
	}
	if req.ExpectedDate != nil {
		patch.SetExpectedDate = true
		// An empty string clears the date; anything else must parse.
		if *req.ExpectedDate != "" {
			d, err := parseDate(*req.ExpectedDate)
			if err != nil {
				s.respondError(c, http.StatusBadRequest, fmt.Errorf("invalid expected date: %w", err))
				return
			}
			patch.ExpectedDate = &d
		}
	}

	updated, err := s.tasks.Update(c.Request.Context(), caller(c), c.Param("id"), patch, time.Now().UTC())
	if err != nil {
		s.respondEngineError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": updated})
}

// handleDeleteTask removes a task; only its creator may do this.
func (s *Server) handleDeleteTask(c *gin.Context) {
	if err := s.tasks.Delete(c.Request.Context(), caller(c), c.Param("id")); err != nil {
		s.respondEngineError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"message": "task deleted"})
}
