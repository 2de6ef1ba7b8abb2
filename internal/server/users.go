package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"housetasks/internal/models"
)

// handleListUsers returns every account's public fields, used by the UI to
// populate the assignment dropdown.
func (s *Server) handleListUsers(c *gin.Context) {
	users, err := s.store.ListUsers(c.Request.Context())
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}

	refs := make([]models.UserRef, 0, len(users))
	for _, u := range users {
		refs = append(refs, u.Ref())
	}
	respondSuccess(c, http.StatusOK, refs)
}
