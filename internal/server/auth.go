package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"housetasks/internal/auth"
	"housetasks/internal/models"
	"housetasks/internal/storage/sqlite"
	"housetasks/internal/task"
)

const identityKey = "identity"

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// handleRegister creates a new household account.
func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("username is required"))
		return
	}
	if len(req.Password) < auth.MinPasswordLength || len(req.Password) > auth.MaxPasswordLength {
		s.respondError(c, http.StatusBadRequest,
			fmt.Errorf("password must be between %d and %d characters", auth.MinPasswordLength, auth.MaxPasswordLength))
		return
	}
	if req.Role == "" {
		req.Role = models.RoleHusband
	}
	if _, ok := models.ValidRoles[req.Role]; !ok {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("invalid role %q", req.Role))
		return
	}

	hash, err := s.passwords.Hash(req.Password)
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}

	user, err := s.store.CreateUser(c.Request.Context(), models.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		PasswordHash: hash,
		Role:         req.Role,
		CreatedAt:    time.Now().UTC(),
	})
	if errors.Is(err, sqlite.ErrUsernameTaken) {
		s.respondError(c, http.StatusConflict, err)
		return
	}
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}

	s.logger.Info("user registered", "username", user.Username, "role", user.Role)
	respondSuccess(c, http.StatusCreated, gin.H{"user": user.Ref()})
}

// handleLogin verifies credentials and issues a session token.
func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	user, err := s.store.GetUserByUsername(c.Request.Context(), strings.TrimSpace(req.Username))
	if errors.Is(err, sqlite.ErrUserNotFound) || (err == nil && !s.passwords.Verify(req.Password, user.PasswordHash)) {
		// One message for unknown user and wrong password alike.
		s.respondError(c, http.StatusUnauthorized, fmt.Errorf("invalid credentials"))
		return
	}
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}

	token, err := s.tokens.Generate(user.ID, user.Username, user.Role)
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"token": token, "user": user.Ref()})
}

// requireAuth extracts and validates the bearer token, placing the verified
// identity on the request context.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		claims, err := s.tokens.Validate(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		c.Set(identityKey, task.Identity{AccountID: claims.UserID, Role: claims.Role})
		c.Next()
	}
}

// caller returns the verified identity set by requireAuth.
func caller(c *gin.Context) task.Identity {
	id, _ := c.Get(identityKey)
	identity, _ := id.(task.Identity)
	return identity
}
