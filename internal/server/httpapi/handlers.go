package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/userauth/internal/common"
	"github.com/dmitrijs2005/userauth/internal/server/auth"
	"github.com/dmitrijs2005/userauth/internal/server/models"
	"github.com/dmitrijs2005/userauth/internal/server/services"
	"github.com/gin-gonic/gin"
)

const healthMessage = "User Service is running!"

type handlers struct {
	users Users
}

// writeError maps service errors to status codes. Internal details are
// never echoed back.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrorValidation):
		respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrDuplicate):
		respondError(c, http.StatusConflict, "Username or email already exists")
	case errors.Is(err, common.ErrorNotFound):
		respondError(c, http.StatusNotFound, "user not found")
	case errors.Is(err, common.ErrorForbidden):
		respondError(c, http.StatusForbidden, common.ErrorForbidden.Error())
	case errors.Is(err, common.ErrInvalidToken):
		respondError(c, http.StatusUnauthorized, common.ErrInvalidToken.Error())
	default:
		respondError(c, http.StatusInternalServerError, "internal error")
	}
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		respondError(c, http.StatusBadRequest, "invalid user id")
		return 0, false
	}
	return id, true
}

func (h *handlers) register(c *gin.Context) {
	var req services.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.users.Register(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrDuplicate):
			respondError(c, http.StatusBadRequest, "Username or email already exists")
		default:
			writeError(c, err)
		}
		return
	}

	c.JSON(http.StatusCreated, newAuthResponse(res))
}

func (h *handlers) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.users.Login(c.Request.Context(), req.UsernameOrEmail, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrInvalidCredentials) {
			respondError(c, http.StatusBadRequest, "Invalid username/email or password")
			return
		}
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, newAuthResponse(res))
}

// validateToken accepts the token as ?token= or as {"token": "..."}.
func (h *handlers) validateToken(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		var req tokenRequest
		if err := c.ShouldBindJSON(&req); err == nil {
			token = req.Token
		}
	}
	c.JSON(http.StatusOK, h.users.IsTokenValid(c.Request.Context(), token))
}

func (h *handlers) currentUser(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if header == "" {
		respondError(c, http.StatusBadRequest, "missing token")
		return
	}
	u, err := h.users.CurrentUser(c.Request.Context(), header)
	if err != nil {
		respondError(c, http.StatusBadRequest, common.ErrInvalidToken.Error())
		return
	}
	c.JSON(http.StatusOK, newUserView(u))
}

func (h *handlers) health(c *gin.Context) {
	c.String(http.StatusOK, healthMessage)
}

func (h *handlers) getUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	u, err := h.users.GetUser(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserView(u))
}

func (h *handlers) getUserByUsername(c *gin.Context) {
	u, err := h.users.GetUserByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserView(u))
}

func (h *handlers) listUsers(c *gin.Context) {
	list, err := h.users.ListUsers(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	views := make([]UserView, 0, len(list))
	for _, u := range list {
		views = append(views, newUserView(u))
	}
	c.JSON(http.StatusOK, views)
}

// updateUser is open to admins and to the user themselves.
func (h *handlers) updateUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	p, _ := auth.PrincipalFromContext(c.Request.Context())
	if !p.HasAnyRole(models.RoleAdmin) && (p == nil || p.User.ID != id) {
		writeError(c, common.ErrorForbidden)
		return
	}

	var req services.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.users.UpdateUser(c.Request.Context(), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserView(u))
}

func (h *handlers) deleteUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.users.DeleteUser(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) setEnabled(enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		u, err := h.users.SetEnabled(c.Request.Context(), id, enabled)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, newUserView(u))
	}
}

func (h *handlers) changeRole(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	role, err := models.ParseRole(c.Query("role"))
	if err != nil {
		writeError(c, err)
		return
	}
	u, err := h.users.ChangeRole(c.Request.Context(), id, role)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserView(u))
}
