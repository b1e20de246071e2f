package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yourplaces/api/internal/application"
	"github.com/yourplaces/api/internal/domain/entity"
	"github.com/yourplaces/api/internal/interface/middleware"
	"github.com/yourplaces/api/pkg/response"
	"github.com/yourplaces/api/pkg/validation"
)

type UserHandler struct {
	Svc    *application.UserService
	Logger *logrus.Logger
}

func NewUserHandler(svc *application.UserService, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger}
}

type signupRequest struct {
	Name     string `form:"name" binding:"required"`
	Email    string `form:"email" binding:"required,email"`
	Password string `form:"password" binding:"required,pwd"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func userJSON(u *entity.User) gin.H {
	return gin.H{
		"id":         u.ID,
		"email":      u.Email,
		"name":       u.Name,
		"avatar_url": u.AvatarURL,
		"place_ids":  u.PlaceIDs,
		"created_at": u.CreatedAt,
		"updated_at": u.UpdatedAt,
	}
}

func authJSON(u *entity.User, pair application.TokenPair) gin.H {
	return gin.H{
		"user_id":       u.ID,
		"email":         u.Email,
		"token":         pair.AccessToken,
		"expires_at":    pair.AccessTokenExpiry,
		"refresh_token": pair.RefreshToken,
	}
}

func (h *UserHandler) List(c *gin.Context) {
	users, err := h.Svc.List(c.Request.Context())
	if err != nil {
		h.fail(c, err, "list users failed")
		return
	}
	out := make([]gin.H, 0, len(users))
	for _, u := range users {
		out = append(out, userJSON(u))
	}
	resp := response.Success(c, http.StatusOK, out, "users", nil)
	c.JSON(resp.Status, resp)
}

func (h *UserHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBind(&req); err != nil {
		resp := response.Error[any](c, http.StatusUnprocessableEntity, "invalid payload", validation.ToDetails(err))
		c.JSON(resp.Status, resp)
		return
	}

	var (
		file       multipart.File
		filename   string
		contentTyp string
	)
	if fh, err := c.FormFile("image"); err == nil {
		f, err := fh.Open()
		if err != nil {
			h.fail(c, err, "open uploaded avatar failed")
			return
		}
		defer func() { _ = f.Close() }()
		file, filename, contentTyp = f, fh.Filename, fh.Header.Get("Content-Type")
	}

	in := application.SignupInput{Name: req.Name, Email: req.Email, Password: req.Password}
	u, pair, err := h.Svc.Signup(c.Request.Context(), in, file, filename, contentTyp)
	if err != nil {
		if errors.Is(err, application.ErrEmailTaken) {
			resp := response.Error[any](c, http.StatusUnprocessableEntity, "could not create user, email already exists", nil)
			c.JSON(resp.Status, resp)
			return
		}
		h.fail(c, err, "signup failed")
		return
	}
	resp := response.Success(c, http.StatusCreated, authJSON(u, pair), "signup successful", nil)
	c.JSON(resp.Status, resp)
}

func (h *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp := response.Error[any](c, http.StatusUnprocessableEntity, "invalid payload", validation.ToDetails(err))
		c.JSON(resp.Status, resp)
		return
	}

	u, pair, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		// Uniform message whether the email is unknown or the password
		// is wrong.
		resp := response.Error[any](c, http.StatusUnauthorized, "invalid credentials", nil)
		c.JSON(resp.Status, resp)
		return
	}
	resp := response.Success(c, http.StatusOK, authJSON(u, pair), "login successful", nil)
	c.JSON(resp.Status, resp)
}

func (h *UserHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp := response.Error[any](c, http.StatusUnauthorized, "missing refresh token", nil)
		c.JSON(resp.Status, resp)
		return
	}

	u, pair, err := h.Svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		resp := response.Error[any](c, http.StatusUnauthorized, "invalid refresh token", nil)
		c.JSON(resp.Status, resp)
		return
	}
	resp := response.Success(c, http.StatusOK, authJSON(u, pair), "token refreshed", nil)
	c.JSON(resp.Status, resp)
}

func (h *UserHandler) GetProfile(c *gin.Context) {
	u, err := h.Svc.GetProfile(c.Request.Context(), c.GetString(middleware.CtxUserIDKey))
	if err != nil {
		resp := response.Error[any](c, http.StatusNotFound, "user not found", nil)
		c.JSON(resp.Status, resp)
		return
	}
	resp := response.Success(c, http.StatusOK, userJSON(u), "profile", nil)
	c.JSON(resp.Status, resp)
}

func (h *UserHandler) fail(c *gin.Context, err error, logMsg string) {
	if h.Logger != nil {
		h.Logger.WithError(err).WithField("path", c.FullPath()).Error(logMsg)
	}
	resp := response.Error[any](c, http.StatusInternalServerError, "something went wrong, please try again", nil)
	c.JSON(resp.Status, resp)
}
