package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yourplaces/api/internal/application"
	"github.com/yourplaces/api/internal/domain/entity"
	"github.com/yourplaces/api/internal/interface/middleware"
	"github.com/yourplaces/api/pkg/response"
	"github.com/yourplaces/api/pkg/validation"
)

type PlaceHandler struct {
	Svc    *application.PlaceService
	Logger *logrus.Logger
}

func NewPlaceHandler(svc *application.PlaceService, logger *logrus.Logger) *PlaceHandler {
	return &PlaceHandler{Svc: svc, Logger: logger}
}

type createPlaceRequest struct {
	Title       string `form:"title" binding:"required"`
	Description string `form:"description" binding:"required,min=5"`
	Address     string `form:"address" binding:"required"`
}

type updatePlaceRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description" binding:"required,min=5"`
}

func placeJSON(p *entity.Place) gin.H {
	return gin.H{
		"id":          p.ID,
		"title":       p.Title,
		"description": p.Description,
		"address":     p.Address,
		"location":    gin.H{"lat": p.Lat, "lng": p.Lng},
		"image_url":   p.ImageURL,
		"creator_id":  p.CreatorID,
		"created_at":  p.CreatedAt,
		"updated_at":  p.UpdatedAt,
	}
}

func (h *PlaceHandler) GetByID(c *gin.Context) {
	p, err := h.Svc.GetByID(c.Request.Context(), c.Param("pid"))
	if err != nil {
		if errors.Is(err, application.ErrPlaceNotFound) {
			resp := response.Error[any](c, http.StatusNotFound, "could not find a place for the provided id", nil)
			c.JSON(resp.Status, resp)
			return
		}
		h.fail(c, err, "get place failed")
		return
	}
	resp := response.Success(c, http.StatusOK, placeJSON(p), "place", nil)
	c.JSON(resp.Status, resp)
}

func (h *PlaceHandler) ListByUser(c *gin.Context) {
	places, err := h.Svc.ListByCreator(c.Request.Context(), c.Param("uid"))
	if err != nil {
		h.fail(c, err, "list places failed")
		return
	}
	out := make([]gin.H, 0, len(places))
	for _, p := range places {
		out = append(out, placeJSON(p))
	}
	resp := response.Success(c, http.StatusOK, out, "places", nil)
	c.JSON(resp.Status, resp)
}

func (h *PlaceHandler) Create(c *gin.Context) {
	var req createPlaceRequest
	if err := c.ShouldBind(&req); err != nil {
		resp := response.Error[any](c, http.StatusUnprocessableEntity, "invalid payload", validation.ToDetails(err))
		c.JSON(resp.Status, resp)
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		resp := response.Error[any](c, http.StatusUnprocessableEntity, "image file is required", nil)
		c.JSON(resp.Status, resp)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		h.fail(c, err, "open uploaded image failed")
		return
	}
	defer func() { _ = file.Close() }()

	in := application.CreatePlaceInput{
		Title:       req.Title,
		Description: req.Description,
		Address:     req.Address,
		CreatorID:   c.GetString(middleware.CtxUserIDKey),
	}
	p, err := h.Svc.Create(c.Request.Context(), in, file, fileHeader.Filename, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		switch {
		case errors.Is(err, application.ErrGeocodingFailed):
			resp := response.Error[any](c, http.StatusUnprocessableEntity, "could not find location for the specified address", nil)
			c.JSON(resp.Status, resp)
		case errors.Is(err, application.ErrUserNotFound):
			resp := response.Error[any](c, http.StatusNotFound, "could not find user for provided id", nil)
			c.JSON(resp.Status, resp)
		default:
			h.fail(c, err, "create place failed")
		}
		return
	}
	resp := response.Success(c, http.StatusCreated, placeJSON(p), "place created", nil)
	c.JSON(resp.Status, resp)
}

func (h *PlaceHandler) Update(c *gin.Context) {
	var req updatePlaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp := response.Error[any](c, http.StatusUnprocessableEntity, "invalid payload", validation.ToDetails(err))
		c.JSON(resp.Status, resp)
		return
	}

	p, err := h.Svc.Update(c.Request.Context(), c.Param("pid"), c.GetString(middleware.CtxUserIDKey),
		application.UpdatePlaceInput{Title: req.Title, Description: req.Description})
	if err != nil {
		h.placeError(c, err, "update place failed")
		return
	}
	resp := response.Success(c, http.StatusOK, placeJSON(p), "place updated", nil)
	c.JSON(resp.Status, resp)
}

func (h *PlaceHandler) Delete(c *gin.Context) {
	err := h.Svc.Delete(c.Request.Context(), c.Param("pid"), c.GetString(middleware.CtxUserIDKey))
	if err != nil {
		h.placeError(c, err, "delete place failed")
		return
	}
	resp := response.Success[any](c, http.StatusOK, gin.H{"deleted": true}, "deleted place", nil)
	c.JSON(resp.Status, resp)
}

func (h *PlaceHandler) Search(c *gin.Context) {
	q := c.Query("q")
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	hits, err := h.Svc.Search(c.Request.Context(), q, size)
	if err != nil {
		h.fail(c, err, "place search failed")
		return
	}
	resp := response.Success(c, http.StatusOK, hits, "search results", nil)
	c.JSON(resp.Status, resp)
}

func (h *PlaceHandler) placeError(c *gin.Context, err error, logMsg string) {
	switch {
	case errors.Is(err, application.ErrPlaceNotFound):
		resp := response.Error[any](c, http.StatusNotFound, "could not find a place for the provided id", nil)
		c.JSON(resp.Status, resp)
	case errors.Is(err, application.ErrForbidden):
		resp := response.Error[any](c, http.StatusForbidden, "you are not allowed to modify this place", nil)
		c.JSON(resp.Status, resp)
	default:
		h.fail(c, err, logMsg)
	}
}

// fail logs the internal error and returns an opaque 500. Internal detail
// never reaches the client.
func (h *PlaceHandler) fail(c *gin.Context, err error, logMsg string) {
	if h.Logger != nil {
		h.Logger.WithError(err).WithField("path", c.FullPath()).Error(logMsg)
	}
	resp := response.Error[any](c, http.StatusInternalServerError, "something went wrong, please try again", nil)
	c.JSON(resp.Status, resp)
}
