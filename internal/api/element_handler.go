package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"resumeforge/internal/api/middleware"
	"resumeforge/internal/database"
	"resumeforge/internal/latex"
)

// elementPtr ties a row type to the methods the generic handlers need.
type elementPtr[M any] interface {
	*M
	Claim(uuid.UUID)
	RecordID() uuid.UUID
}

// ElementHandler serves the REST surface of one element kind. M is the
// row type, R the request DTO; apply copies a bound DTO onto a row, so
// update is a full replace through the same request shape as create.
type ElementHandler[M any, PM elementPtr[M], R any] struct {
	db    *gorm.DB
	kind  latex.Kind
	apply func(*M, R)
}

// NewElementHandler builds the handler for one element kind.
func NewElementHandler[M any, PM elementPtr[M], R any](db *gorm.DB, kind latex.Kind, apply func(*M, R)) *ElementHandler[M, PM, R] {
	return &ElementHandler[M, PM, R]{db: db, kind: kind, apply: apply}
}

// Register wires the CRUD routes under group.
func (h *ElementHandler[M, PM, R]) Register(group *gin.RouterGroup) {
	group.GET("", h.List)
	group.POST("", h.Create)
	group.GET("/:id", h.Get)
	group.PUT("/:id", h.Update)
	group.DELETE("/:id", h.Delete)
}

// List returns every element of this kind owned by the caller, oldest
// first.
func (h *ElementHandler[M, PM, R]) List(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var rows []M
	if err := h.db.WithContext(c.Request.Context()).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		middleware.LoggerFromContext(c).Error("list elements failed",
			slog.String("kind", h.kind.String()),
			slog.Any("error", err),
		)
		Internal(c, "internal error")
		return
	}

	c.JSON(http.StatusOK, rows)
}

// Get returns one element by id.
func (h *ElementHandler[M, PM, R]) Get(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	id, ok := pathID(c)
	if !ok {
		BadRequest(c, "invalid id")
		return
	}

	var row M
	if err := h.db.WithContext(c.Request.Context()).
		First(&row, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, h.kind.String()+" not found")
			return
		}
		middleware.LoggerFromContext(c).Error("load element failed",
			slog.String("kind", h.kind.String()),
			slog.Any("error", err),
		)
		Internal(c, "internal error")
		return
	}

	c.JSON(http.StatusOK, row)
}

// Create inserts a new element owned by the caller.
func (h *ElementHandler[M, PM, R]) Create(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var req R
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	var row M
	h.apply(&row, req)
	PM(&row).Claim(userID)

	if err := h.db.WithContext(c.Request.Context()).Create(&row).Error; err != nil {
		middleware.LoggerFromContext(c).Error("create element failed",
			slog.String("kind", h.kind.String()),
			slog.Any("error", err),
		)
		Internal(c, "internal error")
		return
	}

	c.JSON(http.StatusCreated, row)
}

// Update replaces an element's content wholesale.
func (h *ElementHandler[M, PM, R]) Update(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	id, ok := pathID(c)
	if !ok {
		BadRequest(c, "invalid id")
		return
	}

	var req R
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	var row M
	if err := h.db.WithContext(ctx).
		First(&row, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, h.kind.String()+" not found")
			return
		}
		middleware.LoggerFromContext(c).Error("load element failed",
			slog.String("kind", h.kind.String()),
			slog.Any("error", err),
		)
		Internal(c, "internal error")
		return
	}

	h.apply(&row, req)
	if err := h.db.WithContext(ctx).Save(&row).Error; err != nil {
		middleware.LoggerFromContext(c).Error("update element failed",
			slog.String("kind", h.kind.String()),
			slog.Any("error", err),
		)
		Internal(c, "internal error")
		return
	}

	c.JSON(http.StatusOK, row)
}

// Delete removes an element. Resumes referencing it keep the dangling
// id and fail validation at their next render.
func (h *ElementHandler[M, PM, R]) Delete(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	id, ok := pathID(c)
	if !ok {
		BadRequest(c, "invalid id")
		return
	}

	res := h.db.WithContext(c.Request.Context()).
		Delete(new(M), "id = ? AND user_id = ?", id, userID)
	if res.Error != nil {
		middleware.LoggerFromContext(c).Error("delete element failed",
			slog.String("kind", h.kind.String()),
			slog.Any("error", res.Error),
		)
		Internal(c, "internal error")
		return
	}
	if res.RowsAffected == 0 {
		NotFound(c, h.kind.String()+" not found")
		return
	}

	c.Status(http.StatusNoContent)
}

// ElementsIndexHandler serves the grouped view over all element kinds.
type ElementsIndexHandler struct {
	db *gorm.DB
}

// NewElementsIndexHandler builds the grouped-view handler.
func NewElementsIndexHandler(db *gorm.DB) *ElementsIndexHandler {
	return &ElementsIndexHandler{db: db}
}

type elementsIndexResponse struct {
	Headings       []database.Heading       `json:"headings"`
	Educations     []database.Education     `json:"educations"`
	Experiences    []database.Experience    `json:"experiences"`
	Projects       []database.Project       `json:"projects"`
	Skills         []database.Skill         `json:"skills"`
	Certifications []database.Certification `json:"certifications"`
	Awards         []database.Award         `json:"awards"`
	Volunteers     []database.Volunteer     `json:"volunteers"`
}

// List returns every element the caller owns, grouped by kind.
func (h *ElementsIndexHandler) List(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	ctx := c.Request.Context()
	scope := func() *gorm.DB {
		return h.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at ASC")
	}

	resp := elementsIndexResponse{
		Headings:       []database.Heading{},
		Educations:     []database.Education{},
		Experiences:    []database.Experience{},
		Projects:       []database.Project{},
		Skills:         []database.Skill{},
		Certifications: []database.Certification{},
		Awards:         []database.Award{},
		Volunteers:     []database.Volunteer{},
	}

	for _, load := range []func() error{
		func() error { return scope().Find(&resp.Headings).Error },
		func() error { return scope().Find(&resp.Educations).Error },
		func() error { return scope().Find(&resp.Experiences).Error },
		func() error { return scope().Find(&resp.Projects).Error },
		func() error { return scope().Find(&resp.Skills).Error },
		func() error { return scope().Find(&resp.Certifications).Error },
		func() error { return scope().Find(&resp.Awards).Error },
		func() error { return scope().Find(&resp.Volunteers).Error },
	} {
		if err := load(); err != nil {
			middleware.LoggerFromContext(c).Error("list elements failed", slog.Any("error", err))
			Internal(c, "internal error")
			return
		}
	}

	c.JSON(http.StatusOK, resp)
}
