package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/minio/minio-go/v7"
	"gorm.io/gorm"

	"resumeforge/internal/api/middleware"
	"resumeforge/internal/database"
	"resumeforge/internal/errcode"
	"resumeforge/internal/latex"
	"resumeforge/internal/pdf"
	"resumeforge/internal/resume"
	"resumeforge/internal/storage"
	"resumeforge/internal/tasks"
)

// objectStore is the slice of the storage client the handlers use.
// *storage.Client satisfies it; tests inject fakes.
type objectStore interface {
	UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (*minio.UploadInfo, error)
	GeneratePresignedURL(ctx context.Context, objectKey string, duration time.Duration) (string, error)
	GeneratePresignedURLWithParams(ctx context.Context, objectKey string, duration time.Duration, params map[string]string) (string, error)
	DeletePrefix(ctx context.Context, prefix string) error
}

// renderRunner runs the pipeline for a loaded resume record.
// *resume.Generator satisfies it.
type renderRunner interface {
	Render(ctx context.Context, rec *database.CustomResume) (*resume.RenderResult, error)
}

// ResumeHandler serves the custom resume API: assembly, rendering and
// artifact access.
type ResumeHandler struct {
	db          *gorm.DB
	asynqClient *asynq.Client
	storage     objectStore
	generator   renderRunner
	maxResumes  int
}

// NewResumeHandler builds the handler.
func NewResumeHandler(db *gorm.DB, asynqClient *asynq.Client, storageClient objectStore, generator renderRunner, maxResumes int) *ResumeHandler {
	return &ResumeHandler{
		db:          db,
		asynqClient: asynqClient,
		storage:     storageClient,
		generator:   generator,
		maxResumes:  maxResumes,
	}
}

var errInvalidResumeID = errors.New("invalid resume id")

type createResumeRequest struct {
	Name             string   `json:"name" binding:"required,max=255"`
	HeadingIDs       []string `json:"heading_ids"`
	EducationIDs     []string `json:"education_ids"`
	ExperienceIDs    []string `json:"experience_ids"`
	ProjectIDs       []string `json:"project_ids"`
	SkillIDs         []string `json:"skill_ids"`
	CertificationIDs []string `json:"certification_ids"`
	AwardIDs         []string `json:"award_ids"`
	VolunteerIDs     []string `json:"volunteer_ids"`
}

// refMap lists every kind: a resume is created with exactly the lists
// the request names, absent ones empty.
func (r createResumeRequest) refMap() map[latex.Kind][]string {
	m := map[latex.Kind][]string{
		latex.KindHeading:       r.HeadingIDs,
		latex.KindEducation:     r.EducationIDs,
		latex.KindExperience:    r.ExperienceIDs,
		latex.KindProject:       r.ProjectIDs,
		latex.KindSkill:         r.SkillIDs,
		latex.KindCertification: r.CertificationIDs,
		latex.KindAward:         r.AwardIDs,
		latex.KindVolunteer:     r.VolunteerIDs,
	}
	for kind, ids := range m {
		if ids == nil {
			m[kind] = []string{}
		}
	}
	return m
}

type updateResumeRequest struct {
	Name             *string   `json:"name" binding:"omitempty,max=255"`
	HeadingIDs       *[]string `json:"heading_ids"`
	EducationIDs     *[]string `json:"education_ids"`
	ExperienceIDs    *[]string `json:"experience_ids"`
	ProjectIDs       *[]string `json:"project_ids"`
	SkillIDs         *[]string `json:"skill_ids"`
	CertificationIDs *[]string `json:"certification_ids"`
	AwardIDs         *[]string `json:"award_ids"`
	VolunteerIDs     *[]string `json:"volunteer_ids"`
}

// refMap lists only the kinds the patch carries.
func (r updateResumeRequest) refMap() map[latex.Kind][]string {
	m := map[latex.Kind][]string{}
	if r.HeadingIDs != nil {
		m[latex.KindHeading] = *r.HeadingIDs
	}
	if r.EducationIDs != nil {
		m[latex.KindEducation] = *r.EducationIDs
	}
	if r.ExperienceIDs != nil {
		m[latex.KindExperience] = *r.ExperienceIDs
	}
	if r.ProjectIDs != nil {
		m[latex.KindProject] = *r.ProjectIDs
	}
	if r.SkillIDs != nil {
		m[latex.KindSkill] = *r.SkillIDs
	}
	if r.CertificationIDs != nil {
		m[latex.KindCertification] = *r.CertificationIDs
	}
	if r.AwardIDs != nil {
		m[latex.KindAward] = *r.AwardIDs
	}
	if r.VolunteerIDs != nil {
		m[latex.KindVolunteer] = *r.VolunteerIDs
	}
	return m
}

type resumeListItem struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	PdfURL       string     `json:"pdf_url,omitempty"`
	ThumbnailURL string     `json:"thumbnail_url,omitempty"`
	RenderedAt   *time.Time `json:"rendered_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type resumeDetailResponse struct {
	Resume   database.CustomResume `json:"resume"`
	Elements elementsIndexResponse `json:"elements"`
}

// CreateResume validates the reference lists, persists the record and
// runs the full render pipeline. Responds with the PDF bytes. The
// record survives a failed render; the client can retry generation
// without re-submitting the assembly.
func (h *ResumeHandler) CreateResume(c *gin.Context) {
	var req createResumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	ctx := c.Request.Context()

	var count int64
	if err := h.db.WithContext(ctx).
		Model(&database.CustomResume{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		Internal(c, "failed to count resumes")
		return
	}
	if h.maxResumes > 0 && count >= int64(h.maxResumes) {
		Forbidden(c, "resume limit reached")
		return
	}

	set, err := resume.ParseRefSet(req.refMap())
	if err != nil {
		h.respondRenderError(c, err)
		return
	}
	if err := resume.Validate(h.db.WithContext(ctx), userID, set); err != nil {
		h.respondRenderError(c, err)
		return
	}

	rec := database.CustomResume{Name: strings.TrimSpace(req.Name)}
	set.Apply(&rec)
	rec.Claim(userID)

	if err := h.db.WithContext(ctx).Create(&rec).Error; err != nil {
		Internal(c, "failed to create resume")
		return
	}
	c.Header("X-Resume-Id", rec.ID.String())

	result, err := h.generator.Render(ctx, &rec)
	if err != nil {
		h.respondRenderError(c, err)
		return
	}

	h.respondWithPDF(c, http.StatusCreated, &rec, result)
}

// ListResumes lists the caller's resumes, newest change first.
func (h *ResumeHandler) ListResumes(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var resumes []database.CustomResume
	if err := h.db.WithContext(c.Request.Context()).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&resumes).Error; err != nil {
		Internal(c, "failed to list resumes")
		return
	}

	items := make([]resumeListItem, 0, len(resumes))
	for _, r := range resumes {
		items = append(items, resumeListItem{
			ID:           r.ID,
			Name:         r.Name,
			PdfURL:       r.PdfURL,
			ThumbnailURL: r.ThumbnailURL,
			RenderedAt:   r.RenderedAt,
			CreatedAt:    r.CreatedAt,
			UpdatedAt:    r.UpdatedAt,
		})
	}

	c.JSON(http.StatusOK, items)
}

// GetResume returns the record together with its populated elements.
func (h *ResumeHandler) GetResume(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	rec, err := h.getResumeForUser(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.respondLookupError(c, err)
		return
	}

	sel, err := resume.Populate(h.db.WithContext(c.Request.Context()), rec)
	if err != nil {
		h.respondRenderError(c, err)
		return
	}

	c.JSON(http.StatusOK, resumeDetailResponse{
		Resume: *rec,
		Elements: elementsIndexResponse{
			Headings:       sel.Headings,
			Educations:     sel.Educations,
			Experiences:    sel.Experiences,
			Projects:       sel.Projects,
			Skills:         sel.Skills,
			Certifications: sel.Certifications,
			Awards:         sel.Awards,
			Volunteers:     sel.Volunteers,
		},
	})
}

// UpdateResume patches the name and any reference lists the request
// carries, then re-runs the pipeline. Responds with the fresh PDF.
func (h *ResumeHandler) UpdateResume(c *gin.Context) {
	var req updateResumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	ctx := c.Request.Context()
	rec, err := h.getResumeForUser(ctx, c.Param("id"), userID)
	if err != nil {
		h.respondLookupError(c, err)
		return
	}

	set, err := resume.ParseRefSet(req.refMap())
	if err != nil {
		h.respondRenderError(c, err)
		return
	}
	if err := resume.Validate(h.db.WithContext(ctx), userID, set); err != nil {
		h.respondRenderError(c, err)
		return
	}

	if req.Name != nil {
		rec.Name = strings.TrimSpace(*req.Name)
	}
	set.Apply(rec)

	if err := h.db.WithContext(ctx).Save(rec).Error; err != nil {
		Internal(c, "failed to update resume")
		return
	}
	c.Header("X-Resume-Id", rec.ID.String())

	result, err := h.generator.Render(ctx, rec)
	if err != nil {
		h.respondRenderError(c, err)
		return
	}

	h.respondWithPDF(c, http.StatusOK, rec, result)
}

// GenerateResume re-runs the pipeline without touching the assembly.
func (h *ResumeHandler) GenerateResume(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	ctx := c.Request.Context()
	rec, err := h.getResumeForUser(ctx, c.Param("id"), userID)
	if err != nil {
		h.respondLookupError(c, err)
		return
	}
	c.Header("X-Resume-Id", rec.ID.String())

	result, err := h.generator.Render(ctx, rec)
	if err != nil {
		h.respondRenderError(c, err)
		return
	}

	h.respondWithPDF(c, http.StatusOK, rec, result)
}

// GenerateResumeAsync enqueues a render task and returns right away.
func (h *ResumeHandler) GenerateResumeAsync(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	rec, err := h.getResumeForUser(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.respondLookupError(c, err)
		return
	}

	correlationID := middleware.GetCorrelationID(c)
	task, err := tasks.NewResumeRenderTask(rec.ID, userID, correlationID)
	if err != nil {
		Internal(c, "failed to create task")
		return
	}

	info, err := h.asynqClient.Enqueue(task, asynq.MaxRetry(5))
	if err != nil {
		Internal(c, "failed to enqueue render")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message": "render request accepted",
		"task_id": info.ID,
	})
}

// GetDownloadLink returns a short-lived presigned URL for the last
// rendered PDF.
func (h *ResumeHandler) GetDownloadLink(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	rec, err := h.getResumeForUser(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.respondLookupError(c, err)
		return
	}

	if rec.PdfObjectKey == "" {
		Conflict(c, "pdf not ready")
		return
	}
	if !storage.IsValidUserArtifactKey(userID, rec.PdfObjectKey) {
		middleware.LoggerFromContext(c).Error("stored pdf key escapes owner namespace",
			slog.String("key", rec.PdfObjectKey))
		Internal(c, "failed to generate download link")
		return
	}

	params := map[string]string{
		"response-content-disposition": fmt.Sprintf("attachment; filename=%q", downloadFilename(rec.Name)),
	}
	signedURL, err := h.storage.GeneratePresignedURLWithParams(c.Request.Context(), rec.PdfObjectKey, 5*time.Minute, params)
	if err != nil {
		middleware.LoggerFromContext(c).Error("generate download link failed", slog.Any("error", err))
		Internal(c, "failed to generate download link")
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": signedURL})
}

// DeleteResume removes the record and sweeps its artifacts from the
// object store. Referenced elements stay untouched.
func (h *ResumeHandler) DeleteResume(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	ctx := c.Request.Context()
	rec, err := h.getResumeForUser(ctx, c.Param("id"), userID)
	if err != nil {
		h.respondLookupError(c, err)
		return
	}

	if err := h.db.WithContext(ctx).Delete(&database.CustomResume{}, "id = ?", rec.ID).Error; err != nil {
		Internal(c, "failed to delete resume")
		return
	}

	// Artifact sweep is best effort; a leftover object costs storage,
	// not correctness.
	prefix := storage.ResumePrefix(userID, rec.ID)
	if err := h.storage.DeletePrefix(ctx, prefix); err != nil {
		middleware.LoggerFromContext(c).Warn("artifact sweep failed",
			slog.String("prefix", prefix),
			slog.Any("error", err),
		)
	}

	c.Status(http.StatusNoContent)
}

func (h *ResumeHandler) getResumeForUser(ctx context.Context, idParam string, userID uuid.UUID) (*database.CustomResume, error) {
	resumeID, err := uuid.Parse(strings.TrimSpace(idParam))
	if err != nil {
		return nil, errInvalidResumeID
	}

	var rec database.CustomResume
	if err := h.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", resumeID, userID).
		First(&rec).Error; err != nil {
		return nil, err
	}

	return &rec, nil
}

func (h *ResumeHandler) respondLookupError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errInvalidResumeID):
		BadRequest(c, "invalid resume id")
	case errors.Is(err, gorm.ErrRecordNotFound):
		NotFound(c, "resume not found")
	default:
		Internal(c, "failed to query resume")
	}
}

func (h *ResumeHandler) respondRenderError(c *gin.Context, err error) {
	logger := middleware.LoggerFromContext(c)

	var malformed *resume.MalformedIDError
	var missing *resume.MissingRefsError
	var compileErr *pdf.CompileError
	var uploadErr *resume.UploadError
	switch {
	case errors.As(err, &malformed):
		BadRequest(c, malformed.Error())
	case errors.As(err, &missing):
		NotFound(c, missing.Error())
	case errors.Is(err, resume.ErrResumeNotFound):
		NotFound(c, "resume not found")
	case errors.As(err, &compileErr):
		logger.Error("latex compile failed", slog.String("output", compileErr.Tail(40)))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "latex compile failed",
			"code":  errcode.CompileFailed,
		})
	case errors.As(err, &uploadErr):
		logger.Error("artifact upload failed", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "artifact upload failed",
			"code":  errcode.SystemError,
		})
	case errors.Is(err, latex.ErrTemplateMalformed):
		logger.Error("resume template malformed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "template misconfigured",
			"code":  errcode.SystemError,
		})
	default:
		logger.Error("render failed", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "internal error",
			"code":  errcode.SystemError,
		})
	}
}

func (h *ResumeHandler) respondWithPDF(c *gin.Context, status int, rec *database.CustomResume, result *resume.RenderResult) {
	if header := renderWarningsHeader(result.Warnings); header != "" {
		c.Header("X-Render-Warnings", header)
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", downloadFilename(rec.Name)))
	c.Data(status, "application/pdf", result.PDF)
}

func renderWarningsHeader(warnings []resume.Warning) string {
	if len(warnings) == 0 {
		return ""
	}
	codes := make([]string, 0, len(warnings))
	for _, w := range warnings {
		codes = append(codes, strconv.Itoa(w.Code))
	}
	return strings.Join(codes, ",")
}

// downloadFilename derives a safe attachment name from the resume name.
func downloadFilename(name string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	base := b.String()
	if base == "" {
		base = "resume"
	}
	return base + ".pdf"
}

func userIDFromContext(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get("userID")
	if !exists {
		return uuid.Nil, false
	}

	switch v := value.(type) {
	case uuid.UUID:
		return v, true
	case string:
		id, err := uuid.Parse(v)
		if err != nil {
			return uuid.Nil, false
		}
		return id, true
	default:
		return uuid.Nil, false
	}
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
