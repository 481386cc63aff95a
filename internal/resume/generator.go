package resume

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"gorm.io/gorm"

	"resumeforge/internal/database"
	"resumeforge/internal/errcode"
	"resumeforge/internal/latex"
	"resumeforge/internal/pdf"
	"resumeforge/internal/storage"
)

// Stored artifact URLs expire; the download-link endpoint re-signs on
// demand for anything older.
const artifactURLTTL = 24 * time.Hour

// TexCompiler turns a .tex file into a PDF inside workDir.
type TexCompiler interface {
	Compile(ctx context.Context, workDir, texPath, outputName string) (string, error)
}

// Thumbnailer renders the first page of a PDF as PNG bytes.
type Thumbnailer interface {
	FirstPagePNG(ctx context.Context, path string) ([]byte, error)
}

// ArtifactStore is the slice of the object store the pipeline needs.
type ArtifactStore interface {
	UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (*minio.UploadInfo, error)
	GeneratePresignedURL(ctx context.Context, objectKey string, duration time.Duration) (string, error)
}

// Artifact names one stored render output.
type Artifact struct {
	ObjectKey string `json:"object_key"`
	URL       string `json:"url"`
}

// Warning is a non-fatal defect of a render run.
type Warning struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// RenderResult is the outcome of one completed pipeline run.
type RenderResult struct {
	PDF       []byte
	Source    Artifact
	Document  Artifact
	Thumbnail Artifact // zero value when the thumbnail was skipped
	Warnings  []Warning
}

// Generator runs the render pipeline: populate, render, compile,
// thumbnail, upload, persist. The API and the worker each run one; the
// slot channel bounds concurrent compiles within the process.
type Generator struct {
	db       *gorm.DB
	store    ArtifactStore
	compiler TexCompiler
	thumbs   Thumbnailer
	template string
	slots    chan struct{}
	logger   *slog.Logger
}

// NewGenerator wires the pipeline. renderSlots caps concurrent compiles;
// non-positive values fall back to 2.
func NewGenerator(db *gorm.DB, store ArtifactStore, compiler TexCompiler, thumbs Thumbnailer, template string, renderSlots int, logger *slog.Logger) *Generator {
	if renderSlots <= 0 {
		renderSlots = 2
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		db:       db,
		store:    store,
		compiler: compiler,
		thumbs:   thumbs,
		template: template,
		slots:    make(chan struct{}, renderSlots),
		logger:   logger,
	}
}

// Generate loads the owner's resume record and runs the pipeline on it.
func (g *Generator) Generate(ctx context.Context, userID, resumeID uuid.UUID) (*RenderResult, error) {
	var rec database.CustomResume
	err := g.db.WithContext(ctx).First(&rec, "id = ? AND user_id = ?", resumeID, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrResumeNotFound
		}
		return nil, fmt.Errorf("load resume: %w", err)
	}
	return g.Render(ctx, &rec)
}

// Render runs the pipeline for an already-loaded record. It blocks on a
// render slot first so a burst of requests cannot fork-bomb the LaTeX
// engine.
func (g *Generator) Render(ctx context.Context, rec *database.CustomResume) (*RenderResult, error) {
	select {
	case g.slots <- struct{}{}:
		defer func() { <-g.slots }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	sel, err := Populate(g.db.WithContext(ctx), rec)
	if err != nil {
		return nil, err
	}

	doc, err := latex.ComposeDocument(g.template, sel.Fragments())
	if err != nil {
		return nil, err
	}

	workDir, err := os.MkdirTemp("", "resumeforge-render-*")
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			g.logger.Warn("remove scratch dir failed",
				slog.String("dir", workDir),
				slog.String("error", err.Error()),
			)
		}
	}()

	texPath := filepath.Join(workDir, "resume.tex")
	if err := os.WriteFile(texPath, []byte(doc), 0o600); err != nil {
		return nil, fmt.Errorf("write tex source: %w", err)
	}

	pdfPath, err := g.compiler.Compile(ctx, workDir, texPath, "resume.pdf")
	if err != nil {
		return nil, err
	}
	pdfBytes, err := os.ReadFile(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("read compiled pdf: %w", err)
	}

	result := &RenderResult{PDF: pdfBytes}

	// Thumbnail is best effort. A resume without one still lists and
	// downloads fine.
	var thumbPNG []byte
	if png, thumbErr := g.thumbs.FirstPagePNG(ctx, pdfPath); thumbErr != nil {
		code := errcode.ThumbnailFailed
		if errors.Is(thumbErr, pdf.ErrNoPages) {
			code = errcode.ThumbnailSkipped
		}
		g.logger.Warn("thumbnail render failed",
			slog.String("resume_id", rec.ID.String()),
			slog.String("error", thumbErr.Error()),
		)
		result.Warnings = append(result.Warnings, Warning{Code: code, Message: thumbErr.Error()})
	} else {
		thumbPNG = png
	}

	renderID := uuid.New()
	result.Source, err = g.upload(ctx, storage.ResumeArtifactKey(rec.UserID, rec.ID, renderID, ".tex"), []byte(doc), "text/x-tex")
	if err != nil {
		return nil, err
	}
	result.Document, err = g.upload(ctx, storage.ResumeArtifactKey(rec.UserID, rec.ID, renderID, ".pdf"), pdfBytes, "application/pdf")
	if err != nil {
		return nil, err
	}
	if thumbPNG != nil {
		thumbKey := storage.ResumeArtifactKey(rec.UserID, rec.ID, renderID, ".png")
		if art, upErr := g.upload(ctx, thumbKey, thumbPNG, "image/png"); upErr != nil {
			g.logger.Warn("thumbnail upload failed",
				slog.String("resume_id", rec.ID.String()),
				slog.String("error", upErr.Error()),
			)
			result.Warnings = append(result.Warnings, Warning{Code: errcode.ThumbnailFailed, Message: upErr.Error()})
		} else {
			result.Thumbnail = art
		}
	}

	now := time.Now().UTC()
	updates := map[string]any{
		"source_url":        result.Source.URL,
		"source_object_key": result.Source.ObjectKey,
		"pdf_url":           result.Document.URL,
		"pdf_object_key":    result.Document.ObjectKey,
		"rendered_at":       now,
	}
	if result.Thumbnail.ObjectKey != "" {
		updates["thumbnail_url"] = result.Thumbnail.URL
		updates["thumbnail_object_key"] = result.Thumbnail.ObjectKey
	}
	if err := g.db.WithContext(ctx).Model(&database.CustomResume{}).Where("id = ?", rec.ID).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("persist artifact metadata: %w", err)
	}

	rec.SourceURL = result.Source.URL
	rec.SourceObjectKey = result.Source.ObjectKey
	rec.PdfURL = result.Document.URL
	rec.PdfObjectKey = result.Document.ObjectKey
	if result.Thumbnail.ObjectKey != "" {
		rec.ThumbnailURL = result.Thumbnail.URL
		rec.ThumbnailObjectKey = result.Thumbnail.ObjectKey
	}
	rec.RenderedAt = &now

	return result, nil
}

func (g *Generator) upload(ctx context.Context, key string, data []byte, contentType string) (Artifact, error) {
	if _, err := g.store.UploadFile(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return Artifact{}, &UploadError{Key: key, Err: err}
	}
	url, err := g.store.GeneratePresignedURL(ctx, key, artifactURLTTL)
	if err != nil {
		return Artifact{}, &UploadError{Key: key, Err: err}
	}
	return Artifact{ObjectKey: key, URL: url}, nil
}
