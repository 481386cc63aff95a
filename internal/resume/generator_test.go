package resume

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"

	"resumeforge/internal/database"
	"resumeforge/internal/latex"
	"resumeforge/internal/pdf"
)

type fakeStore struct {
	uploaded map[string][]byte
	failFor  string
}

func newFakeStore() *fakeStore {
	return &fakeStore{uploaded: map[string][]byte{}}
}

func (s *fakeStore) UploadFile(_ context.Context, objectName string, reader io.Reader, _ int64, _ string) (*minio.UploadInfo, error) {
	if s.failFor != "" && strings.HasSuffix(objectName, s.failFor) {
		return nil, errors.New("upload refused")
	}
	b, _ := io.ReadAll(reader)
	s.uploaded[objectName] = b
	return &minio.UploadInfo{}, nil
}

func (s *fakeStore) GeneratePresignedURL(_ context.Context, objectKey string, _ time.Duration) (string, error) {
	return "https://example.invalid/" + objectKey, nil
}

func (s *fakeStore) keyWithSuffix(suffix string) string {
	for key := range s.uploaded {
		if strings.HasSuffix(key, suffix) {
			return key
		}
	}
	return ""
}

type fakeCompiler struct {
	pdf   []byte
	err   error
	calls int
}

func (f *fakeCompiler) Compile(_ context.Context, workDir, texPath, outputName string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if _, err := os.Stat(texPath); err != nil {
		return "", err
	}
	path := filepath.Join(workDir, outputName)
	if err := os.WriteFile(path, f.pdf, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

type fakeThumbnailer struct {
	png []byte
	err error
}

func (f *fakeThumbnailer) FirstPagePNG(_ context.Context, _ string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.png, nil
}

func newTestGenerator(t *testing.T, store *fakeStore, compiler *fakeCompiler, thumbs *fakeThumbnailer) (*Generator, database.User, database.CustomResume) {
	t.Helper()
	db := newTestDB(t)
	user := seedUser(t, db)
	edu := seedEducation(t, db, user.ID, "MIT")

	rec := database.CustomResume{
		Name:         "backend engineer",
		EducationIDs: []uuid.UUID{edu.ID},
	}
	rec.Claim(user.ID)
	if err := db.Create(&rec).Error; err != nil {
		t.Fatalf("create resume: %v", err)
	}

	g := NewGenerator(db, store, compiler, thumbs, latex.DefaultTemplate, 1, nil)
	return g, user, rec
}

func TestGenerateHappyPath(t *testing.T) {
	store := newFakeStore()
	compiler := &fakeCompiler{pdf: []byte("%PDF-1.5 fake")}
	thumbs := &fakeThumbnailer{png: []byte{0x89, 'P', 'N', 'G'}}
	g, user, rec := newTestGenerator(t, store, compiler, thumbs)

	result, err := g.Generate(context.Background(), user.ID, rec.ID)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if string(result.PDF) != "%PDF-1.5 fake" {
		t.Fatalf("pdf bytes = %q", result.PDF)
	}
	if len(result.Warnings) != 0 {
		t.Fatalf("warnings = %v, want none", result.Warnings)
	}

	prefix := "resumes/" + user.ID.String() + "/" + rec.ID.String() + "/"
	for _, suffix := range []string{".tex", ".pdf", ".png"} {
		key := store.keyWithSuffix(suffix)
		if key == "" {
			t.Fatalf("no %s artifact uploaded, keys: %v", suffix, store.uploaded)
		}
		if !strings.HasPrefix(key, prefix) {
			t.Fatalf("artifact key %q outside resume prefix %q", key, prefix)
		}
	}

	texKey := store.keyWithSuffix(".tex")
	if !strings.Contains(string(store.uploaded[texKey]), `\section{Education}`) {
		t.Fatal("uploaded source misses the education section")
	}

	var persisted database.CustomResume
	if err := g.db.First(&persisted, "id = ?", rec.ID).Error; err != nil {
		t.Fatalf("reload resume: %v", err)
	}
	if persisted.PdfObjectKey != result.Document.ObjectKey {
		t.Fatalf("persisted pdf key = %q, want %q", persisted.PdfObjectKey, result.Document.ObjectKey)
	}
	if persisted.ThumbnailObjectKey == "" || persisted.RenderedAt == nil {
		t.Fatalf("artifact metadata not persisted: %+v", persisted)
	}
}

func TestGenerateThumbnailFailureIsWarning(t *testing.T) {
	store := newFakeStore()
	compiler := &fakeCompiler{pdf: []byte("%PDF-1.5 fake")}
	thumbs := &fakeThumbnailer{err: errors.New("gs exploded")}
	g, user, rec := newTestGenerator(t, store, compiler, thumbs)

	result, err := g.Generate(context.Background(), user.ID, rec.ID)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if len(result.Warnings) != 1 {
		t.Fatalf("warnings = %v, want one", result.Warnings)
	}
	if result.Thumbnail.ObjectKey != "" {
		t.Fatalf("thumbnail artifact = %+v, want zero", result.Thumbnail)
	}
	if key := store.keyWithSuffix(".png"); key != "" {
		t.Fatalf("png uploaded despite thumbnail failure: %s", key)
	}

	var persisted database.CustomResume
	if err := g.db.First(&persisted, "id = ?", rec.ID).Error; err != nil {
		t.Fatalf("reload resume: %v", err)
	}
	if persisted.ThumbnailObjectKey != "" {
		t.Fatal("thumbnail key persisted despite failure")
	}
	if persisted.PdfObjectKey == "" {
		t.Fatal("pdf artifact should persist regardless of thumbnail")
	}
}

func TestGenerateEmptyDocumentSkipsThumbnail(t *testing.T) {
	store := newFakeStore()
	compiler := &fakeCompiler{pdf: []byte("%PDF-1.5 fake")}
	thumbs := &fakeThumbnailer{err: pdf.ErrNoPages}
	g, user, rec := newTestGenerator(t, store, compiler, thumbs)

	result, err := g.Generate(context.Background(), user.ID, rec.ID)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(result.Warnings) != 1 {
		t.Fatalf("warnings = %v, want one", result.Warnings)
	}
}

func TestGenerateCompileFailure(t *testing.T) {
	store := newFakeStore()
	compileErr := &pdf.CompileError{Output: "! Undefined control sequence.", Err: errors.New("exit status 1")}
	compiler := &fakeCompiler{err: compileErr}
	thumbs := &fakeThumbnailer{}
	g, user, rec := newTestGenerator(t, store, compiler, thumbs)

	_, err := g.Generate(context.Background(), user.ID, rec.ID)

	var got *pdf.CompileError
	if !errors.As(err, &got) {
		t.Fatalf("err = %v, want *pdf.CompileError", err)
	}
	if len(store.uploaded) != 0 {
		t.Fatalf("artifacts uploaded despite compile failure: %v", store.uploaded)
	}
}

func TestGenerateUploadFailureIsFatal(t *testing.T) {
	store := newFakeStore()
	store.failFor = ".pdf"
	compiler := &fakeCompiler{pdf: []byte("%PDF-1.5 fake")}
	thumbs := &fakeThumbnailer{png: []byte("png")}
	g, user, rec := newTestGenerator(t, store, compiler, thumbs)

	_, err := g.Generate(context.Background(), user.ID, rec.ID)

	var upload *UploadError
	if !errors.As(err, &upload) {
		t.Fatalf("err = %v, want *UploadError", err)
	}

	var persisted database.CustomResume
	if err := g.db.First(&persisted, "id = ?", rec.ID).Error; err != nil {
		t.Fatalf("reload resume: %v", err)
	}
	if persisted.RenderedAt != nil {
		t.Fatal("rendered_at persisted despite upload failure")
	}
}

func TestGenerateUnknownResume(t *testing.T) {
	store := newFakeStore()
	g, user, _ := newTestGenerator(t, store, &fakeCompiler{pdf: []byte("x")}, &fakeThumbnailer{})

	_, err := g.Generate(context.Background(), user.ID, uuid.New())
	if !errors.Is(err, ErrResumeNotFound) {
		t.Fatalf("err = %v, want ErrResumeNotFound", err)
	}
}

func TestGenerateOtherUsersResume(t *testing.T) {
	store := newFakeStore()
	g, _, rec := newTestGenerator(t, store, &fakeCompiler{pdf: []byte("x")}, &fakeThumbnailer{})

	_, err := g.Generate(context.Background(), uuid.New(), rec.ID)
	if !errors.Is(err, ErrResumeNotFound) {
		t.Fatalf("err = %v, want ErrResumeNotFound", err)
	}
}

func TestRenderWaitsForSlot(t *testing.T) {
	store := newFakeStore()
	g, user, rec := newTestGenerator(t, store, &fakeCompiler{pdf: []byte("x")}, &fakeThumbnailer{png: []byte("png")})

	// Occupy the only slot, then cancel: Render must give up instead of
	// compiling concurrently.
	g.slots <- struct{}{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Generate(ctx, user.ID, rec.ID)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}

	<-g.slots
}
