package pdf

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pdfinfoSample = `Title:          resume
Producer:       pdfTeX-1.40.25
Pages:          2
Page size:      612 x 792 pts (letter)
File size:      24512 bytes
`

func pngOutputPath(t *testing.T, args []string) string {
	t.Helper()
	for i, arg := range args {
		if arg == "-o" {
			require.Less(t, i+1, len(args))
			return args[i+1]
		}
	}
	t.Fatal("gs args carry no -o flag")
	return ""
}

func TestPageCount(t *testing.T) {
	exec := &fakeExec{run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte(pdfinfoSample), nil
	}}

	r := NewRasterizer("pdfinfo", "gs", 2.0, exec)
	pages, err := r.PageCount(context.Background(), "/tmp/resume.pdf")
	require.NoError(t, err)
	assert.Equal(t, 2, pages)

	require.Len(t, exec.calls, 1)
	assert.Equal(t, []string{"pdfinfo", "/tmp/resume.pdf"}, exec.calls[0])
}

func TestPageCountMissingPagesLine(t *testing.T) {
	exec := &fakeExec{run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte("Producer: pdfTeX\n"), nil
	}}

	r := NewRasterizer("pdfinfo", "gs", 2.0, exec)
	_, err := r.PageCount(context.Background(), "/tmp/resume.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no Pages line")
}

func TestPageCountToolFailure(t *testing.T) {
	exec := &fakeExec{run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return nil, errors.New("exit status 1")
	}}

	r := NewRasterizer("pdfinfo", "gs", 2.0, exec)
	_, err := r.PageCount(context.Background(), "/tmp/missing.pdf")
	assert.Error(t, err)
}

func TestFirstPagePNG(t *testing.T) {
	dir := t.TempDir()
	pdfPath := dir + "/resume.pdf"
	require.NoError(t, os.WriteFile(pdfPath, []byte("%PDF-1.5"), 0o644))

	want := []byte{0x89, 'P', 'N', 'G'}
	exec := &fakeExec{run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
		if name == "pdfinfo" {
			return []byte("Pages: 1\n"), nil
		}
		out := pngOutputPath(t, args)
		require.NoError(t, os.WriteFile(out, want, 0o644))
		return nil, nil
	}}

	r := NewRasterizer("pdfinfo", "gs", 2.0, exec)
	png, err := r.FirstPagePNG(context.Background(), pdfPath)
	require.NoError(t, err)
	assert.Equal(t, want, png)

	require.Len(t, exec.calls, 2)
	gsCall := exec.calls[1]
	assert.Equal(t, "gs", gsCall[0])
	assert.Contains(t, gsCall, "-sDEVICE=png16m")
	assert.Contains(t, gsCall, "-r144")
	assert.Contains(t, gsCall, "-dFirstPage=1")
	assert.Contains(t, gsCall, "-dLastPage=1")
	assert.Equal(t, pdfPath, gsCall[len(gsCall)-1])
}

func TestFirstPagePNGZoomScalesDPI(t *testing.T) {
	dir := t.TempDir()
	pdfPath := dir + "/resume.pdf"
	require.NoError(t, os.WriteFile(pdfPath, []byte("%PDF-1.5"), 0o644))

	exec := &fakeExec{run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
		if name == "pdfinfo" {
			return []byte("Pages: 1\n"), nil
		}
		require.NoError(t, os.WriteFile(pngOutputPath(t, args), []byte("png"), 0o644))
		return nil, nil
	}}

	r := NewRasterizer("pdfinfo", "gs", 1.5, exec)
	_, err := r.FirstPagePNG(context.Background(), pdfPath)
	require.NoError(t, err)

	require.Len(t, exec.calls, 2)
	assert.Contains(t, exec.calls[1], "-r108")
}

func TestFirstPagePNGEmptyDocument(t *testing.T) {
	exec := &fakeExec{run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte("Pages: 0\n"), nil
	}}

	r := NewRasterizer("pdfinfo", "gs", 2.0, exec)
	_, err := r.FirstPagePNG(context.Background(), "/tmp/empty.pdf")
	assert.ErrorIs(t, err, ErrNoPages)
}

func TestFirstPagePNGGhostscriptFailure(t *testing.T) {
	exec := &fakeExec{run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
		if name == "pdfinfo" {
			return []byte("Pages: 1\n"), nil
		}
		return []byte("GPL Ghostscript: Unrecoverable error"), errors.New("exit status 1")
	}}

	r := NewRasterizer("pdfinfo", "gs", 2.0, exec)
	_, err := r.FirstPagePNG(context.Background(), "/tmp/resume.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unrecoverable error")
}
