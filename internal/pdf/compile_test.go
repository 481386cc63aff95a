package pdf

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExec struct {
	calls [][]string
	run   func(ctx context.Context, name string, args ...string) ([]byte, error)
}

func (f *fakeExec) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	call := append([]string{name}, args...)
	f.calls = append(f.calls, call)
	return f.run(ctx, name, args...)
}

func writeTexFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(`\documentclass{article}\begin{document}hi\end{document}`), 0o644))
	return path
}

func TestCompileSuccess(t *testing.T) {
	workDir := t.TempDir()
	texPath := writeTexFile(t, workDir, "resume.tex")

	exec := &fakeExec{run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
		require.NoError(t, os.WriteFile(filepath.Join(workDir, "resume.pdf"), []byte("%PDF-1.5"), 0o644))
		return []byte("Output written on resume.pdf (1 page)."), nil
	}}

	c := NewCompiler("pdflatex", time.Minute, exec)
	pdfPath, err := c.Compile(context.Background(), workDir, texPath, "resume.pdf")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(workDir, "resume.pdf"), pdfPath)

	require.Len(t, exec.calls, 1)
	assert.Equal(t, []string{
		"pdflatex",
		"-interaction=nonstopmode",
		"-output-directory=" + workDir,
		texPath,
	}, exec.calls[0])
}

func TestCompileRenamesOutput(t *testing.T) {
	workDir := t.TempDir()
	texPath := writeTexFile(t, workDir, "source.tex")

	exec := &fakeExec{run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
		require.NoError(t, os.WriteFile(filepath.Join(workDir, "source.pdf"), []byte("%PDF-1.5"), 0o644))
		return nil, nil
	}}

	c := NewCompiler("pdflatex", time.Minute, exec)
	pdfPath, err := c.Compile(context.Background(), workDir, texPath, "final.pdf")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(workDir, "final.pdf"), pdfPath)

	_, err = os.Stat(pdfPath)
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(workDir, "source.pdf"))
	assert.True(t, os.IsNotExist(err))
}

func TestCompileEngineFailure(t *testing.T) {
	workDir := t.TempDir()
	texPath := writeTexFile(t, workDir, "broken.tex")

	exec := &fakeExec{run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte("! Undefined control sequence.\nl.4 \\resumeItem"), errors.New("exit status 1")
	}}

	c := NewCompiler("pdflatex", time.Minute, exec)
	_, err := c.Compile(context.Background(), workDir, texPath, "broken.pdf")

	var compileErr *CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Contains(t, compileErr.Output, "Undefined control sequence")
}

func TestCompileCleanExitWithoutPDF(t *testing.T) {
	workDir := t.TempDir()
	texPath := writeTexFile(t, workDir, "empty.tex")

	exec := &fakeExec{run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte("This is pdfTeX"), nil
	}}

	c := NewCompiler("pdflatex", time.Minute, exec)
	_, err := c.Compile(context.Background(), workDir, texPath, "empty.pdf")

	var compileErr *CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Contains(t, compileErr.Error(), "no pdf")
}

func TestCompileTimeout(t *testing.T) {
	workDir := t.TempDir()
	texPath := writeTexFile(t, workDir, "slow.tex")

	exec := &fakeExec{run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}

	c := NewCompiler("pdflatex", 10*time.Millisecond, exec)
	_, err := c.Compile(context.Background(), workDir, texPath, "slow.pdf")

	var compileErr *CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCompileErrorTail(t *testing.T) {
	e := &CompileError{Output: "line1\nline2\nline3\nline4\n", Err: errors.New("exit status 1")}

	assert.Equal(t, "line3\nline4", e.Tail(2))
	assert.Equal(t, "line1\nline2\nline3\nline4", e.Tail(10))
}
