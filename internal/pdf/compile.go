package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Compiler drives the external LaTeX engine. The engine is trusted to
// write only into the supplied working directory; callers hand it a
// scoped temp dir and discard the dir afterwards.
type Compiler struct {
	bin     string
	timeout time.Duration
	exec    CommandExecutor
}

// NewCompiler builds a Compiler around bin (typically pdflatex). A nil
// executor falls back to os/exec.
func NewCompiler(bin string, timeout time.Duration, executor CommandExecutor) *Compiler {
	if executor == nil {
		executor = NewCommandExecutor()
	}
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &Compiler{bin: bin, timeout: timeout, exec: executor}
}

// Compile runs the engine on texPath with workDir as the output
// directory and returns the path of the produced PDF, renamed to
// outputName when given. Failures carry the engine's combined output in
// a *CompileError; a clean exit that leaves no PDF on disk is a failure
// too. The run is bounded by the configured timeout on top of ctx.
func (c *Compiler) Compile(ctx context.Context, workDir, texPath, outputName string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	args := []string{
		"-interaction=nonstopmode",
		"-output-directory=" + workDir,
		texPath,
	}
	output, err := c.exec.Run(ctx, c.bin, args...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", &CompileError{Output: string(output), Err: fmt.Errorf("%s timed out after %s: %w", c.bin, c.timeout, ctxErr)}
		}
		return "", &CompileError{Output: string(output), Err: fmt.Errorf("run %s: %w", c.bin, err)}
	}

	base := strings.TrimSuffix(filepath.Base(texPath), filepath.Ext(texPath))
	produced := filepath.Join(workDir, base+".pdf")
	if _, err := os.Stat(produced); err != nil {
		return "", &CompileError{Output: string(output), Err: fmt.Errorf("%s exited cleanly but wrote no pdf: %w", c.bin, err)}
	}

	if outputName != "" && outputName != base+".pdf" {
		renamed := filepath.Join(workDir, outputName)
		if err := os.Rename(produced, renamed); err != nil {
			return "", fmt.Errorf("rename output pdf: %w", err)
		}
		produced = renamed
	}

	return produced, nil
}
