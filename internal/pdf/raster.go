package pdf

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const baseDPI = 72

// Rasterizer turns the first page of a PDF into a PNG thumbnail using
// pdfinfo for page counting and ghostscript for rendering.
type Rasterizer struct {
	pdfinfoBin string
	gsBin      string
	zoom       float64
	exec       CommandExecutor
}

// NewRasterizer builds a Rasterizer. zoom scales the 72dpi base
// resolution; non-positive values fall back to 2.0. A nil executor
// falls back to os/exec.
func NewRasterizer(pdfinfoBin, gsBin string, zoom float64, executor CommandExecutor) *Rasterizer {
	if executor == nil {
		executor = NewCommandExecutor()
	}
	if zoom <= 0 {
		zoom = 2.0
	}
	return &Rasterizer{pdfinfoBin: pdfinfoBin, gsBin: gsBin, zoom: zoom, exec: executor}
}

// PageCount reports the number of pages in the PDF at path via pdfinfo.
func (r *Rasterizer) PageCount(ctx context.Context, path string) (int, error) {
	output, err := r.exec.Run(ctx, r.pdfinfoBin, path)
	if err != nil {
		return 0, fmt.Errorf("run %s: %w", r.pdfinfoBin, err)
	}

	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "Pages:") {
			continue
		}
		count, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "Pages:")))
		if err != nil {
			return 0, fmt.Errorf("parse page count %q: %w", line, err)
		}
		return count, nil
	}

	return 0, fmt.Errorf("%s output has no Pages line", r.pdfinfoBin)
}

// FirstPagePNG renders page one of the PDF at path and returns the PNG
// bytes. The intermediate PNG is written next to the input file, so
// path should live in a scratch directory.
func (r *Rasterizer) FirstPagePNG(ctx context.Context, path string) ([]byte, error) {
	pages, err := r.PageCount(ctx, path)
	if err != nil {
		return nil, err
	}
	if pages <= 0 {
		return nil, ErrNoPages
	}

	dpi := int(math.Round(baseDPI * r.zoom))
	outPath := filepath.Join(filepath.Dir(path), "thumbnail.png")
	args := []string{
		"-q", "-dNOPAUSE", "-dBATCH",
		"-sDEVICE=png16m",
		"-r" + strconv.Itoa(dpi),
		"-dFirstPage=1", "-dLastPage=1",
		"-o", outPath,
		path,
	}
	if output, err := r.exec.Run(ctx, r.gsBin, args...); err != nil {
		return nil, fmt.Errorf("run %s: %w: %s", r.gsBin, err, strings.TrimSpace(string(output)))
	}

	png, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("read rendered thumbnail: %w", err)
	}
	return png, nil
}
