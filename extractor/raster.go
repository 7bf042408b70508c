package extractor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Renderer rasterizes a page of a drawing file. Available reports
// whether the backing tool is usable, so callers can branch into a
// vector-only path on machines without poppler installed.
type Renderer interface {
	Available() bool
	Render(ctx context.Context, pdfData []byte, pageIndex, dpi int) (image.Image, error)
}

// Runner lets tests stub external commands.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	start := time.Now()
	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb
	err := cmd.Run()
	dur := time.Since(start)

	if err != nil {
		slog.Error("exec failed",
			"cmd", name,
			"args", strings.Join(args, " "),
			"duration_ms", dur.Milliseconds(),
			"error", err,
			"stderr", truncate(errb.String(), 8<<10),
		)
	} else {
		slog.Debug("exec ok",
			"cmd", name,
			"args", strings.Join(args, " "),
			"duration_ms", dur.Milliseconds(),
			"stdout_bytes", out.Len(),
		)
	}
	return out.Bytes(), errb.Bytes(), err
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}

// PdftoppmRenderer shells out to poppler's pdftoppm. The zoom factor
// of the rasterization is dpi/72, carried entirely by the -r flag.
type PdftoppmRenderer struct {
	Binary string
	runner Runner
}

// NewPdftoppmRenderer builds a renderer around the given runner; a nil
// runner means real command execution.
func NewPdftoppmRenderer(r Runner) *PdftoppmRenderer {
	if r == nil {
		r = execRunner{}
	}
	return &PdftoppmRenderer{Binary: "pdftoppm", runner: r}
}

func (p *PdftoppmRenderer) Available() bool {
	_, err := exec.LookPath(p.Binary)
	return err == nil
}

func (p *PdftoppmRenderer) Render(ctx context.Context, pdfData []byte, pageIndex, dpi int) (image.Image, error) {
	tmpDir, err := os.MkdirTemp("", "planex-render-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmpDir)

	src := filepath.Join(tmpDir, "in.pdf")
	if err := os.WriteFile(src, pdfData, 0o600); err != nil {
		return nil, err
	}
	prefix := filepath.Join(tmpDir, "page")

	// pdftoppm pages are 1-based
	page := fmt.Sprintf("%d", pageIndex+1)
	_, errb, err := p.runner.Run(ctx, p.Binary,
		"-r", fmt.Sprintf("%d", dpi),
		"-f", page, "-l", page,
		"-singlefile", "-png",
		src, prefix)
	if err != nil {
		return nil, fmt.Errorf("pdftoppm: %w: %s", err, truncate(string(errb), 512))
	}

	out, err := os.ReadFile(prefix + ".png")
	if err != nil {
		return nil, fmt.Errorf("pdftoppm produced no image: %w", err)
	}
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		return nil, fmt.Errorf("decode rendered page: %w", err)
	}
	return img, nil
}

// RenderPage rasterizes page i at the given resolution. dpi values at
// or below zero fall back to 150, which resolves typical dimension
// text on architectural sheets.
func (d *Document) RenderPage(ctx context.Context, i, dpi int) (image.Image, error) {
	if _, err := d.page(i); err != nil {
		return nil, err
	}
	if !d.renderer.Available() {
		return nil, fmt.Errorf("render page %d: no rasterizer available", i)
	}
	if dpi <= 0 {
		dpi = 150
	}
	return d.renderer.Render(ctx, d.data, i, dpi)
}
