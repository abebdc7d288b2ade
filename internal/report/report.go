// Package report carries the shared environment the verbs run in: loaded
// configuration, the structured logger, and the per-run metrics registry.
package report

import (
	"context"
	"fmt"

	"github.com/okian/pirplot/internal/config"
	"github.com/okian/pirplot/pkg/logger"
	"github.com/okian/pirplot/pkg/metrics"
)

// Env is one verb invocation's environment.
type Env struct {
	Cfg     *config.Config
	Log     logger.Logger
	Metrics *metrics.Run
}

// NoteCSV records and announces a written summary CSV. The [OK] lines go to
// stdout so runs remain grep-able in shell pipelines.
func (e *Env) NoteCSV(ctx context.Context, path string) {
	e.Metrics.ArtifactWritten("csv")
	e.Log.Debug(ctx, "wrote summary", logger.Path(path))
	fmt.Printf("[OK] Wrote %s\n", path)
}

// NoteFigure records and announces a written PDF+PNG figure pair.
func (e *Env) NoteFigure(ctx context.Context, pdfPath, pngPath string) {
	e.Metrics.ArtifactWritten("pdf")
	e.Metrics.ArtifactWritten("png")
	e.Log.Debug(ctx, "wrote figure", logger.Path(pdfPath))
	fmt.Printf("[OK] Wrote %s\n", pdfPath)
	fmt.Printf("[OK] Wrote %s\n", pngPath)
}

// NotePlate records and announces a written composite plate.
func (e *Env) NotePlate(ctx context.Context, path string) {
	e.Metrics.ArtifactWritten("pdf")
	e.Log.Debug(ctx, "wrote plate", logger.Path(path))
	fmt.Printf("[OK] Wrote %s\n", path)
}
