// Package export turns a stored plan into its filled financial workbook.
package export

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/graest/orcamento/internal/model"
	"github.com/graest/orcamento/internal/pipeline"
	"github.com/graest/orcamento/internal/store"
	"github.com/graest/orcamento/internal/tagmap"
	"github.com/graest/orcamento/internal/workbook"
)

// Plans is the subset of the plan store an export needs.
type Plans interface {
	Load(ctx context.Context, ref string) (*model.Snapshot, error)
	RecordExport(ctx context.Context, rec *store.ExportRecord) error
}

// Exporter materializes plans against one template file.
type Exporter struct {
	Plans        Plans
	TemplatePath string
	Logger       *slog.Logger
}

// Result is one generated workbook.
type Result struct {
	Plan     *model.Snapshot
	Filename string
	Data     []byte
	Record   store.ExportRecord
}

// Export loads the plan named by ref (ID or nickname), fills the template
// and records the export in the plan's history.
func (e *Exporter) Export(ctx context.Context, ref string) (*Result, error) {
	return e.ExportTo(ctx, ref, nil)
}

// ExportTo is Export with a delivery step: deliver runs after the workbook
// is rendered and before the export is recorded. A delivery error leaves
// the history untouched.
func (e *Exporter) ExportTo(ctx context.Context, ref string, deliver func(*Result) error) (*Result, error) {
	p, err := e.Plans.Load(ctx, ref)
	if err != nil {
		return nil, err
	}
	res, err := e.Render(ctx, p)
	if err != nil {
		return nil, err
	}
	if deliver != nil {
		if err := deliver(res); err != nil {
			return nil, err
		}
	}
	if err := e.Plans.RecordExport(ctx, &res.Record); err != nil {
		return nil, err
	}
	e.logger().Info("exported plan", "plan", p.ID, "file", res.Filename, "bytes", len(res.Data))
	return res, nil
}

// Render fills the template for p without touching the store.
func (e *Exporter) Render(ctx context.Context, p *model.Snapshot) (*Result, error) {
	if e.TemplatePath == "" {
		return nil, fmt.Errorf("no template configured")
	}
	pipeline.Prepare(p)

	m := &workbook.Materializer{Logger: e.Logger}
	data, err := m.MaterializeFile(ctx, e.TemplatePath, tagmap.Build(p), p.Duration())
	if err != nil {
		return nil, fmt.Errorf("exporting %s: %w", p.ID, err)
	}

	name := workbook.OutputFilename(p.Nickname, p.Title)
	return &Result{
		Plan:     p,
		Filename: name,
		Data:     data,
		Record: store.ExportRecord{
			PlanID:    p.ID,
			Filename:  name,
			Total:     pipeline.Summarize(p).Breakdown.Rounded().Total,
			SizeBytes: int64(len(data)),
		},
	}, nil
}

func (e *Exporter) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
