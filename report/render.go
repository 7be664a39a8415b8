package report

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/YuminosukeSato/heightsml/pkg/errors"
	"github.com/YuminosukeSato/heightsml/pkg/log"
	"github.com/YuminosukeSato/heightsml/viz"
	"golang.org/x/sync/errgroup"
)

const (
	// ReportFile is the Markdown file written by RenderTo.
	ReportFile = "report.md"

	// FigureDir is the subdirectory holding rendered figures.
	FigureDir = "figures"
)

// FigurePath returns the path of f relative to the report directory.
func (nb *Notebook) FigurePath(f *Figure) string {
	return FigureDir + "/" + f.Name + "." + strings.ToLower(nb.Config.FigureFormat)
}

// WriteMarkdown writes the notebook as Markdown. Figures are referenced by
// FigurePath and are not rendered.
func (nb *Notebook) WriteMarkdown(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# %s\n", nb.Title)
	for _, c := range nb.Cells {
		bw.WriteString("\n")
		switch c.Kind {
		case MarkdownCell:
			bw.WriteString(c.Text)
			bw.WriteString("\n")
		case OutputCell:
			bw.WriteString("```\n")
			bw.WriteString(c.Text)
			bw.WriteString("\n```\n")
		case FigureCell:
			fmt.Fprintf(bw, "![%s](%s)\n", c.Figure.Caption, nb.FigurePath(c.Figure))
		}
	}
	return errors.Wrap(bw.Flush(), "write markdown")
}

// RenderFigures renders every figure into dir/figures concurrently.
func (nb *Notebook) RenderFigures(ctx context.Context, dir string) error {
	figDir := filepath.Join(dir, FigureDir)
	if err := os.MkdirAll(figDir, 0o755); err != nil {
		return errors.Wrapf(err, "create %s", figDir)
	}
	logger := log.GetLoggerWithName("report")

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, f := range nb.Figures() {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			path := filepath.Join(dir, filepath.FromSlash(nb.FigurePath(f)))
			start := time.Now()
			if err := errors.SafeExecute("render "+f.Name, func() error {
				return viz.Save(f.Plot, path)
			}); err != nil {
				return err
			}
			logger.Debug("Figure rendered",
				log.OperationKey, log.OperationRender,
				log.FigureKey, path,
				log.DurationMsKey, time.Since(start).Milliseconds(),
			)
			return nil
		})
	}
	return g.Wait()
}

// RenderTo writes dir/report.md and its figures.
func (nb *Notebook) RenderTo(ctx context.Context, dir string) (err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "create %s", dir)
	}
	if err := nb.RenderFigures(ctx, dir); err != nil {
		return err
	}

	path := filepath.Join(dir, ReportFile)
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "close %s", path)
		}
	}()
	if err := nb.WriteMarkdown(f); err != nil {
		return err
	}

	log.GetLoggerWithName("report").Info("Report written",
		log.OperationKey, log.OperationRender,
		log.OutputDirKey, dir,
		log.FigureCountKey, len(nb.Figures()),
	)
	return nil
}
