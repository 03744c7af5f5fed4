package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"keepsake/internal/pipeline"
)

// progressObserver drives a spinner-style bar, one tick per finished file.
// The total is unknown while the tree is still being walked.
type progressObserver struct {
	out       io.Writer
	bar       *progressbar.ProgressBar
	processed int
	skipped   int
	failed    int
}

func newProgressObserver(out io.Writer) *progressObserver {
	return &progressObserver{out: out}
}

func (p *progressObserver) OnStart(info pipeline.RunInfo) {
	p.bar = progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(p.out),
		progressbar.OptionSetDescription(info.Mode),
		progressbar.OptionShowCount(),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

func (p *progressObserver) OnUnitDone(result pipeline.Result) {
	if p.bar == nil {
		return
	}
	switch result.State {
	case pipeline.StateProcessed:
		p.processed++
	case pipeline.StateSkipped:
		p.skipped++
	case pipeline.StateFailed:
		p.failed++
	}
	p.bar.Describe(fmt.Sprintf("archived %d, skipped %d, failed %d", p.processed, p.skipped, p.failed))
	_ = p.bar.Add(1)
}

func (p *progressObserver) OnFinish(pipeline.RunInfo, pipeline.Stats) {
	if p.bar == nil {
		return
	}
	_ = p.bar.Finish()
}

// progressEnabled reports whether a live bar should be drawn on w.
func progressEnabled(w io.Writer, disabled bool) bool {
	if disabled {
		return false
	}
	return isTerminal(w)
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
