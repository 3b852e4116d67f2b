// Package ui draws chapter progress on the terminal.
package ui

import (
	"io"
	"sync/atomic"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// ChapterProgress shows one bar for the chapters of a story.
type ChapterProgress struct {
	p   *mpb.Progress
	bar *mpb.Bar

	last atomic.Value
}

// NewChapterProgress draws on out. Extra options are applied after the
// defaults; mpb only refreshes terminals unless mpb.WithAutoRefresh is given.
func NewChapterProgress(out io.Writer, opts ...mpb.ContainerOption) *ChapterProgress {
	cp := &ChapterProgress{
		p: mpb.New(append([]mpb.ContainerOption{
			mpb.WithWidth(52),
			mpb.WithOutput(out),
			mpb.WithRefreshRate(120 * time.Millisecond),
		}, opts...)...),
	}
	cp.last.Store("")
	return cp
}

func (cp *ChapterProgress) SetTotal(total int) {
	if cp.bar == nil {
		cp.bar = cp.p.New(int64(total),
			mpb.BarStyle().Rbound("]"),
			mpb.PrependDecorators(
				decor.Name("Chapters  "),
			),
			mpb.AppendDecorators(
				decor.CountersNoUnit(" %d/%d", decor.WCSyncWidth),
				decor.Percentage(decor.WCSyncSpace),
				decor.Any(func(decor.Statistics) string {
					return "  " + cp.last.Load().(string)
				}),
			),
		)
		return
	}
	cp.bar.SetTotal(int64(total), false)
}

func (cp *ChapterProgress) Increment(name string) {
	if cp.bar == nil {
		return
	}
	cp.last.Store(name)
	cp.bar.Increment()
}

// Close completes the bar, aborting it when the run failed early, and waits
// for the final render.
func (cp *ChapterProgress) Close() {
	if cp.bar != nil && !cp.bar.Completed() {
		cp.bar.Abort(false)
	}
	cp.p.Wait()
}
