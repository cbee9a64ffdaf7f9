package logger

import (
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
)

// ProgressBar counts finished items. It is safe for concurrent use.
type ProgressBar struct {
	bar *progressbar.ProgressBar
}

func NewProgressBar(total int64, label string, out io.Writer, visible bool) *ProgressBar {
	bar := progressbar.NewOptions64(total,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription(label),
		progressbar.OptionSetWidth(50),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionSetVisibility(visible),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(out)
		}),
	)
	return &ProgressBar{bar: bar}
}

func (p *ProgressBar) Increment(amount int64) {
	_ = p.bar.Add64(amount)
}

func (p *ProgressBar) Complete() {
	_ = p.bar.Finish()
}
