// Package progress draws progress bars of transfers on a terminal.
package progress

import (
	"io"
	"time"

	"github.com/cheggaaa/pb/v3"
)

// template for transfers whose total size is unknown.
const noBar pb.ProgressBarTemplate = `{{with string . "prefix"}}{{.}} {{end}}{{counters . }} {{with string . "suffix"}} {{.}}{{end}}`

// Bytes starts a progress bar counting bytes.
//
// When total is negative, it shows counters without a bar.
// When w is nil, nothing is drawn.
func Bytes(w io.Writer, total int64, prefix string) *pb.ProgressBar {
	var bar *pb.ProgressBar
	if total < 0 {
		bar = noBar.New(-1)
	} else {
		bar = pb.New64(total)
	}
	if w == nil {
		w = io.Discard
	}
	bar.Set(pb.Bytes, true)
	bar.SetWriter(w)
	bar.Set("prefix", prefix)
	return bar.Start()
}

// Monitor is a progress of a task running in background.
type Monitor interface {
	EstimatedTotalSize() int64
	ProgressedSize() int64
	ProgressingFile() string
	Done() <-chan struct{}
}

// Watch updates bar by m until m is done, and finishes bar.
func Watch(bar *pb.ProgressBar, m Monitor, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	update := func() {
		if total := m.EstimatedTotalSize(); 0 <= total {
			bar.SetTotal(total)
		}
		bar.SetCurrent(m.ProgressedSize())
	}

	for {
		select {
		case <-ticker.C:
			update()
			bar.Set("suffix", Ellipsis(m.ProgressingFile(), 40))
			continue
		case <-m.Done():
			update()
			bar.Set("suffix", "")
		}
		break
	}
	bar.Finish()
}

// Ellipsis shortens s into length, leaving its tail.
func Ellipsis(s string, length int) string {
	if len(s) <= length {
		return s
	}
	l := len(s)
	return "[...]" + s[l-length+5:]
}
