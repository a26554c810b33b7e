package progress

import (
	"sync"

	"github.com/cheggaaa/pb/v3"
)

// consoleTotal is the fixed-point resolution the underlying bar is driven
// at; Sink reports a float fraction but pb/v3 wants integer ticks.
const consoleTotal = 10000

// ConsoleBar renders progress to stdout via cheggaaa/pb/v3. Fast-MBTiler
// imported gopkg.in/cheggaaa/pb.v1 in task.go despite declaring the v3
// module in go.mod; this uses the v3 API the module actually pins.
type ConsoleBar struct {
	mu  sync.Mutex
	bar *pb.ProgressBar
}

// NewConsoleBar starts a bar with the given title, mirroring the
// "%s: [%s] %d%%" style of Fast-MBTiler's printPipe.
func NewConsoleBar(title string) *ConsoleBar {
	bar := pb.ProgressBarTemplate(`{{ string . "title" }} {{ bar . }} {{ percent . }}`).Start(consoleTotal)
	bar.Set("title", title)
	return &ConsoleBar{bar: bar}
}

// Report implements Sink.
func (c *ConsoleBar) Report(fraction float64) {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bar.SetCurrent(int64(fraction * consoleTotal))
}

// Finish stops the bar, leaving the final line in place.
func (c *ConsoleBar) Finish() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bar.Finish()
}
