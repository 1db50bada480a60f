package worker

import (
	"fmt"
	"time"
)

// Window is the range of hours [Start, End) in which cycles may run.
// When Start > End the window wraps past midnight.
type Window struct {
	Start int
	End   int
}

// DefaultWindow allows cycles from 05:00 until 22:00
var DefaultWindow = Window{Start: 5, End: 22}

// Contains reports whether t's hour falls inside the window
func (w Window) Contains(t time.Time) bool {
	h := t.Hour()
	if w.Start <= w.End {
		return w.Start <= h && h < w.End
	}
	return h >= w.Start || h < w.End
}

func (w Window) String() string {
	return fmt.Sprintf("[%02d:00, %02d:00)", w.Start, w.End)
}
