package timer

import "time"

// Interval is one contiguous span during which a task was tracked.
// EndMs is nil while the span is still open.
type Interval struct {
	StartMs int64  `json:"startMs"`
	EndMs   *int64 `json:"endMs"`
}

func (iv *Interval) Start(c Clock) {
	iv.StartMs = c.Now().UnixMilli()
	iv.EndMs = nil
}

// Stop closes the interval at the current time. A second call overwrites
// the previous end.
func (iv *Interval) Stop(c Clock) {
	end := c.Now().UnixMilli()
	if end < iv.StartMs {
		end = iv.StartMs
	}
	iv.EndMs = &end
}

func (iv Interval) Open() bool {
	return iv.EndMs == nil
}

func (iv Interval) Elapsed(c Clock) time.Duration {
	end := c.Now().UnixMilli()
	if iv.EndMs != nil {
		end = *iv.EndMs
	}
	if end < iv.StartMs {
		return 0
	}
	return time.Duration(end-iv.StartMs) * time.Millisecond
}

func (iv Interval) StartTime() time.Time {
	return time.UnixMilli(iv.StartMs)
}

// EndTime returns the close time, or the zero time for an open interval.
func (iv Interval) EndTime() time.Time {
	if iv.EndMs == nil {
		return time.Time{}
	}
	return time.UnixMilli(*iv.EndMs)
}
