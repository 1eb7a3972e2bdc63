package sim

import (
	"log/slog"
	"time"
)

// LogObserver logs progress every n frames and always on the last one.
func LogObserver(l *slog.Logger, n int) Observer {
	if n < 1 {
		n = 1
	}
	return ObserverFunc(func(ev FrameEvent) error {
		last := ev.Frame == ev.Frames-1
		if (ev.Frame+1)%n != 0 && !last {
			return nil
		}
		l.Info("frame rendered",
			"frame", ev.Frame+1,
			"of", ev.Frames,
			"elapsed", ev.Elapsed.Round(time.Millisecond),
			"total_mass", ev.Stats.TotalMass,
		)
		return nil
	})
}
