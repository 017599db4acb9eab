package bench

import (
	"time"

	"github.com/samvad-hq/noticias-harvester/internal/logger"
)

// Timing describes one measured invocation.
type Timing struct {
	Name    string
	Args    []any
	Elapsed time.Duration
}

// Seconds returns the elapsed time in fractional seconds.
func (t Timing) Seconds() float64 {
	return t.Elapsed.Seconds()
}

// Reporter receives a Timing after each measured call.
type Reporter func(Timing)

// LogReporter emits timings as structured debug entries.
func LogReporter(log logger.Logger) Reporter {
	log = logger.Ensure(log)
	return func(t Timing) {
		log.DebugObj("operation timed", "timing", map[string]any{
			"name":    t.Name,
			"args":    t.Args,
			"seconds": t.Seconds(),
		})
	}
}

// Measure runs fn, reports its wall-clock time and returns its result unchanged.
func Measure[R any](name string, report Reporter, fn func() R, args ...any) R {
	start := time.Now()
	out := fn()
	if report != nil {
		report(Timing{Name: name, Args: args, Elapsed: time.Since(start)})
	}
	return out
}

// Wrap returns fn instrumented with Measure.
func Wrap[A, R any](name string, report Reporter, fn func(A) R) func(A) R {
	return func(a A) R {
		return Measure(name, report, func() R { return fn(a) }, a)
	}
}

// Wrap2 is Wrap for two-argument functions.
func Wrap2[A, B, R any](name string, report Reporter, fn func(A, B) R) func(A, B) R {
	return func(a A, b B) R {
		return Measure(name, report, func() R { return fn(a, b) }, a, b)
	}
}

// Track starts a timer and returns a func that reports it; use with defer.
func Track(name string, report Reporter, args ...any) func() {
	start := time.Now()
	return func() {
		if report != nil {
			report(Timing{Name: name, Args: args, Elapsed: time.Since(start)})
		}
	}
}
