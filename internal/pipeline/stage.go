package pipeline

import "fmt"

// stageEvent collects log attributes while a stage runs.
type stageEvent struct {
	attrs []any
}

func (e *stageEvent) add(kv ...any) {
	e.attrs = append(e.attrs, kv...)
}

// stage times fn, records the duration metric, and logs one line with the
// stage's attributes. A failing stage is logged and its error wrapped with
// the stage name.
func (p *Pipeline) stage(name string, fn func(ev *stageEvent) error) error {
	start := p.clock.Now()
	ev := &stageEvent{}
	err := fn(ev)
	elapsed := p.clock.Since(start)

	p.metrics.StageDuration.WithLabelValues(name).Observe(elapsed.Seconds())

	attrs := append([]any{"stage", name, "duration_ms", elapsed.Milliseconds()}, ev.attrs...)
	if err != nil {
		p.logger.Error("stage failed", append(attrs, "error", err)...)
		return fmt.Errorf("%s: %w", name, err)
	}
	p.logger.Info("stage completed", attrs...)
	return nil
}
