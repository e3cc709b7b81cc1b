package engine

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Command mutates the engine. Commands run on the loop goroutine between
// ticks, so they may touch any engine state.
type Command func(*Engine)

// Publish receives frames from Loop. It runs on the loop goroutine and
// must not block for long.
type Publish func(Frame)

// Loop owns the engine until ctx is cancelled. Every FrameInterval it
// ticks a running simulation; commands are applied as they arrive. A frame
// is published whenever a tick or command changed something.
func (e *Engine) Loop(ctx context.Context, cmds <-chan Command, publish Publish) error {
	if publish == nil {
		publish = func(Frame) {}
	}
	ticker := time.NewTicker(e.opts.FrameInterval)
	defer ticker.Stop()

	e.log.Debug("engine loop started", zap.Duration("frame_interval", e.opts.FrameInterval))
	publish(e.Frame())

	dirty := false
	for {
		select {
		case <-ctx.Done():
			e.log.Debug("engine loop stopped")
			return nil
		case cmd, ok := <-cmds:
			if !ok {
				cmds = nil
				continue
			}
			cmd(e)
			dirty = true
		case <-ticker.C:
			wasRunning := e.sim.Running()
			if wasRunning {
				e.Tick()
			}
			if wasRunning || dirty {
				publish(e.Frame())
				dirty = false
			}
		}
	}
}
