package render

import (
	"context"
	"sync"
	"time"
)

// Player reveals the groups of one presentation in order. Each submission gets
// its own Player; starting a new one does not touch an older one.
type Player struct {
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// Play starts revealing p on a single goroutine. reveal is called once per
// group, in order, with Visible set. Delays are measured from the call to Play.
func Play(ctx context.Context, p Presentation, reveal func(i int, g Group)) *Player {
	pl := &Player{stop: make(chan struct{}), done: make(chan struct{})}
	go pl.run(ctx, p, reveal)
	return pl
}

func (pl *Player) run(ctx context.Context, p Presentation, reveal func(int, Group)) {
	defer close(pl.done)
	start := time.Now()

	for i, g := range p.Groups {
		if !g.Visible && !p.Replayed {
			if wait := time.Until(start.Add(g.Delay)); wait > 0 {
				t := time.NewTimer(wait)
				select {
				case <-t.C:
				case <-pl.stop:
					t.Stop()
					return
				case <-ctx.Done():
					t.Stop()
					return
				}
			}
		}
		select {
		case <-pl.stop:
			return
		default:
		}
		g.Visible = true
		reveal(i, g)
	}
}

// Stop cancels reveals that have not fired yet. Safe to call more than once.
func (pl *Player) Stop() {
	pl.stopOnce.Do(func() { close(pl.stop) })
}

// Done is closed once every group was revealed or the player was stopped.
func (pl *Player) Done() <-chan struct{} {
	return pl.done
}

// Wait blocks until Done.
func (pl *Player) Wait() {
	<-pl.done
}
