package engine

import "context"

// Update is one coalesced devices-updated broadcast. Revision increases
// monotonically; a burst of state changes may collapse into a single Update
// carrying the latest revision.
type Update struct {
	Revision uint64
	Devices  []DeviceView
}

// SubscribeUpdates registers a listener for device-list broadcasts. The
// returned channel holds at most one pending update; when a subscriber lags,
// stale updates are replaced rather than queued. Call the returned function
// to unsubscribe.
func (e *Engine) SubscribeUpdates() (<-chan Update, func()) {
	ch := make(chan Update, 1)
	e.subsMu.Lock()
	e.subs[ch] = struct{}{}
	e.subsMu.Unlock()
	return ch, func() {
		e.subsMu.Lock()
		delete(e.subs, ch)
		e.subsMu.Unlock()
	}
}

// WaitForUpdate blocks until the engine's revision exceeds since, returning
// the state at that point. It returns immediately when the revision has
// already advanced.
func (e *Engine) WaitForUpdate(ctx context.Context, since uint64) (Update, error) {
	ch, unsubscribe := e.SubscribeUpdates()
	defer unsubscribe()

	if update := e.currentUpdate(); update.Revision > since {
		return update, nil
	}
	for {
		select {
		case <-ctx.Done():
			return Update{}, ctx.Err()
		case update := <-ch:
			if update.Revision > since {
				return update, nil
			}
		}
	}
}

// markDirtyLocked bumps the revision and schedules a broadcast. Callers
// hold e.mu. The single-slot notify channel coalesces bursts.
func (e *Engine) markDirtyLocked() {
	e.revision++
	select {
	case e.notify <- struct{}{}:
	default:
	}
}

func (e *Engine) currentUpdate() Update {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Update{Revision: e.revision, Devices: e.devicesLocked()}
}

func (e *Engine) broadcastLoop(ctx context.Context) {
	defer e.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.notify:
			update := e.currentUpdate()
			e.subsMu.Lock()
			for ch := range e.subs {
				select {
				case ch <- update:
				default:
					// Drop the stale pending update and replace it.
					select {
					case <-ch:
					default:
					}
					select {
					case ch <- update:
					default:
					}
				}
			}
			e.subsMu.Unlock()
		}
	}
}
