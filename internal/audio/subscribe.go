package audio

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"strconv"
	"time"

	"volcap/internal/logging"
)

// subscribeLine matches pactl subscribe output such as
//
//	Event 'change' on sink #55
//	Event 'remove' on sink #55
//	Event 'change' on server #0
var subscribeLine = regexp.MustCompile(`^Event '([a-z]+)' on ([a-z-]+) #(\d+)$`)

// Subscribe runs `pactl subscribe` and translates its output into Events.
// The subprocess is restarted with a backoff whenever it exits while ctx is
// still live, so a sound-server restart does not end the subscription.
func (b *PactlBackend) Subscribe(ctx context.Context, events chan<- Event) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := b.runSubscribe(ctx, events)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b.logger.Warn("pactl subscribe stream ended; restarting",
			logging.Error(err),
			logging.String(logging.FieldEventType, "subscribe_restart"),
			logging.Duration("backoff", b.restartBackoff),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(b.restartBackoff):
		}
	}
}

func (b *PactlBackend) runSubscribe(ctx context.Context, events chan<- Event) error {
	cmd := exec.CommandContext(ctx, b.binary, "subscribe") //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("pactl subscribe stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start pactl subscribe: %w", err)
	}

	b.consumeSubscribeLines(ctx, stdout, events)

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("pactl subscribe: %w", err)
	}
	return nil
}

func (b *PactlBackend) consumeSubscribeLines(ctx context.Context, r io.Reader, events chan<- Event) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		event, ok := b.translateSubscribeLine(ctx, scanner.Text())
		if !ok {
			continue
		}
		select {
		case events <- event:
		case <-ctx.Done():
			return
		}
	}
}

// translateSubscribeLine maps one pactl subscribe line onto an Event,
// resolving sink indexes to keys via the cached enumeration mapping.
func (b *PactlBackend) translateSubscribeLine(ctx context.Context, line string) (Event, bool) {
	m := subscribeLine.FindStringSubmatch(line)
	if m == nil {
		return Event{}, false
	}
	action, facility := m[1], m[2]
	index, err := strconv.Atoi(m[3])
	if err != nil {
		return Event{}, false
	}

	if facility == "server" {
		return Event{Kind: EventServerChanged}, true
	}
	if facility != "sink" {
		return Event{}, false
	}

	switch action {
	case "new":
		// The mapping does not know the new sink yet; a fresh enumeration
		// both resolves it and repopulates the index cache.
		key := b.resolveIndex(ctx, index)
		return Event{Kind: EventSinkAdded, Key: key}, true
	case "remove":
		return Event{Kind: EventSinkRemoved, Key: b.forgetIndex(index)}, true
	case "change":
		key, ok := b.keyForIndex(index)
		if !ok {
			key = b.resolveIndex(ctx, index)
		}
		return Event{Kind: EventSinkChanged, Key: key}, true
	default:
		return Event{}, false
	}
}

// resolveIndex refreshes the enumeration cache and returns the key for
// index, or empty when the sink is already gone again.
func (b *PactlBackend) resolveIndex(ctx context.Context, index int) string {
	if _, err := b.Endpoints(ctx); err != nil {
		b.logger.Debug("sink index resolution failed", logging.Error(err), logging.Int("sink_index", index))
		return ""
	}
	key, _ := b.keyForIndex(index)
	return key
}
