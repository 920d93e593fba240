package room

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"
)

type sentCommand struct {
	SessionID     string
	Command       string
	ItemID        int64
	PositionTicks int64
}

// fakeTransport records every delivered command and can be told to fail
// deliveries for specific sessions.
type fakeTransport struct {
	mu       sync.Mutex
	sent     []sentCommand
	failures map[string]error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{failures: make(map[string]error)}
}

func (t *fakeTransport) failFor(sessionID string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failures[sessionID] = err
}

func (t *fakeTransport) record(cmd sentCommand) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.failures[cmd.SessionID]; err != nil {
		return err
	}

	t.sent = append(t.sent, cmd)
	return nil
}

func (t *fakeTransport) PlayItem(_ context.Context, sessionID string, itemID, positionTicks int64) error {
	return t.record(sentCommand{SessionID: sessionID, Command: "play_item", ItemID: itemID, PositionTicks: positionTicks})
}

func (t *fakeTransport) Pause(_ context.Context, sessionID string) error {
	return t.record(sentCommand{SessionID: sessionID, Command: "pause"})
}

func (t *fakeTransport) Unpause(_ context.Context, sessionID string) error {
	return t.record(sentCommand{SessionID: sessionID, Command: "unpause"})
}

func (t *fakeTransport) Seek(_ context.Context, sessionID string, positionTicks int64) error {
	return t.record(sentCommand{SessionID: sessionID, Command: "seek", PositionTicks: positionTicks})
}

func (t *fakeTransport) commandsFor(sessionID string) []sentCommand {
	t.mu.Lock()
	defer t.mu.Unlock()

	var cmds []sentCommand
	for _, cmd := range t.sent {
		if cmd.SessionID == sessionID {
			cmds = append(cmds, cmd)
		}
	}

	return cmds
}

func newTestService(transport iSessionTransport) *service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewService(transport, &Config{
		SeekThreshold: 2 * time.Second,
		SettleDelay:   5 * time.Millisecond,
		WarmupDelay:   10 * time.Millisecond,
		SendTimeout:   time.Second,
	}, logger)
}
