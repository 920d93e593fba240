package session

import "errors"

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrConnectTokenNotFound = errors.New("connect token not found")
)

// Session is the resolved identity of one connected playback client.
type Session struct {
	ID       string `redis:"id"`
	UserID   string `redis:"user_id"`
	DeviceID string `redis:"device_id"`
}
