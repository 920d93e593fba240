package controller

import (
	"context"

	"github.com/syncwatch/server/internal/repository/session"
)

type contextKey int

const (
	sessionCtxKey contextKey = iota
)

func (c *controller) getSessionFromCtx(ctx context.Context) session.Session {
	s, ok := ctx.Value(sessionCtxKey).(session.Session)
	if !ok {
		return session.Session{}
	}

	return s
}
