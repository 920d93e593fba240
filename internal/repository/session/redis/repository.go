package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/syncwatch/server/internal/repository/session"
)

const (
	sessionPrefix      = "session"
	connectTokenPrefix = "connect-token"
)

type Repo struct {
	rc         *redis.Client
	sessionExp time.Duration
	tokenExp   time.Duration
}

func NewRepo(rc *redis.Client, sessionExp, tokenExp time.Duration) *Repo {
	return &Repo{
		rc:         rc,
		sessionExp: sessionExp,
		tokenExp:   tokenExp,
	}
}

func (r Repo) getSessionKey(sessionID string) string {
	return sessionPrefix + ":" + sessionID
}

func (r Repo) SetSession(ctx context.Context, s *session.Session) error {
	key := r.getSessionKey(s.ID)

	pipe := r.rc.TxPipeline()
	pipe.HSet(ctx, key, "id", s.ID, "user_id", s.UserID, "device_id", s.DeviceID)
	pipe.Expire(ctx, key, r.sessionExp)
	_, err := pipe.Exec(ctx)

	return err
}

func (r Repo) GetSession(ctx context.Context, sessionID string) (session.Session, error) {
	key := r.getSessionKey(sessionID)

	var s session.Session
	if err := r.rc.HGetAll(ctx, key).Scan(&s); err != nil {
		return session.Session{}, err
	}
	if s.ID == "" {
		return session.Session{}, session.ErrSessionNotFound
	}

	// sliding expiration: every resolved request keeps the session alive
	r.rc.Expire(ctx, key, r.sessionExp)

	return s, nil
}

func (r Repo) CreateConnectToken(ctx context.Context, token, sessionID string) error {
	return r.rc.Set(ctx, connectTokenPrefix+":"+token, sessionID, r.tokenExp).Err()
}

// GetSessionIDByConnectToken resolves and consumes a token, tokens are
// single use.
func (r Repo) GetSessionIDByConnectToken(ctx context.Context, token string) (string, error) {
	sessionID, err := r.rc.GetDel(ctx, connectTokenPrefix+":"+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", session.ErrConnectTokenNotFound
		}
		return "", err
	}

	return sessionID, nil
}
