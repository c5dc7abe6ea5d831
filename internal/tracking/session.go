package tracking

import (
	"context"

	"golang.org/x/sync/errgroup"
)

type runner interface {
	Run(ctx context.Context) error
}

// Session ties tracking loops to one viewing or publishing context. Closing
// the session cancels every loop it started and waits for them to exit, so a
// torn-down session can never leave a loop polling in the background.
type Session struct {
	ctx    context.Context
	cancel context.CancelFunc
	g      *errgroup.Group
}

func NewSession(parent context.Context) *Session {
	ctx, cancel := context.WithCancel(parent)
	g, ctx := errgroup.WithContext(ctx)
	return &Session{ctx: ctx, cancel: cancel, g: g}
}

func (s *Session) Start(r runner) {
	s.g.Go(func() error {
		return r.Run(s.ctx)
	})
}

// Close stops all loops and waits for them. Always safe, including on error
// paths; call it with defer as soon as the session exists.
func (s *Session) Close() error {
	s.cancel()
	return s.g.Wait()
}
