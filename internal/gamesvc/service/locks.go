package service

import (
	"context"
	"sync"
)

// GameLocks serializes actions on the same game within this process.
type GameLocks struct {
	mu    sync.Mutex
	locks map[int64]*gameLock
}

type gameLock struct {
	ch   chan struct{}
	refs int
}

func NewGameLocks() *GameLocks {
	return &GameLocks{locks: make(map[int64]*gameLock)}
}

// Lock waits for the lock of gameID or for ctx to end. The returned func releases it.
func (l *GameLocks) Lock(ctx context.Context, gameID int64) (func(), error) {
	l.mu.Lock()
	gl, ok := l.locks[gameID]
	if !ok {
		gl = &gameLock{ch: make(chan struct{}, 1)}
		l.locks[gameID] = gl
	}
	gl.refs++
	l.mu.Unlock()

	select {
	case gl.ch <- struct{}{}:
		return func() {
			<-gl.ch
			l.release(gameID, gl)
		}, nil
	case <-ctx.Done():
		l.release(gameID, gl)
		return nil, ctx.Err()
	}
}

func (l *GameLocks) release(gameID int64, gl *gameLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	gl.refs--
	if gl.refs == 0 {
		delete(l.locks, gameID)
	}
}

// Len reports how many games currently have holders or waiters.
func (l *GameLocks) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
