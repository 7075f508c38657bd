package x01

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrGameNotFound   = fmt.Errorf("game %w", ErrNotFound)
	ErrUserNotFound   = fmt.Errorf("user %w", ErrNotFound)
	ErrPlayerNotFound = fmt.Errorf("player %w", ErrNotFound)

	// ErrStaleGame rejects actions against a finished game or out of turn.
	ErrStaleGame = errors.New("stale game")

	// ErrInvalidThrow rejects throws that would corrupt the score.
	ErrInvalidThrow = errors.New("invalid throw")

	// ErrInvalidRequest rejects malformed actions such as unknown ids or settings out of range.
	ErrInvalidRequest = errors.New("invalid request")

	ErrGameExists = errors.New("game already exists")

	// ErrTransientStore marks store I/O failures. The whole action may be retried from load.
	ErrTransientStore = errors.New("store unavailable")
)

func invalidThrow(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidThrow, fmt.Sprintf(format, args...))
}

func invalidRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}

func staleGame(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrStaleGame, fmt.Sprintf(format, args...))
}

// StoreError wraps a store failure so callers can detect it with errors.Is(err, ErrTransientStore).
func StoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrStaleGame) || errors.Is(err, ErrTransientStore) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrTransientStore, err)
}

// StatusCode maps an action error to the HTTP-style code reported to clients.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrStaleGame), errors.Is(err, ErrInvalidThrow), errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrGameExists):
		return http.StatusConflict
	case errors.Is(err, ErrTransientStore):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
