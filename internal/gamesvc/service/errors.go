package service

import (
	"fmt"

	"github.com/avvvet/darts-services/internal/x01"
)

func staleGame(format string, args ...any) error {
	return fmt.Errorf("%w: %s", x01.ErrStaleGame, fmt.Sprintf(format, args...))
}

func invalidThrow(format string, args ...any) error {
	return fmt.Errorf("%w: %s", x01.ErrInvalidThrow, fmt.Sprintf(format, args...))
}
