package recorder

import (
	"context"

	"banktycoon/internal/game"
)

// Noop is used when no history database is configured.
type Noop struct{}

func NewNoop() *Noop { return &Noop{} }

func (Noop) RecordMonth(context.Context, string, game.MonthlyPnL) error  { return nil }
func (Noop) RecordEvent(context.Context, string, game.EventRecord) error { return nil }
func (Noop) Close() error                                                { return nil }
