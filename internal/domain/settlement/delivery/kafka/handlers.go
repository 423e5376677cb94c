package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/yukikm/subly/internal/domain"
	"github.com/yukikm/subly/internal/domain/settlement/deps"
)

const (
	ActionRunBatch = "run_batch"
	ActionExecute  = "execute"
)

// Handlers handles settlement commands from the message bus
type Handlers struct {
	uc     deps.SettlementUseCase
	logger zerolog.Logger
}

func NewHandlers(uc deps.SettlementUseCase, logger zerolog.Logger) *Handlers {
	return &Handlers{uc: uc, logger: logger}
}

// HandleCommand runs a full cycle or a single payment. Business rejections are
// logged and acknowledged; only malformed or transient failures are returned.
func (h *Handlers) HandleCommand(ctx context.Context, message []byte) error {
	var cmd domain.SettlementCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		h.logger.Error().Err(err).
			Str("raw_message", string(message)).
			Msg("Failed to unmarshal settlement command")
		return err
	}

	switch cmd.Action {
	case ActionRunBatch:
		report, err := h.uc.RunCycle(ctx)
		if err != nil {
			return h.reject(err, "settlement cycle failed")
		}
		h.logger.Info().
			Str("batch_id", report.BatchID.String()).
			Int("settled", report.Settled).
			Int("failed", report.Failed).
			Msg("Settlement cycle command processed")
		return nil

	case ActionExecute:
		if cmd.Key == nil {
			return fmt.Errorf("execute command without subscription key")
		}
		if _, err := h.uc.ExecutePayment(ctx, *cmd.Key, cmd.BatchID); err != nil {
			return h.reject(err, "payment command failed")
		}
		return nil

	default:
		return fmt.Errorf("unknown settlement action %q", cmd.Action)
	}
}

func (h *Handlers) reject(err error, msg string) error {
	switch domain.KindOf(err) {
	case domain.KindExternal, domain.KindInternal:
		h.logger.Error().Err(err).Msg(msg)
		return err
	default:
		h.logger.Warn().Err(err).Str("code", domain.CodeOf(err)).Msg(msg)
		return nil
	}
}
