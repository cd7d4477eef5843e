package simulation

import (
	"context"

	"github.com/al007ex/moomoo-clone/logging"
)

const (
	// EventTickBudgetOverrun is emitted when a tick takes longer than the timestep.
	EventTickBudgetOverrun logging.EventType = "simulation.tick_budget_overrun"
	// EventSystemFailed is emitted when a system errors or panics mid tick.
	EventSystemFailed logging.EventType = "simulation.system_failed"
	// EventBacklogDropped is emitted when the scheduler forgives catch-up debt.
	EventBacklogDropped logging.EventType = "simulation.backlog_dropped"
	// EventRollback is emitted when the engine restores a snapshot.
	EventRollback logging.EventType = "simulation.rollback"
)

// TickBudgetOverrunPayload captures tick timing.
type TickBudgetOverrunPayload struct {
	DurationMillis float64 `json:"durationMillis"`
	BudgetMillis   float64 `json:"budgetMillis"`
}

// SystemFailedPayload names the failing system.
type SystemFailedPayload struct {
	System string `json:"system"`
	Error  string `json:"error"`
}

// BacklogDroppedPayload records how much simulated time was discarded.
type BacklogDroppedPayload struct {
	DroppedMillis float64 `json:"droppedMillis"`
	Updates       int     `json:"updates"`
}

// RollbackPayload records the restored tick.
type RollbackPayload struct {
	FromTick uint64 `json:"fromTick"`
	ToTick   uint64 `json:"toTick"`
}

// TickBudgetOverrun publishes a warning when a tick exceeds its budget.
func TickBudgetOverrun(ctx context.Context, pub logging.Publisher, tick uint64, payload TickBudgetOverrunPayload) {
	publish(ctx, pub, tick, EventTickBudgetOverrun, logging.SeverityWarn, payload)
}

// SystemFailed publishes an error for an isolated system failure.
func SystemFailed(ctx context.Context, pub logging.Publisher, tick uint64, payload SystemFailedPayload) {
	publish(ctx, pub, tick, EventSystemFailed, logging.SeverityError, payload)
}

// BacklogDropped publishes a warning when accumulated lag is clipped.
func BacklogDropped(ctx context.Context, pub logging.Publisher, payload BacklogDroppedPayload) {
	publish(ctx, pub, 0, EventBacklogDropped, logging.SeverityWarn, payload)
}

// Rollback publishes an info event when state is restored.
func Rollback(ctx context.Context, pub logging.Publisher, payload RollbackPayload) {
	publish(ctx, pub, payload.ToTick, EventRollback, logging.SeverityInfo, payload)
}

func publish(ctx context.Context, pub logging.Publisher, tick uint64, eventType logging.EventType, severity logging.Severity, payload any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     eventType,
		Tick:     tick,
		Actor:    logging.EntityRef{Kind: logging.EntityKindWorld},
		Severity: severity,
		Category: logging.CategorySimulation,
		Payload:  payload,
	})
}
