package economy

import (
	"context"

	"github.com/al007ex/moomoo-clone/logging"
)

const (
	// EventStorePurchase is emitted when a player buys a hat or accessory.
	EventStorePurchase logging.EventType = "economy.store_purchase"
	// EventUpgradeApplied is emitted when a player spends an upgrade point.
	EventUpgradeApplied logging.EventType = "economy.upgrade_applied"
)

// StorePurchasePayload describes a purchase.
type StorePurchasePayload struct {
	ItemID    int  `json:"itemId"`
	Accessory bool `json:"accessory"`
	Price     int  `json:"price"`
}

// UpgradeAppliedPayload describes an upgrade choice.
type UpgradeAppliedPayload struct {
	Choice int  `json:"choice"`
	Weapon bool `json:"weapon"`
	Age    int  `json:"age"`
}

// StorePurchase publishes a purchase event.
func StorePurchase(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload StorePurchasePayload) {
	publish(ctx, pub, EventStorePurchase, actor, payload)
}

// UpgradeApplied publishes an upgrade event.
func UpgradeApplied(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload UpgradeAppliedPayload) {
	publish(ctx, pub, EventUpgradeApplied, actor, payload)
}

func publish(ctx context.Context, pub logging.Publisher, eventType logging.EventType, actor logging.EntityRef, payload any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     eventType,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryGameplay,
		Payload:  payload,
	})
}
