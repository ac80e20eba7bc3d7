package store

import (
	"context"
	"time"

	"github.com/GenACT-Africa/swahiba-web-sub001/internal/models"
)

// ClaimPackInput identifies the pack being claimed and the identity claiming
// it. The claim itself is a single conditional update in the store; callers
// never read-check-write.
type ClaimPackInput struct {
	PackNo    string
	OwnerID   string
	ClaimedAt time.Time
}

// LoginInput carries agent/admin credentials.
type LoginInput struct {
	Email    string
	Password string
}

type Store interface {
	// ListAvailablePacks returns active, unowned packs of the given type,
	// oldest first.
	ListAvailablePacks(ctx context.Context, packType string) ([]models.Pack, error)
	// ListPackItems fetches the item manifests for all given packs in one
	// batch, enriched with product display fields.
	ListPackItems(ctx context.Context, packIDs []string) ([]models.PackItem, error)
	// ClaimPack atomically assigns the named pack to the caller. The boolean
	// reports whether a pack was claimed; false with a nil error means the
	// pack was already owned, inactive, or absent.
	ClaimPack(ctx context.Context, input ClaimPackInput) (models.Pack, bool, error)

	ListOpenRequests(ctx context.Context, swahibaID string) ([]models.ServiceRequest, error)

	GetProfile(ctx context.Context, userID string) (models.Profile, error)
	// EnsureIdentity returns the anonymous profile for the device, creating
	// it if absent. Idempotent under concurrent calls for the same device.
	EnsureIdentity(ctx context.Context, deviceID string) (models.Profile, error)
	Login(ctx context.Context, input LoginInput) (models.Profile, error)

	ListNotifications(ctx context.Context, userID string, limit int) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, notificationID string) error
	MarkAllNotificationsRead(ctx context.Context, userID string) error
}
