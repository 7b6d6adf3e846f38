// Package storage persists the equipment inventory and blackout schedules.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/levenlabs/go-lflag"
	"github.com/soltwin/soltwin/pkg/types"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Database defines the interface for persisting inventory and schedules.
type Database interface {
	// Panels
	ListPanels(ctx context.Context) ([]types.PanelSpec, error)
	GetPanel(ctx context.Context, id string) (types.PanelSpec, error)
	CreatePanel(ctx context.Context, panel types.PanelSpec) (types.PanelSpec, error)
	UpdatePanel(ctx context.Context, panel types.PanelSpec) error
	DeletePanel(ctx context.Context, id string) error

	// Batteries
	ListBatteries(ctx context.Context) ([]types.BatterySpec, error)
	GetBattery(ctx context.Context, id string) (types.BatterySpec, error)
	CreateBattery(ctx context.Context, battery types.BatterySpec) (types.BatterySpec, error)
	UpdateBattery(ctx context.Context, battery types.BatterySpec) error
	DeleteBattery(ctx context.Context, id string) error

	// Blackout schedules. There is at most one schedule per calendar day,
	// so upserts are keyed by date.
	UpsertBlackoutByDate(ctx context.Context, schedule types.BlackoutSchedule) (types.BlackoutSchedule, error)
	GetBlackout(ctx context.Context, id string) (types.BlackoutSchedule, error)
	UpdateBlackout(ctx context.Context, schedule types.BlackoutSchedule) error
	ListBlackouts(ctx context.Context, from, to *time.Time, limit int) ([]types.BlackoutSchedule, error)
	GetBlackoutsForRange(ctx context.Context, start, end time.Time) ([]types.BlackoutSchedule, error)
	DeleteBlackout(ctx context.Context, id string) error

	// Lifecycle
	Close() error
}

// Configured sets up the Storage provider based on flags.
func Configured() Database {
	provider := lflag.String("storage-provider", "firestore", "Storage provider to use (available: firestore)")

	var p struct{ Database }

	fs := configuredFirestore()

	lflag.Do(func() {
		switch *provider {
		case "firestore":
			if err := fs.Validate(); err != nil {
				panic(fmt.Sprintf("firestore validation failed: %v", err))
			}
			p.Database = fs
			if err := fs.Init(context.Background()); err != nil {
				panic(fmt.Sprintf("firestore init failed: %v", err))
			}
		default:
			panic(fmt.Sprintf("unknown storage provider: %s", *provider))
		}
	})

	return &p
}
