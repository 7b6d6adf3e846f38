package storagemock

import (
	"context"
	"time"

	"github.com/soltwin/soltwin/pkg/storage"
	"github.com/soltwin/soltwin/pkg/types"
	"github.com/stretchr/testify/mock"
)

type MockDatabase struct {
	mock.Mock
}

var _ storage.Database = (*MockDatabase)(nil)

func (m *MockDatabase) ListPanels(ctx context.Context) ([]types.PanelSpec, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.PanelSpec), args.Error(1)
}

func (m *MockDatabase) GetPanel(ctx context.Context, id string) (types.PanelSpec, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(types.PanelSpec), args.Error(1)
}

func (m *MockDatabase) CreatePanel(ctx context.Context, panel types.PanelSpec) (types.PanelSpec, error) {
	args := m.Called(ctx, panel)
	return args.Get(0).(types.PanelSpec), args.Error(1)
}

func (m *MockDatabase) UpdatePanel(ctx context.Context, panel types.PanelSpec) error {
	args := m.Called(ctx, panel)
	return args.Error(0)
}

func (m *MockDatabase) DeletePanel(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDatabase) ListBatteries(ctx context.Context) ([]types.BatterySpec, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.BatterySpec), args.Error(1)
}

func (m *MockDatabase) GetBattery(ctx context.Context, id string) (types.BatterySpec, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(types.BatterySpec), args.Error(1)
}

func (m *MockDatabase) CreateBattery(ctx context.Context, battery types.BatterySpec) (types.BatterySpec, error) {
	args := m.Called(ctx, battery)
	return args.Get(0).(types.BatterySpec), args.Error(1)
}

func (m *MockDatabase) UpdateBattery(ctx context.Context, battery types.BatterySpec) error {
	args := m.Called(ctx, battery)
	return args.Error(0)
}

func (m *MockDatabase) DeleteBattery(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDatabase) UpsertBlackoutByDate(ctx context.Context, schedule types.BlackoutSchedule) (types.BlackoutSchedule, error) {
	args := m.Called(ctx, schedule)
	return args.Get(0).(types.BlackoutSchedule), args.Error(1)
}

func (m *MockDatabase) GetBlackout(ctx context.Context, id string) (types.BlackoutSchedule, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(types.BlackoutSchedule), args.Error(1)
}

func (m *MockDatabase) UpdateBlackout(ctx context.Context, schedule types.BlackoutSchedule) error {
	args := m.Called(ctx, schedule)
	return args.Error(0)
}

func (m *MockDatabase) ListBlackouts(ctx context.Context, from, to *time.Time, limit int) ([]types.BlackoutSchedule, error) {
	args := m.Called(ctx, from, to, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.BlackoutSchedule), args.Error(1)
}

func (m *MockDatabase) GetBlackoutsForRange(ctx context.Context, start, end time.Time) ([]types.BlackoutSchedule, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.BlackoutSchedule), args.Error(1)
}

func (m *MockDatabase) DeleteBlackout(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDatabase) Close() error {
	args := m.Called()
	return args.Error(0)
}
