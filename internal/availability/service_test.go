package availability

import (
	"context"
	"database/sql"
	"testing"

	"voicedesk-server/internal/observability"
	"voicedesk-server/internal/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is a hand-written AvailabilityStore for tests
type fakeStore struct {
	templates    []store.AvailabilityTemplate
	overrides    []store.AvailabilityOverride
	appointments []store.Appointment
}

func (f *fakeStore) GetAvailabilityTemplates(ctx context.Context, tenantID uuid.UUID) ([]store.AvailabilityTemplate, error) {
	return f.templates, nil
}

func (f *fakeStore) GetAvailabilityOverrides(ctx context.Context, tenantID uuid.UUID, from, to string) ([]store.AvailabilityOverride, error) {
	return f.overrides, nil
}

func (f *fakeStore) GetAppointments(ctx context.Context, tenantID uuid.UUID, from, to string) ([]store.Appointment, error) {
	return f.appointments, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: true}
}

func TestListFreeSlots_TemplateOnly(t *testing.T) {
	// 2025-06-02 is a Monday
	fake := &fakeStore{
		templates: []store.AvailabilityTemplate{
			{Weekday: 1, StartTime: "09:00", EndTime: "11:00", SlotMinutes: 60},
		},
	}
	svc := New(fake, observability.NewLogger())

	days, err := svc.ListFreeSlots(context.Background(), uuid.New(), "2025-06-02", "2025-06-02")
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, "2025-06-02", days[0].Date)
	assert.Equal(t, []string{"09:00", "10:00"}, days[0].Slots)
}

func TestListFreeSlots_BookingsRemoved(t *testing.T) {
	fake := &fakeStore{
		templates: []store.AvailabilityTemplate{
			{Weekday: 1, StartTime: "09:00", EndTime: "12:00", SlotMinutes: 60},
		},
		appointments: []store.Appointment{
			{Date: "2025-06-02", StartTime: "10:00"},
		},
	}
	svc := New(fake, observability.NewLogger())

	days, err := svc.ListFreeSlots(context.Background(), uuid.New(), "2025-06-02", "2025-06-02")
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, []string{"09:00", "11:00"}, days[0].Slots)
}

func TestListFreeSlots_ClosedOverride(t *testing.T) {
	fake := &fakeStore{
		templates: []store.AvailabilityTemplate{
			{Weekday: 1, StartTime: "09:00", EndTime: "17:00", SlotMinutes: 60},
		},
		overrides: []store.AvailabilityOverride{
			{Date: "2025-06-02", Closed: true},
		},
	}
	svc := New(fake, observability.NewLogger())

	days, err := svc.ListFreeSlots(context.Background(), uuid.New(), "2025-06-02", "2025-06-02")
	require.NoError(t, err)
	assert.Empty(t, days)
}

func TestListFreeSlots_OverrideWindowReplacesTemplate(t *testing.T) {
	fake := &fakeStore{
		templates: []store.AvailabilityTemplate{
			{Weekday: 1, StartTime: "09:00", EndTime: "17:00", SlotMinutes: 60},
		},
		overrides: []store.AvailabilityOverride{
			{Date: "2025-06-02", StartTime: nullString("13:00"), EndTime: nullString("15:00")},
		},
	}
	svc := New(fake, observability.NewLogger())

	days, err := svc.ListFreeSlots(context.Background(), uuid.New(), "2025-06-02", "2025-06-02")
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, []string{"13:00", "14:00"}, days[0].Slots)
}

func TestListFreeSlots_NoTemplateForWeekday(t *testing.T) {
	// 2025-06-03 is a Tuesday; only Monday is configured
	fake := &fakeStore{
		templates: []store.AvailabilityTemplate{
			{Weekday: 1, StartTime: "09:00", EndTime: "17:00", SlotMinutes: 60},
		},
	}
	svc := New(fake, observability.NewLogger())

	days, err := svc.ListFreeSlots(context.Background(), uuid.New(), "2025-06-03", "2025-06-03")
	require.NoError(t, err)
	assert.Empty(t, days)
}

func TestIsSlotFree(t *testing.T) {
	fake := &fakeStore{
		templates: []store.AvailabilityTemplate{
			{Weekday: 1, StartTime: "09:00", EndTime: "11:00", SlotMinutes: 30},
		},
		appointments: []store.Appointment{
			{Date: "2025-06-02", StartTime: "09:30"},
		},
	}
	svc := New(fake, observability.NewLogger())
	ctx := context.Background()
	tenantID := uuid.New()

	free, err := svc.IsSlotFree(ctx, tenantID, "2025-06-02", "09:00")
	require.NoError(t, err)
	assert.True(t, free)

	free, err = svc.IsSlotFree(ctx, tenantID, "2025-06-02", "09:30")
	require.NoError(t, err)
	assert.False(t, free)

	free, err = svc.IsSlotFree(ctx, tenantID, "2025-06-02", "20:00")
	require.NoError(t, err)
	assert.False(t, free)
}

func TestListFreeSlots_InvalidRange(t *testing.T) {
	svc := New(&fakeStore{}, observability.NewLogger())

	_, err := svc.ListFreeSlots(context.Background(), uuid.New(), "2025-06-05", "2025-06-02")
	assert.Error(t, err)

	_, err = svc.ListFreeSlots(context.Background(), uuid.New(), "junk", "2025-06-02")
	assert.Error(t, err)
}
