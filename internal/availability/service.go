package availability

import (
	"context"
	"fmt"
	"time"

	"voicedesk-server/internal/observability"
	"voicedesk-server/internal/store"

	"github.com/google/uuid"
)

const (
	dateLayout         = "2006-01-02"
	timeLayout         = "15:04"
	defaultSlotMinutes = 30
	maxRangeDays       = 31
)

// AvailabilityStore is the store surface the service needs.
type AvailabilityStore interface {
	GetAvailabilityTemplates(ctx context.Context, tenantID uuid.UUID) ([]store.AvailabilityTemplate, error)
	GetAvailabilityOverrides(ctx context.Context, tenantID uuid.UUID, from, to string) ([]store.AvailabilityOverride, error)
	GetAppointments(ctx context.Context, tenantID uuid.UUID, from, to string) ([]store.Appointment, error)
}

// DaySlots lists the free start times for one date.
type DaySlots struct {
	Date  string   `json:"date"`
	Slots []string `json:"slots"`
}

type Service struct {
	store  AvailabilityStore
	logger *observability.Logger
}

func New(store AvailabilityStore, logger *observability.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// ListFreeSlots computes the free time slots per day in [from, to]: recurring
// weekly templates, replaced by date-specific overrides, minus existing
// bookings. Days with no open window are omitted.
func (s *Service) ListFreeSlots(ctx context.Context, tenantID uuid.UUID, from, to string) ([]DaySlots, error) {
	fromDate, err := time.Parse(dateLayout, from)
	if err != nil {
		return nil, fmt.Errorf("invalid from date %q: %w", from, err)
	}
	toDate, err := time.Parse(dateLayout, to)
	if err != nil {
		return nil, fmt.Errorf("invalid to date %q: %w", to, err)
	}
	if toDate.Before(fromDate) {
		return nil, fmt.Errorf("date range ends before it starts")
	}
	if toDate.Sub(fromDate) > maxRangeDays*24*time.Hour {
		toDate = fromDate.Add(maxRangeDays * 24 * time.Hour)
		to = toDate.Format(dateLayout)
	}

	templates, err := s.store.GetAvailabilityTemplates(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	overrides, err := s.store.GetAvailabilityOverrides(ctx, tenantID, from, to)
	if err != nil {
		return nil, err
	}
	appointments, err := s.store.GetAppointments(ctx, tenantID, from, to)
	if err != nil {
		return nil, err
	}

	templatesByWeekday := make(map[int][]store.AvailabilityTemplate)
	for _, t := range templates {
		templatesByWeekday[t.Weekday] = append(templatesByWeekday[t.Weekday], t)
	}
	overridesByDate := make(map[string]store.AvailabilityOverride)
	for _, o := range overrides {
		overridesByDate[o.Date] = o
	}
	bookedByDate := make(map[string]map[string]bool)
	for _, a := range appointments {
		if bookedByDate[a.Date] == nil {
			bookedByDate[a.Date] = make(map[string]bool)
		}
		bookedByDate[a.Date][a.StartTime] = true
	}

	var days []DaySlots
	for d := fromDate; !d.After(toDate); d = d.Add(24 * time.Hour) {
		date := d.Format(dateLayout)
		slots := s.slotsForDay(d, overridesByDate, templatesByWeekday)

		var free []string
		for _, slot := range slots {
			if !bookedByDate[date][slot] {
				free = append(free, slot)
			}
		}
		if len(free) > 0 {
			days = append(days, DaySlots{Date: date, Slots: free})
		}
	}
	return days, nil
}

// IsSlotFree reports whether the given date/time is an open, unbooked slot.
func (s *Service) IsSlotFree(ctx context.Context, tenantID uuid.UUID, date, startTime string) (bool, error) {
	days, err := s.ListFreeSlots(ctx, tenantID, date, date)
	if err != nil {
		return false, err
	}
	for _, day := range days {
		for _, slot := range day.Slots {
			if slot == startTime {
				return true, nil
			}
		}
	}
	return false, nil
}

func (s *Service) slotsForDay(day time.Time, overridesByDate map[string]store.AvailabilityOverride,
	templatesByWeekday map[int][]store.AvailabilityTemplate) []string {
	date := day.Format(dateLayout)
	weekday := int(day.Weekday())

	if o, ok := overridesByDate[date]; ok {
		if o.Closed || !o.StartTime.Valid || !o.EndTime.Valid {
			return nil
		}
		slotMinutes := defaultSlotMinutes
		if templates := templatesByWeekday[weekday]; len(templates) > 0 {
			slotMinutes = templates[0].SlotMinutes
		}
		return expandWindow(o.StartTime.String, o.EndTime.String, slotMinutes)
	}

	var slots []string
	for _, t := range templatesByWeekday[weekday] {
		slots = append(slots, expandWindow(t.StartTime, t.EndTime, t.SlotMinutes)...)
	}
	return slots
}

// expandWindow generates slot start times every slotMinutes within [start, end).
func expandWindow(start, end string, slotMinutes int) []string {
	startTime, err := time.Parse(timeLayout, start)
	if err != nil {
		return nil
	}
	endTime, err := time.Parse(timeLayout, end)
	if err != nil || !endTime.After(startTime) {
		return nil
	}
	if slotMinutes <= 0 {
		slotMinutes = defaultSlotMinutes
	}

	var slots []string
	step := time.Duration(slotMinutes) * time.Minute
	for cur := startTime; cur.Add(step).Before(endTime) || cur.Add(step).Equal(endTime); cur = cur.Add(step) {
		slots = append(slots, cur.Format(timeLayout))
	}
	return slots
}
