package booking

import (
	"context"
	"strings"
	"time"
)

// Availability partitions the club's open hours on a day into fixed slots per
// court and marks each slot occupied or free against confirmed and unexpired
// pending-payment bookings. Each slot carries the court's current price.
// The raw date is normalized in the club's stored timezone unless the caller
// supplies an explicit override. Read-only.
func (service *Service) Availability(ctx context.Context, clubID ClubID, rawDate string, timezoneOverride string) (DayAvailability, error) {
	club, err := service.store.GetClub(ctx, clubID)
	if err != nil {
		return DayAvailability{}, err
	}

	timezone := club.Timezone
	if strings.TrimSpace(timezoneOverride) != "" {
		timezone = timezoneOverride
	}
	date, err := NormalizeDate(rawDate, timezone)
	if err != nil {
		return DayAvailability{}, err
	}

	courts, err := service.store.ListCourts(ctx, clubID)
	if err != nil {
		return DayAvailability{}, err
	}

	now := service.nowFn().UTC()
	dayStart, dayEnd := date.DayBoundsUTC()
	activeBookings, err := service.store.ListActiveClubBookings(ctx, clubID, dayStart, dayEnd, now)
	if err != nil {
		return DayAvailability{}, err
	}

	bookingsByCourt := make(map[string][]Booking, len(courts))
	for _, activeBooking := range activeBookings {
		bookingsByCourt[activeBooking.CourtID] = append(bookingsByCourt[activeBooking.CourtID], activeBooking)
	}

	slotWindows := generateDaySlots(dayStart)
	courtGrids := make([]CourtAvailability, 0, len(courts))
	for _, court := range courts {
		courtBookings := bookingsByCourt[court.CourtID]
		slots := make([]Slot, 0, len(slotWindows))
		for _, window := range slotWindows {
			occupied := false
			for _, courtBooking := range courtBookings {
				if window.start.Before(courtBooking.EndTime) && window.end.After(courtBooking.StartTime) {
					occupied = true
					break
				}
			}
			slots = append(slots, Slot{
				Start:      window.start,
				End:        window.end,
				Available:  !occupied,
				PriceCents: court.PriceCents,
			})
		}
		courtGrids = append(courtGrids, CourtAvailability{
			CourtID:   court.CourtID,
			CourtName: court.Name,
			Slots:     slots,
		})
	}

	return DayAvailability{
		ClubID: clubID.String(),
		Date:   date.String(),
		Courts: courtGrids,
	}, nil
}

type slotWindow struct {
	start time.Time
	end   time.Time
}

// generateDaySlots emits every whole slot that fits within the open window of
// the given day. A trailing partial slot is dropped.
func generateDaySlots(dayStart time.Time) []slotWindow {
	windowStart := dayStart.Add(time.Duration(OpenHour) * time.Hour)
	windowEnd := dayStart.Add(time.Duration(CloseHour) * time.Hour)

	var windows []slotWindow
	for current := windowStart; current.Before(windowEnd); current = current.Add(SlotDuration) {
		slotEnd := current.Add(SlotDuration)
		if slotEnd.After(windowEnd) {
			break
		}
		windows = append(windows, slotWindow{start: current, end: slotEnd})
	}
	return windows
}
