package models

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar date format used by slots and sessions.
const DateLayout = "2006-01-02"

// Slot represents a therapist's bookable time window.
type Slot struct {
	ID         string     `bson:"id" json:"id"`
	OwnerID    string     `bson:"ownerId" json:"ownerId"`     // therapist who offers the slot
	Date       string     `bson:"date" json:"date"`           // e.g., "2025-06-01"
	TimeRange  string     `bson:"timeRange" json:"timeRange"` // e.g., "10:00-11:00"
	Reserved   bool       `bson:"reserved" json:"reserved"`
	ReservedBy string     `bson:"reservedBy,omitempty" json:"reservedBy,omitempty"` // patient id
	ReservedAt *time.Time `bson:"reservedAt,omitempty" json:"reservedAt,omitempty"`
	// SessionID is the session holding the reservation. Releases issued on
	// behalf of a session only apply while it still holds the slot.
	SessionID string    `bson:"sessionId,omitempty" json:"sessionId,omitempty"`
	Version   int       `bson:"version" json:"version"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// CreateSlotRequest is the payload for offering a new slot.
type CreateSlotRequest struct {
	Date      string `json:"date" binding:"required"`
	TimeRange string `json:"timeRange" binding:"required"`
}

// ValidateSlotWindow checks the date and "HH:MM-HH:MM" range of a slot.
func ValidateSlotWindow(date, timeRange string) error {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return fmt.Errorf("invalid date %q: expected YYYY-MM-DD", date)
	}
	start, end, err := ParseTimeRange(timeRange)
	if err != nil {
		return err
	}
	if !end.After(start) {
		return fmt.Errorf("invalid time range %q: start must be before end", timeRange)
	}
	return nil
}

// ParseTimeRange splits "HH:MM-HH:MM" into two clock times on the zero date.
func ParseTimeRange(timeRange string) (time.Time, time.Time, error) {
	parts := strings.Split(timeRange, "-")
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid time range %q: expected HH:MM-HH:MM", timeRange)
	}
	start, err := time.Parse("15:04", strings.TrimSpace(parts[0]))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid time range start %q", parts[0])
	}
	end, err := time.Parse("15:04", strings.TrimSpace(parts[1]))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid time range end %q", parts[1])
	}
	return start, end, nil
}

// StartsAt resolves the session start instant for a date and a clock time
// ("HH:MM" or "HH:MM-HH:MM") in the given location.
func StartsAt(date, clock string, loc *time.Location) (time.Time, error) {
	if i := strings.Index(clock, "-"); i >= 0 {
		clock = clock[:i]
	}
	return time.ParseInLocation(DateLayout+" 15:04", date+" "+strings.TrimSpace(clock), loc)
}

// Clone returns a copy that shares no pointers with s.
func (s *Slot) Clone() *Slot {
	c := *s
	c.ReservedAt = cloneTime(s.ReservedAt)
	return &c
}
