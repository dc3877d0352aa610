package calendar

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	ics "github.com/arran4/golang-ical"
)

// Event is one confirmed booking slot.
type Event struct {
	BookingID int64
	RoomName  string
	Start     time.Time
	End       time.Time
}

// Service maintains downloadable iCalendar files for approved
// bookings.
type Service interface {
	// Write creates or replaces the event file and returns the event
	// reference stored on the booking.
	Write(ev Event) (string, error)
	// Remove deletes the event file for a cancelled booking.
	Remove(ref string) error
	// Path resolves an event reference to the file served on download.
	Path(ref string) string
}

type fileService struct {
	dir  string
	host string
}

func NewFileService(dir, host string) (Service, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create calendar dir: %w", err)
	}
	return &fileService{dir: dir, host: host}, nil
}

func (s *fileService) Write(ev Event) (string, error) {
	ref := fmt.Sprintf("booking-%d", ev.BookingID)
	uid := fmt.Sprintf("%s@%s", ref, s.host)

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//Sportstaetten-Verwaltung//Booking//DE")

	event := cal.AddEvent(uid)
	event.SetCreatedTime(time.Now())
	event.SetDtStampTime(time.Now())
	event.SetStartAt(ev.Start)
	event.SetEndAt(ev.End)
	event.SetSummary(fmt.Sprintf("Booking: %s", ev.RoomName))
	event.SetDescription(fmt.Sprintf("Reserved facility %s, booking #%d", ev.RoomName, ev.BookingID))
	event.SetLocation(ev.RoomName)

	if err := os.WriteFile(s.Path(ref), []byte(cal.Serialize()), 0o644); err != nil {
		return "", fmt.Errorf("write calendar event: %w", err)
	}
	return ref, nil
}

func (s *fileService) Remove(ref string) error {
	if ref == "" {
		return nil
	}
	err := os.Remove(s.Path(ref))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (s *fileService) Path(ref string) string {
	return filepath.Join(s.dir, filepath.Base(ref)+".ics")
}
