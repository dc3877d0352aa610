package notify

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/LordDigitalis/Sportstaetten-Verwaltung/pkg/events"
	"github.com/LordDigitalis/Sportstaetten-Verwaltung/pkg/logger"
)

const queueGroup = "notify"

// Dispatcher turns booking events into outbound mail and SMS. It
// subscribes on a queue group so only one instance handles each event.
// Delivery failures are logged and dropped; notifications are best
// effort and never block the booking flow.
type Dispatcher struct {
	bus    events.Subscriber
	mailer Mailer
	sms    SMSSender
	admin  string
}

func NewDispatcher(bus events.Subscriber, mailer Mailer, sms SMSSender, adminAddress string) *Dispatcher {
	return &Dispatcher{bus: bus, mailer: mailer, sms: sms, admin: adminAddress}
}

// Subscribe wires all event subjects. Call once at startup.
func (d *Dispatcher) Subscribe() error {
	subs := map[string]func(msg *events.Message){
		events.BookingRequested: d.onBookingRequested,
		events.BookingApproved:  d.onBookingApproved,
		events.BookingRejected:  d.onBookingRejected,
		events.BookingCancelled: d.onBookingCancelled,
		events.BookingReminder:  d.onBookingReminder,
		events.PaymentReceived:  d.onPaymentReceived,
		events.PaymentRefunded:  d.onPaymentRefunded,
		events.ContactMessage:   d.onContactMessage,
	}
	for subject, handler := range subs {
		if err := d.bus.QueueSubscribe(subject, queueGroup, handler); err != nil {
			return fmt.Errorf("subscribe %s: %w", subject, err)
		}
	}
	return nil
}

func (d *Dispatcher) onBookingRequested(msg *events.Message) {
	var ev events.BookingRequestedEvent
	if !decode(msg, &ev) {
		return
	}

	subject := fmt.Sprintf("New booking request #%d", ev.BookingID)
	text := fmt.Sprintf("%s requested %s from %s to %s. Review it in the admin dashboard.",
		ev.Username, ev.RoomName, fmtTime(ev.StartTime), fmtTime(ev.EndTime))
	d.mail(d.admin, "", subject, text)
}

func (d *Dispatcher) onBookingApproved(msg *events.Message) {
	var ev events.BookingApprovedEvent
	if !decode(msg, &ev) {
		return
	}

	var pay strings.Builder
	for _, link := range ev.PaymentURLs {
		if link.URL != "" {
			fmt.Fprintf(&pay, "- %s: %s\n", link.Method, link.URL)
		} else {
			fmt.Fprintf(&pay, "- %s: reference %s\n", link.Method, link.Ref)
		}
	}

	subject := fmt.Sprintf("Booking #%d approved: %s", ev.BookingID, ev.RoomName)
	text := fmt.Sprintf("Your booking of %s from %s to %s was approved.\nTotal due: %s\n\nPayment options:\n%s\nThe invoice is attached to your account and available for download.",
		ev.RoomName, fmtTime(ev.StartTime), fmtTime(ev.EndTime), fmtCents(ev.TotalCents), pay.String())
	d.mail(ev.Email, "", subject, text)

	if ev.Phone != "" {
		d.text(ev.Phone, fmt.Sprintf("Booking #%d (%s) approved. Total %s. Payment details sent by email.",
			ev.BookingID, ev.RoomName, fmtCents(ev.TotalCents)))
	}
}

func (d *Dispatcher) onBookingRejected(msg *events.Message) {
	var ev events.BookingRejectedEvent
	if !decode(msg, &ev) {
		return
	}

	subject := fmt.Sprintf("Booking #%d rejected", ev.BookingID)
	text := fmt.Sprintf("Unfortunately your booking request for %s was rejected. The time slot may already be taken.", ev.RoomName)
	d.mail(ev.Email, "", subject, text)
}

func (d *Dispatcher) onBookingCancelled(msg *events.Message) {
	var ev events.BookingCancelledEvent
	if !decode(msg, &ev) {
		return
	}

	subject := fmt.Sprintf("Booking #%d cancelled", ev.BookingID)
	text := fmt.Sprintf("Your booking of %s was cancelled. Reason: %s", ev.RoomName, ev.Reason)
	d.mail(ev.Email, "", subject, text)
}

func (d *Dispatcher) onBookingReminder(msg *events.Message) {
	var ev events.BookingReminderEvent
	if !decode(msg, &ev) {
		return
	}

	subject := fmt.Sprintf("Reminder: %s tomorrow", ev.RoomName)
	text := fmt.Sprintf("Your booking of %s starts at %s.", ev.RoomName, fmtTime(ev.StartTime))
	d.mail(ev.Email, "", subject, text)

	if ev.Phone != "" {
		d.text(ev.Phone, fmt.Sprintf("Reminder: %s starts at %s.", ev.RoomName, fmtTime(ev.StartTime)))
	}
}

func (d *Dispatcher) onPaymentReceived(msg *events.Message) {
	var ev events.PaymentReceivedEvent
	if !decode(msg, &ev) {
		return
	}

	subject := fmt.Sprintf("Payment received for booking #%d", ev.BookingID)
	text := fmt.Sprintf("We received your %s payment for booking #%d. You are all set.", ev.Method, ev.BookingID)
	d.mail(ev.Email, "", subject, text)
}

func (d *Dispatcher) onPaymentRefunded(msg *events.Message) {
	var ev events.PaymentRefundedEvent
	if !decode(msg, &ev) {
		return
	}

	subject := fmt.Sprintf("Refund issued for booking #%d", ev.BookingID)
	text := fmt.Sprintf("A refund of %s was issued to your %s payment for booking #%d.",
		fmtCents(ev.TotalCents), ev.Method, ev.BookingID)
	d.mail(ev.Email, "", subject, text)
}

func (d *Dispatcher) onContactMessage(msg *events.Message) {
	var ev events.ContactMessageEvent
	if !decode(msg, &ev) {
		return
	}

	subject := fmt.Sprintf("Contact form message from %s", ev.Name)
	text := fmt.Sprintf("From: %s <%s>\n\n%s", ev.Name, ev.Email, ev.Message)
	d.mail(d.admin, "", subject, text)
}

func (d *Dispatcher) mail(to, name, subject, text string) {
	if to == "" {
		return
	}
	html := "<p>" + strings.ReplaceAll(text, "\n", "<br>") + "</p>"
	if _, err := d.mailer.Send(to, name, subject, text, html); err != nil {
		logger.Error("notification mail failed", "to", to, "subject", subject, "error", err)
	}
}

func (d *Dispatcher) text(phone, body string) {
	if d.sms == nil {
		return
	}
	if err := d.sms.SendSMS(phone, body); err != nil {
		logger.Error("notification sms failed", "to", phone, "error", err)
	}
}

func decode(msg *events.Message, v any) bool {
	if err := json.Unmarshal(msg.Data, v); err != nil {
		logger.Error("malformed event payload", "subject", msg.Subject, "error", err)
		return false
	}
	return true
}

func fmtTime(t time.Time) string {
	return t.Local().Format("02.01.2006 15:04")
}

func fmtCents(cents int64) string {
	return fmt.Sprintf("%d.%02d EUR", cents/100, cents%100)
}
