package notify

import (
	"github.com/LordDigitalis/Sportstaetten-Verwaltung/pkg/logger"
)

// DevMailer logs mail instead of sending it. Used when MAIL_DEV_MODE
// is set so local runs need no mail credentials.
type DevMailer struct{}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (d *DevMailer) Send(toEmail, toName, subject, text, html string) (string, error) {
	logger.Info("dev mailer: suppressed outgoing mail",
		"to", toEmail,
		"subject", subject,
		"text", text,
	)
	return "dev-0", nil
}
