package notify

// Mailer sends a single email. Implementations return the provider
// message id when they have one.
type Mailer interface {
	Send(toEmail, toName, subject, text, html string) (string, error)
}

// SMSSender sends a single text message.
type SMSSender interface {
	SendSMS(toPhone, body string) error
}
