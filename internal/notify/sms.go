package notify

import (
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// TwilioSender sends booking texts. Disabled when no credentials are
// configured; callers check Enabled before queueing SMS work.
type TwilioSender struct {
	client  *twilio.RestClient
	from    string
	Enabled bool
}

func NewTwilioSender(accountSID, authToken, from string) *TwilioSender {
	s := &TwilioSender{
		from:    from,
		Enabled: accountSID != "" && authToken != "" && from != "",
	}
	if s.Enabled {
		s.client = twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSID,
			Password: authToken,
		})
	}
	return s
}

func (s *TwilioSender) SendSMS(toPhone, body string) error {
	if !s.Enabled {
		return fmt.Errorf("sms sender disabled (missing Twilio credentials)")
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(toPhone)
	params.SetFrom(s.from)
	params.SetBody(body)

	_, err := s.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("twilio send failed: %w", err)
	}
	return nil
}
