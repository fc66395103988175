package httpapi

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// TwilioDialer places outbound calls through the Twilio REST API.
type TwilioDialer struct {
	client     *twilio.RestClient
	fromNumber string
}

func NewTwilioDialer(accountSID, authToken, fromNumber string) *TwilioDialer {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioDialer{client: client, fromNumber: fromNumber}
}

func (d *TwilioDialer) PlaceCall(ctx context.Context, toNumber, twimlURL, statusCallbackURL string) (string, error) {
	params := &twilioApi.CreateCallParams{}
	params.SetTo(toNumber)
	params.SetFrom(d.fromNumber)
	params.SetUrl(twimlURL)
	params.SetStatusCallback(statusCallbackURL)
	params.SetStatusCallbackEvent([]string{"initiated", "ringing", "answered", "completed"})
	params.SetStatusCallbackMethod("POST")

	resp, err := d.client.Api.CreateCall(params)
	if err != nil {
		return "", fmt.Errorf("twilio create call: %w", err)
	}
	if resp.Sid == nil {
		return "", fmt.Errorf("twilio create call: no call sid returned")
	}
	return *resp.Sid, nil
}
