package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/twilio/twilio-go"
	notify "github.com/twilio/twilio-go/rest/notify/v1"
)

type notificationCreator interface {
	CreateNotification(serviceSid string, params *notify.CreateNotificationParams) (*notify.NotifyV1Notification, error)
}

// TwilioNotifyProvider sends through a Twilio Notify service. The push address is the binding identity.
type TwilioNotifyProvider struct {
	serviceSID string
	api        notificationCreator
}

var _ PushProvider = (*TwilioNotifyProvider)(nil)

func NewTwilioNotifyProvider(accountSID, authToken, serviceSID string) *TwilioNotifyProvider {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioNotifyProvider{serviceSID: serviceSID, api: client.NotifyV1}
}

func (p *TwilioNotifyProvider) Name() string { return "twilio" }

func (p *TwilioNotifyProvider) Send(ctx context.Context, msg PushMessage) PushResult {
	if strings.TrimSpace(msg.Address) == "" {
		return failed(fmt.Errorf("%w: empty identity", ErrDeliveryFailed))
	}

	params := &notify.CreateNotificationParams{}
	params.SetIdentity([]string{msg.Address})
	params.SetTitle(msg.Title)
	params.SetBody(msg.Body)
	if len(msg.Actions) > 0 {
		params.SetAction(msg.Actions[0].ID)
	}

	// The Twilio client has no context support, so the call races ctx.
	done := make(chan PushResult, 1)
	go func() {
		resp, err := p.api.CreateNotification(p.serviceSID, params)
		if err != nil {
			done <- failed(fmt.Errorf("%w: twilio notify: %v", ErrDeliveryFailed, err))
			return
		}
		result := PushResult{Delivered: true}
		if resp != nil && resp.Sid != nil {
			result.ProviderMessageID = *resp.Sid
		}
		done <- result
	}()

	select {
	case r := <-done:
		return r
	case <-ctx.Done():
		return failed(fmt.Errorf("%w: twilio notify: %v", ErrDeliveryFailed, ctx.Err()))
	}
}
