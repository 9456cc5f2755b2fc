package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const oneSignalDefaultURL = "https://onesignal.com/api/v1/notifications"

type OneSignalConfig struct {
	AppID     string
	APIKey    string
	APIURL    string
	WebURL    string
	LargeIcon string
}

// OneSignalProvider sends through the OneSignal REST API, one player id per request.
type OneSignalProvider struct {
	cfg    OneSignalConfig
	client *http.Client
}

var _ PushProvider = (*OneSignalProvider)(nil)

func NewOneSignalProvider(cfg OneSignalConfig, client *http.Client) *OneSignalProvider {
	if cfg.APIURL == "" {
		cfg.APIURL = oneSignalDefaultURL
	}
	if client == nil {
		client = &http.Client{}
	}
	return &OneSignalProvider{cfg: cfg, client: client}
}

func (p *OneSignalProvider) Name() string { return "onesignal" }

type oneSignalButton struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type oneSignalRequest struct {
	AppID            string            `json:"app_id"`
	IncludePlayerIDs []string          `json:"include_player_ids"`
	Headings         map[string]string `json:"headings"`
	Contents         map[string]string `json:"contents"`
	Buttons          []oneSignalButton `json:"buttons"`
	WebURL           string            `json:"web_url,omitempty"`
	LargeIcon        string            `json:"large_icon,omitempty"`
	Priority         int               `json:"priority"`
	TTL              int               `json:"ttl"`
}

type oneSignalResponse struct {
	ID         string          `json:"id"`
	Recipients int             `json:"recipients"`
	Errors     json.RawMessage `json:"errors"`
}

func (p *OneSignalProvider) Send(ctx context.Context, msg PushMessage) PushResult {
	if strings.TrimSpace(msg.Address) == "" {
		return failed(fmt.Errorf("%w: empty player id", ErrDeliveryFailed))
	}

	buttons := make([]oneSignalButton, 0, len(msg.Actions))
	for _, a := range msg.Actions {
		buttons = append(buttons, oneSignalButton{ID: a.ID, Text: a.Label})
	}
	payload, err := json.Marshal(oneSignalRequest{
		AppID:            p.cfg.AppID,
		IncludePlayerIDs: []string{msg.Address},
		Headings:         map[string]string{"en": msg.Title},
		Contents:         map[string]string{"en": msg.Body},
		Buttons:          buttons,
		WebURL:           p.cfg.WebURL,
		LargeIcon:        p.cfg.LargeIcon,
		Priority:         10,
		TTL:              86400,
	})
	if err != nil {
		return failed(fmt.Errorf("%w: encode payload: %v", ErrDeliveryFailed, err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.APIURL, bytes.NewReader(payload))
	if err != nil {
		return failed(fmt.Errorf("%w: new request: %v", ErrDeliveryFailed, err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Basic "+p.cfg.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return failed(fmt.Errorf("%w: do request: %v", ErrDeliveryFailed, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return failed(fmt.Errorf("%w: read response: %v", ErrDeliveryFailed, err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return failed(fmt.Errorf("%w: onesignal %s: %s", ErrDeliveryFailed, resp.Status, strings.TrimSpace(string(body))))
	}

	var out oneSignalResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return failed(fmt.Errorf("%w: decode response: %v", ErrDeliveryFailed, err))
	}
	// OneSignal answers 200 with zero recipients when the player id is invalid or unsubscribed.
	if out.Recipients == 0 && hasErrors(out.Errors) {
		return PushResult{
			Delivered:         false,
			ProviderMessageID: out.ID,
			Error:             fmt.Sprintf("%v: onesignal rejected recipient: %s", ErrDeliveryFailed, string(out.Errors)),
		}
	}
	return PushResult{Delivered: true, ProviderMessageID: out.ID}
}

func hasErrors(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s != "" && s != "null" && s != "[]" && s != "{}"
}
