package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	notify "github.com/twilio/twilio-go/rest/notify/v1"
)

func testMessage() PushMessage {
	r := Render(DailyReminder, map[string]string{"day": "Selasa"})
	return PushMessage{Address: "player-1", Title: r.Title, Body: r.Body, Actions: r.Actions}
}

func TestOneSignalProvider_SendsPayload(t *testing.T) {
	var gotReq oneSignalRequest
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &gotReq))
		_, _ = w.Write([]byte(`{"id":"notif-123","recipients":1}`))
	}))
	defer srv.Close()

	p := NewOneSignalProvider(OneSignalConfig{
		AppID:  "app-1",
		APIKey: "secret",
		APIURL: srv.URL,
		WebURL: "https://studyflow.example",
	}, srv.Client())

	res := p.Send(context.Background(), testMessage())

	assert.True(t, res.Delivered)
	assert.Equal(t, "notif-123", res.ProviderMessageID)
	assert.Empty(t, res.Error)
	assert.Equal(t, "Basic secret", gotAuth)
	assert.Equal(t, "app-1", gotReq.AppID)
	assert.Equal(t, []string{"player-1"}, gotReq.IncludePlayerIDs)
	assert.Equal(t, "⏰ Waktunya Belajar!", gotReq.Headings["en"])
	assert.Contains(t, gotReq.Contents["en"], "(Selasa)")
	require.Len(t, gotReq.Buttons, 2)
	assert.Equal(t, "open-app", gotReq.Buttons[0].ID)
	assert.Equal(t, "https://studyflow.example", gotReq.WebURL)
	assert.Equal(t, 10, gotReq.Priority)
	assert.Equal(t, 86400, gotReq.TTL)
}

func TestOneSignalProvider_Failures(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"invalid player", http.StatusOK, `{"id":"","recipients":0,"errors":{"invalid_player_ids":["player-1"]}}`, "invalid_player_ids"},
		{"all unsubscribed", http.StatusOK, `{"id":"","recipients":0,"errors":["All included players are not subscribed"]}`, "not subscribed"},
		{"bad request", http.StatusBadRequest, `{"errors":["app_id not found"]}`, "400"},
		{"server error", http.StatusInternalServerError, `oops`, "500"},
		{"garbage", http.StatusOK, `not json`, "decode response"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			p := NewOneSignalProvider(OneSignalConfig{AppID: "a", APIKey: "k", APIURL: srv.URL}, srv.Client())
			res := p.Send(context.Background(), testMessage())

			assert.False(t, res.Delivered)
			assert.Contains(t, res.Error, tc.want)
			assert.Contains(t, res.Error, ErrDeliveryFailed.Error())
		})
	}
}

func TestOneSignalProvider_EmptyAddressNeverCallsAPI(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	defer srv.Close()

	p := NewOneSignalProvider(OneSignalConfig{APIURL: srv.URL}, srv.Client())
	msg := testMessage()
	msg.Address = " "

	res := p.Send(context.Background(), msg)
	assert.False(t, res.Delivered)
	assert.False(t, called)
}

func TestOneSignalProvider_RespectsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	p := NewOneSignalProvider(OneSignalConfig{APIURL: srv.URL}, srv.Client())
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	res := p.Send(ctx, testMessage())
	assert.False(t, res.Delivered)
	assert.Contains(t, res.Error, "do request")
}

type fakeNotify struct {
	sid    string
	err    error
	delay  time.Duration
	params *notify.CreateNotificationParams
	svc    string
}

func (f *fakeNotify) CreateNotification(serviceSid string, params *notify.CreateNotificationParams) (*notify.NotifyV1Notification, error) {
	f.svc, f.params = serviceSid, params
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &notify.NotifyV1Notification{Sid: &f.sid}, nil
}

func TestTwilioNotifyProvider_Send(t *testing.T) {
	api := &fakeNotify{sid: "NT123"}
	p := &TwilioNotifyProvider{serviceSID: "IS1", api: api}

	res := p.Send(context.Background(), testMessage())

	assert.True(t, res.Delivered)
	assert.Equal(t, "NT123", res.ProviderMessageID)
	assert.Equal(t, "IS1", api.svc)
	require.NotNil(t, api.params.Identity)
	assert.Equal(t, []string{"player-1"}, *api.params.Identity)
	assert.Equal(t, "⏰ Waktunya Belajar!", *api.params.Title)
	assert.Equal(t, "open-app", *api.params.Action)
}

func TestTwilioNotifyProvider_Failures(t *testing.T) {
	p := &TwilioNotifyProvider{serviceSID: "IS1", api: &fakeNotify{err: errors.New("Status: 400 - Invalid identity")}}
	res := p.Send(context.Background(), testMessage())
	assert.False(t, res.Delivered)
	assert.Contains(t, res.Error, "Invalid identity")

	p = &TwilioNotifyProvider{serviceSID: "IS1", api: &fakeNotify{sid: "NT1", delay: 200 * time.Millisecond}}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	res = p.Send(ctx, testMessage())
	assert.False(t, res.Delivered)
	assert.Contains(t, res.Error, context.DeadlineExceeded.Error())
}

func TestLogProvider_Send(t *testing.T) {
	p := NewLogProvider(nopLogger())
	res := p.Send(context.Background(), testMessage())
	assert.True(t, res.Delivered)
	assert.NotEmpty(t, res.ProviderMessageID)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, p.Send(ctx, testMessage()).Delivered)
}
