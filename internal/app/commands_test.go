package app

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/geolocation/internal/geolocation"
	"github.com/relabs-tech/geolocation/internal/gps"
	"github.com/relabs-tech/geolocation/internal/host"
	"github.com/relabs-tech/geolocation/internal/platform"
)

type doneToken struct{}

func (doneToken) Wait() bool                     { return true }
func (doneToken) WaitTimeout(time.Duration) bool { return true }
func (doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (doneToken) Error() error { return nil }

type publishedMsg struct {
	topic   string
	payload []byte
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []publishedMsg
}

func (f *fakePublisher) Publish(topic string, _ byte, _ bool, payload interface{}) paho.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, publishedMsg{topic, payload.([]byte)})
	return doneToken{}
}

func (f *fakePublisher) messages() []publishedMsg {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]publishedMsg(nil), f.msgs...)
}

func newCommandFixture(t *testing.T) (*CommandHandler, *platform.Hub, *fakePublisher, *geolocation.Adapter) {
	t.Helper()
	svc := platform.NewHub(clockwork.NewFakeClock())
	pub := &fakePublisher{}
	adapter := geolocation.New(svc)
	return NewCommandHandler(adapter, pub, "geo", zerolog.Nop()), svc, pub, adapter
}

func TestCommandHandler_GetCurrentLocationReplies(t *testing.T) {
	h, svc, pub, _ := newCommandFixture(t)

	h.Handle(CommandTopic("geo", CmdGetCurrentLocation), []byte(`{"id":"r1","options":{"maximumAge":0}}`))
	svc.Publish(gps.Location{Latitude: 1, Longitude: 2, TimeStamp: 1000})

	msgs := pub.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "geo/reply/r1", msgs[0].topic)

	var r Reply
	require.NoError(t, json.Unmarshal(msgs[0].payload, &r))
	assert.Equal(t, "r1", r.ID)
	require.NotNil(t, r.Position)
	assert.Equal(t, 1.0, r.Position.Coords.Latitude)
	assert.Nil(t, r.Error)
}

func TestCommandHandler_GetCurrentLocationErrorReply(t *testing.T) {
	h, svc, pub, _ := newCommandFixture(t)
	svc.Shutdown(platform.NewError(platform.CodeSwitchOff, "switch off"))

	h.Handle(CommandTopic("geo", CmdGetCurrentLocation), []byte(`{"id":"r2"}`))

	msgs := pub.messages()
	require.Len(t, msgs, 1)
	var r Reply
	require.NoError(t, json.Unmarshal(msgs[0].payload, &r))
	require.NotNil(t, r.Error)
	assert.Equal(t, platform.CodeSwitchOff, r.Error.ErrCode)
	assert.Nil(t, r.Position)
}

func TestCommandHandler_BadPayloadsIgnored(t *testing.T) {
	h, svc, pub, _ := newCommandFixture(t)

	h.Handle(CommandTopic("geo", CmdGetCurrentLocation), []byte(`not json`))
	h.Handle(CommandTopic("geo", CmdGetCurrentLocation), []byte(`{"options":{}}`))
	h.Handle(CommandTopic("geo", "reboot"), nil)
	h.Handle(CommandTopic("geo", CmdStartObserving), []byte(`{"timeInterval":-1}`))
	svc.Publish(gps.Location{Latitude: 1})

	assert.Empty(t, pub.messages())
	assert.Zero(t, svc.Subscribers())
}

func TestCommandHandler_ObservingLifecycle(t *testing.T) {
	h, svc, _, adapter := newCommandFixture(t)

	var events []string
	adapter.SetHostBinding(host.BindingFunc(func(name string, _ any) { events = append(events, name) }))

	h.Handle(CommandTopic("geo", CmdStartObserving), []byte(`{"timeInterval":0}`))
	assert.Equal(t, 1, svc.Subscribers())
	svc.Publish(gps.Location{Latitude: 1})

	h.Handle(CommandTopic("geo", CmdStopObserving), nil)
	assert.Zero(t, svc.Subscribers())
	svc.Publish(gps.Location{Latitude: 2})

	assert.Equal(t, []string{host.EventLocationChange}, events)
}

func TestCommandHandler_StartObservingEmptyPayload(t *testing.T) {
	h, svc, _, _ := newCommandFixture(t)

	h.Handle(CommandTopic("geo", CmdStartObserving), nil)
	assert.Equal(t, 1, svc.Subscribers())
}
