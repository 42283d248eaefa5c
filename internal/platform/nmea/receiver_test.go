package nmea

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/geolocation/internal/gps"
	"github.com/relabs-tech/geolocation/internal/platform"
)

const (
	ggaFix   = "$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47\r\n"
	rmcFirst = "$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230325,003.1,W*60\r\n"
	rmcNext  = "$GPRMC,123520,A,4807.100,N,01131.200,E,000.0,090.0,230325,003.1,W*67\r\n"
)

func newTestReceiver(t *testing.T) (*Receiver, *io.PipeWriter) {
	t.Helper()
	pr, pw := io.Pipe()
	r := New(pr, "test", clockwork.NewFakeClock(), zerolog.Nop())
	t.Cleanup(func() {
		pw.Close()
		r.Close()
	})
	return r, pw
}

func TestReceiver_CurrentLocationFromStream(t *testing.T) {
	r, pw := newTestReceiver(t)

	got := make(chan *gps.Location, 1)
	err := r.GetCurrentLocation(platform.DefaultCurrentRequest(), func(err error, loc *gps.Location) {
		assert.NoError(t, err)
		got <- loc
	})
	require.NoError(t, err)

	_, err = io.WriteString(pw, "noise\r\n"+ggaFix+rmcFirst)
	require.NoError(t, err)

	select {
	case loc := <-got:
		require.NotNil(t, loc)
		assert.InDelta(t, 48.1173, loc.Latitude, 1e-4)
		assert.InDelta(t, 545.4, loc.Altitude, 1e-9)
	case <-time.After(time.Second):
		t.Fatal("no location delivered")
	}
}

func TestReceiver_SubscriptionReceivesEverySample(t *testing.T) {
	r, pw := newTestReceiver(t)

	got := make(chan gps.Location, 4)
	sub, err := r.Subscribe(platform.ObserveRequest{}, func(l gps.Location) { got <- l })
	require.NoError(t, err)
	assert.NotEmpty(t, sub)

	_, err = io.WriteString(pw, rmcFirst+rmcNext)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		select {
		case <-got:
		case <-time.After(time.Second):
			t.Fatalf("sample %d not delivered", i)
		}
	}
	require.NoError(t, r.Unsubscribe(sub))
}

func TestReceiver_EndOfStreamSwitchesServiceOff(t *testing.T) {
	r, pw := newTestReceiver(t)

	failed := make(chan error, 1)
	require.NoError(t, r.GetCurrentLocation(platform.DefaultCurrentRequest(), func(err error, _ *gps.Location) {
		failed <- err
	}))

	require.NoError(t, pw.Close())

	select {
	case <-r.Done():
	case <-time.After(time.Second):
		t.Fatal("read loop did not exit")
	}

	var be *platform.BusinessError
	require.True(t, errors.As(<-failed, &be))
	assert.Equal(t, platform.CodeLocatingFailed, be.Code)

	err := r.GetCurrentLocation(platform.DefaultCurrentRequest(), func(error, *gps.Location) {})
	require.True(t, errors.As(err, &be))
	assert.Equal(t, platform.CodeSwitchOff, be.Code)
}

// stuckPort ignores Close, like serial drivers whose Read is not interrupted.
type stuckPort struct {
	release chan struct{}
}

func (p *stuckPort) Read([]byte) (int, error) {
	<-p.release
	return 0, io.EOF
}

func (p *stuckPort) Close() error { return nil }

func TestReceiver_CloseGivesUpOnBlockedRead(t *testing.T) {
	clock := clockwork.NewFakeClock()
	port := &stuckPort{release: make(chan struct{})}
	r := New(port, "stuck", clock, zerolog.Nop())

	closed := make(chan error, 1)
	go func() { closed <- r.Close() }()

	clock.BlockUntil(1)
	clock.Advance(closeTimeout)

	select {
	case err := <-closed:
		assert.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("Close did not return")
	}

	err := r.GetCurrentLocation(platform.DefaultCurrentRequest(), func(error, *gps.Location) {})
	var be *platform.BusinessError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, platform.CodeSwitchOff, be.Code)

	close(port.release)
	select {
	case <-r.Done():
	case <-time.After(time.Second):
		t.Fatal("read loop did not exit")
	}
}
