package telemetry

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/gwillem/armguard/pkg/gateway"
	"github.com/gwillem/armguard/pkg/robot"
)

func TestMetrics_ObserveFrame(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveFrame(gateway.Decode([]byte(`{"cmd":"move_servo","servo":1,"angle":5}`)))
	m.ObserveFrame(gateway.Decode([]byte(`{"cmd":"move_servo"}`)))
	m.ObserveFrame(gateway.Decode([]byte(`{"cmd":"emergency_stop"}`)))
	m.ObserveFrame(gateway.Decode([]byte(`{"cmd":`)))
	m.ObserveFrame(gateway.Decode([]byte(`{"cmd":"dance"}`)))
	m.ObserveOverflow()

	if got := testutil.ToFloat64(m.Commands.WithLabelValues("move_servo")); got != 2 {
		t.Errorf("move_servo = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.Commands.WithLabelValues("emergency_stop")); got != 1 {
		t.Errorf("emergency_stop = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Dropped.WithLabelValues("malformed")); got != 2 {
		t.Errorf("malformed = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.Dropped.WithLabelValues("unknown")); got != 1 {
		t.Errorf("unknown = %v, want 1", got)
	}
}

func TestMetrics_ObserveState(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveState(robot.StateSafe)
	if got := testutil.ToFloat64(m.Safe); got != 1 {
		t.Errorf("safe = %v, want 1", got)
	}
	m.ObserveState(robot.StateNormal)
	if got := testutil.ToFloat64(m.Safe); got != 0 {
		t.Errorf("safe = %v, want 0", got)
	}
}

type nopPWM struct{ err error }

func (n nopPWM) SetPWM(int, uint16, uint16) error { return n.err }

func TestInstrumentPWM(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	drv := InstrumentPWM(nopPWM{}, m)

	if err := drv.SetPWM(3, 0, 307); err != nil {
		t.Fatal(err)
	}
	if got := testutil.ToFloat64(m.PulseSteps.WithLabelValues("3")); got != 307 {
		t.Errorf("pulse_steps{channel=3} = %v, want 307", got)
	}

	failing := InstrumentPWM(nopPWM{err: errors.New("nack")}, m)
	if err := failing.SetPWM(3, 0, 100); err == nil {
		t.Error("error not propagated")
	}
	if got := testutil.ToFloat64(m.PulseSteps.WithLabelValues("3")); got != 307 {
		t.Errorf("failed write updated gauge to %v", got)
	}
}

func TestCountSink(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	sink := CountSink(gateway.NewLineSink(io.Discard), m)

	sink.Emit(gateway.Event{Kind: gateway.EventEmergencyStop})
	sink.Emit(gateway.Event{Kind: gateway.EventSensors})
	sink.Emit(gateway.Event{Kind: gateway.EventSensors})

	if got := testutil.ToFloat64(m.Events.WithLabelValues("sensors")); got != 2 {
		t.Errorf("sensors events = %v, want 2", got)
	}
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.WatchdogTrips.Inc()

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if !strings.Contains(rec.Body.String(), "armguard_watchdog_trips_total 1") {
		t.Errorf("metrics output missing watchdog counter:\n%s", rec.Body.String())
	}
}

type doneToken struct{}

func (doneToken) Wait() bool                     { return true }
func (doneToken) WaitTimeout(time.Duration) bool { return true }
func (doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (doneToken) Error() error { return nil }

type published struct {
	topic   string
	payload string
}

type fakeClient struct {
	connected bool
	messages  []published
}

func (f *fakeClient) IsConnected() bool { return f.connected }

func (f *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	f.messages = append(f.messages, published{topic, string(payload.([]byte))})
	return doneToken{}
}

func TestMQTTSink_Emit(t *testing.T) {
	client := &fakeClient{connected: true}
	sink := newMQTTSink(client, "greenhouse/arm")

	if err := sink.Emit(gateway.Event{Kind: gateway.EventEmergencyStop}); err != nil {
		t.Fatalf("Emit: %v", err)
	}

	if len(client.messages) != 1 {
		t.Fatalf("published %d messages, want 1", len(client.messages))
	}
	msg := client.messages[0]
	if msg.topic != "greenhouse/arm/events" || msg.payload != `{"event":"emergency_stop"}` {
		t.Errorf("published %+v", msg)
	}
}

func TestMQTTSink_Disconnected(t *testing.T) {
	client := &fakeClient{}
	sink := newMQTTSink(client, "arm")

	err := sink.Emit(gateway.Event{Kind: gateway.EventEmergencyStop})

	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("Emit = %v, want ErrNotConnected", err)
	}
	if len(client.messages) != 0 {
		t.Errorf("published while disconnected")
	}
}
