package natsutil

import (
	"testing"

	"github.com/nats-io/nats.go"
)

func TestHeaderCarrier_NilHeader(t *testing.T) {
	c := (*natsHeaderCarrier)(&nats.Msg{})
	if got := c.Get("traceparent"); got != "" {
		t.Fatalf("Get on nil header = %q", got)
	}
	if keys := c.Keys(); keys != nil {
		t.Fatalf("Keys on nil header = %v", keys)
	}
}

func TestHeaderCarrier_SetCreatesHeader(t *testing.T) {
	msg := &nats.Msg{}
	c := (*natsHeaderCarrier)(msg)
	c.Set("traceparent", "00-abc-def-01")
	if got := c.Get("traceparent"); got != "00-abc-def-01" {
		t.Fatalf("round trip = %q", got)
	}
	if msg.Header == nil {
		t.Fatal("underlying message header not populated")
	}
	if keys := c.Keys(); len(keys) != 1 {
		t.Fatalf("keys = %v", keys)
	}
}
