//go:build integration

package natsutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
)

func natsURL() string {
	if v := os.Getenv("NATS_URL"); v != "" {
		return v
	}
	return nats.DefaultURL
}

func TestIntegration_ReplyRoundTrip(t *testing.T) {
	nc, err := nats.Connect(natsURL())
	if err != nil {
		t.Fatalf("nats connect: %v", err)
	}
	t.Cleanup(nc.Close)

	sub, err := Reply(nc, "integ.cakg.ask", "integ", echo)
	if err != nil {
		t.Fatalf("Reply: %v", err)
	}
	defer sub.Unsubscribe()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	got, err := Request[question, answer](ctx, nc, "integ.cakg.ask", question{Text: "民航"})
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if got.Text != "答：民航" {
		t.Fatalf("unexpected reply: %+v", got)
	}
}
