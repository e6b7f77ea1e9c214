package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func TestSpinnerAnimatesAndClears(t *testing.T) {
	var buf bytes.Buffer
	s := startSpinner(context.Background(), &buf, "Fetching crate")
	time.Sleep(3 * spinnerInterval)
	s.stop()

	out := buf.String()
	if !strings.Contains(out, "Fetching crate") {
		t.Errorf("output %q does not show the message", out)
	}
	if !strings.HasSuffix(out, strings.Repeat(" ", len("Fetching crate")+2)+"\r") {
		t.Errorf("output %q does not end with a cleared line", out)
	}
}

func TestSpinnerStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var buf bytes.Buffer
	s := startSpinner(ctx, &buf, "Fetching")

	cancel()
	select {
	case <-s.stopped:
	case <-time.After(time.Second):
		t.Fatal("spinner kept running after its context ended")
	}
	s.stop()
}

func TestSpinnerStopTwice(t *testing.T) {
	var buf bytes.Buffer
	s := startSpinner(context.Background(), &buf, "Fetching")
	s.stop()
	s.stop()
}
