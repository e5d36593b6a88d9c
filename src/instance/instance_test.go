package instance

import (
	"context"
	"strconv"
	"testing"
	"time"
)

func isolatePorts(t *testing.T, start int) {
	t.Helper()
	t.Setenv("SCOREWATCH_PORT_START", strconv.Itoa(start))
	t.Setenv("SCOREWATCH_PORT_END", strconv.Itoa(start+2))
}

func TestDelegatedUploadRoundTrip(t *testing.T) {
	isolatePorts(t, 49600)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	srv := NewServer()
	if err := srv.Start(ctx); err != nil {
		t.Skipf("loopback bind unavailable: %v", err)
	}
	defer srv.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		delegated, text, err := NewClient().TryUpload(ctx, "/tmp/capture.png")
		if err != nil {
			t.Errorf("client: %v", err)
		}
		if !delegated {
			t.Errorf("expected delegation to the resident daemon")
		}
		if text != "accepted 97.20%" {
			t.Errorf("unexpected response text %q", text)
		}
	}()

	conn, err := srv.Next(ctx)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	defer conn.Close()
	if conn.Request().Path != "/tmp/capture.png" {
		t.Errorf("unexpected path %q", conn.Request().Path)
	}
	if err := conn.RespondSuccess("accepted 97.20%"); err != nil {
		t.Fatalf("respond: %v", err)
	}
	<-done
}

func TestDelegatedUploadError(t *testing.T) {
	isolatePorts(t, 49610)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	srv := NewServer()
	if err := srv.Start(ctx); err != nil {
		t.Skipf("loopback bind unavailable: %v", err)
	}
	defer srv.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		delegated, _, err := NewClient().TryUpload(ctx, "/tmp/bad.png")
		if !delegated {
			t.Errorf("expected delegation")
		}
		if err == nil || err.Error() != "play not verified" {
			t.Errorf("expected the daemon's error back, got %v", err)
		}
	}()

	conn, err := srv.Next(ctx)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	defer conn.Close()
	if err := conn.RespondError("play not verified"); err != nil {
		t.Fatalf("respond: %v", err)
	}
	<-done
}

func TestSecondInstanceFailsToBind(t *testing.T) {
	isolatePorts(t, 49620)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	first := NewServer()
	if err := first.Start(ctx); err != nil {
		t.Skipf("loopback bind unavailable: %v", err)
	}
	defer first.Close()

	second := NewServer()
	if err := second.Start(ctx); err == nil {
		second.Close()
		t.Fatalf("expected the second instance to fail the bind")
	}
}

func TestNoResidentMeansNotDelegated(t *testing.T) {
	isolatePorts(t, 49630)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	delegated, _, err := NewClient().TryUpload(ctx, "/tmp/capture.png")
	if err != nil {
		t.Fatalf("TryUpload: %v", err)
	}
	if delegated {
		t.Errorf("expected no delegation without a resident daemon")
	}
}

func TestPortRangeClampAndSwap(t *testing.T) {
	t.Setenv("SCOREWATCH_PORT_START", "80")
	t.Setenv("SCOREWATCH_PORT_END", "70000")
	start, end := portRange()
	if start != 1024 || end != 65535 {
		t.Errorf("expected clamp to [1024,65535], got [%d,%d]", start, end)
	}

	t.Setenv("SCOREWATCH_PORT_START", "50000")
	t.Setenv("SCOREWATCH_PORT_END", "49000")
	start, end = portRange()
	if start != 49000 || end != 50000 {
		t.Errorf("expected reversed range swapped, got [%d,%d]", start, end)
	}
}
