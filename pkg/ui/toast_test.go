package ui

import (
	"strings"
	"testing"
	"time"
)

func TestNotifierStickyToasts(t *testing.T) {
	n := NewNotifier(newTestTheme(), 0)
	if cmd := n.Push(ToastInfo, "hello"); cmd != nil {
		t.Error("toasts without a duration should not schedule expiry")
	}
	toast, ok := n.Latest()
	if !ok || toast.Text != "hello" || toast.Level != ToastInfo {
		t.Errorf("Latest() = %+v, %v", toast, ok)
	}
}

func TestNotifierExpiry(t *testing.T) {
	n := NewNotifier(newTestTheme(), time.Millisecond)
	cmd := n.Push(ToastSuccess, "saved")
	if cmd == nil {
		t.Fatal("expected an expiry command")
	}
	msg, ok := cmd().(toastExpiredMsg)
	if !ok {
		t.Fatalf("got %T", msg)
	}
	n.Expire(msg.id)
	if _, ok := n.Latest(); ok {
		t.Error("expired toast still shown")
	}
	n.Expire(msg.id)
}

func TestNotifierKeepsNewest(t *testing.T) {
	n := NewNotifier(newTestTheme(), 0)
	for _, text := range []string{"one", "two", "three", "four"} {
		n.Push(ToastInfo, text)
	}
	toasts := n.Toasts()
	if len(toasts) != maxToasts {
		t.Fatalf("got %d toasts, want %d", len(toasts), maxToasts)
	}
	if toasts[0].Text != "two" || toasts[2].Text != "four" {
		t.Errorf("toasts = %+v", toasts)
	}
}

func TestNotifierView(t *testing.T) {
	n := NewNotifier(newTestTheme(), 0)
	if n.View() != "" {
		t.Error("empty notifier should render nothing")
	}
	n.Push(ToastInfo, "note")
	n.Push(ToastSuccess, "done")
	n.Push(ToastError, "broken")
	lines := strings.Split(stripANSI(n.View()), "\n")
	want := []string{"ℹ note", "✓ done", "✗ broken"}
	for i, w := range want {
		if lines[i] != w {
			t.Errorf("line %d = %q, want %q", i, lines[i], w)
		}
	}
}

func TestNotifyCommand(t *testing.T) {
	msg := Notify(ToastError, "bad")().(ToastMsg)
	if msg.Level != ToastError || msg.Text != "bad" {
		t.Errorf("got %+v", msg)
	}
	if ToastError.String() != "error" || ToastSuccess.String() != "success" || ToastInfo.String() != "info" {
		t.Error("unexpected level names")
	}
}
