package id

import (
	"strings"
	"testing"
	"time"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name   string
		kind   Kind
		millis int64
		suffix int
		want   string
	}{
		{"screen", KindScreen, 1700000000000, 42, "screen-1700000000000-42"},
		{"button", KindButton, 5, 0, "button-5-0"},
		{"filled", KindFilled, 12, 9999, "filled-12-9999"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Format(tt.kind, tt.millis, tt.suffix)
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		input      string
		wantKind   Kind
		wantMillis int64
		wantErr    bool
	}{
		{"screen-1700000000000-42", KindScreen, 1700000000000, false},
		{"button-1-1", KindButton, 1, false},
		{"  question-77-3  ", KindQuestion, 77, false},
		{"notification-10-2", KindNotification, 10, false},
		{"widget-10-2", "", 0, true},
		{"screen-abc-1", "", 0, true},
		{"", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			kind, millis, err := Parse(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if kind != tt.wantKind {
				t.Errorf("kind = %q, want %q", kind, tt.wantKind)
			}
			if millis != tt.wantMillis {
				t.Errorf("millis = %d, want %d", millis, tt.wantMillis)
			}
		})
	}
}

func TestRandomGenerator(t *testing.T) {
	fixed := time.UnixMilli(1700000000123)
	g := RandomGenerator{Now: func() time.Time { return fixed }}

	got := g.New(KindButton)
	if !strings.HasPrefix(got, "button-1700000000123-") {
		t.Errorf("unexpected id %q", got)
	}
	if kind, ok := KindOf(got); !ok || kind != KindButton {
		t.Errorf("KindOf(%q) = %q, %v", got, kind, ok)
	}
}

func TestSanitize(t *testing.T) {
	if got := Sanitize(" button 1  2 "); got != "button-1-2" {
		t.Errorf("Sanitize = %q", got)
	}
}

func TestNewTrackerID(t *testing.T) {
	a, b := NewTrackerID(), NewTrackerID()
	if !IsUUID(a) || !IsUUID(b) {
		t.Fatalf("expected UUIDs, got %q and %q", a, b)
	}
	if a == b {
		t.Error("expected distinct tracker ids")
	}
	if IsUUID("screen-1-1") {
		t.Error("entity id must not look like a UUID")
	}
}
