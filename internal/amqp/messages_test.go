package amqp

import (
	"testing"
)

func TestMirrorMessageRoundTrip(t *testing.T) {
	msg := NewMirrorMessage(7, 42, ActionUpsert)
	if msg.Timestamp.IsZero() {
		t.Fatal("expected timestamp to be set")
	}

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	got, err := MirrorMessageFromJSON(body)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Owner != 7 || got.ID != 42 || got.Action != ActionUpsert {
		t.Errorf("got %+v", got)
	}
	if !got.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("timestamp = %v, want %v", got.Timestamp, msg.Timestamp)
	}
}

func TestMirrorMessageFromJSONRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "{nope"},
		{"unknown action", `{"owner":1,"id":2,"action":"archive"}`},
		{"empty action", `{"owner":1,"id":2}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := MirrorMessageFromJSON([]byte(tt.body)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
