package daemon

import (
	"encoding/json"
	"testing"
)

func TestCommandOmitsEmptyFields(t *testing.T) {
	data, err := json.Marshal(Command{Cmd: CmdStop})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"cmd":"stop"}` {
		t.Errorf("stop command = %s, want only cmd", data)
	}
}

func TestCommandStartCarriesLocale(t *testing.T) {
	data, err := json.Marshal(Command{Cmd: CmdStart, Locale: "ru_RU"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"cmd":"start","locale":"ru_RU"}` {
		t.Errorf("start command = %s", data)
	}
}

// The daemon also streams audio levels and topics; fields we don't model
// must not break decoding.
func TestEventIgnoresUnknownFields(t *testing.T) {
	j := `{"event":"segment","text":"Hello there","source":"microphone","mic":0.4,"sessionId":"sess-1","sequenceNumber":5}`

	var ev Event
	if err := json.Unmarshal([]byte(j), &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ev.Event != EventSegment || ev.Text != "Hello there" {
		t.Errorf("event = %+v", ev)
	}
	if ev.SequenceNumber == nil || *ev.SequenceNumber != 5 {
		t.Errorf("sequenceNumber = %v, want 5", ev.SequenceNumber)
	}
}

func TestEventError(t *testing.T) {
	j := `{"event":"error","message":"Speech recognition failed","transient":true}`

	var ev Event
	if err := json.Unmarshal([]byte(j), &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ev.Message != "Speech recognition failed" {
		t.Errorf("message = %q", ev.Message)
	}
	if ev.Transient == nil || !*ev.Transient {
		t.Errorf("transient = %v, want true", ev.Transient)
	}
}

func TestResponseError(t *testing.T) {
	j := `{"ok":false,"error":"Microphone permission denied"}`

	var resp Response
	if err := json.Unmarshal([]byte(j), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.OK {
		t.Error("ok = true, want false")
	}
	if resp.Error != "Microphone permission denied" {
		t.Errorf("error = %q, want %q", resp.Error, "Microphone permission denied")
	}
}
