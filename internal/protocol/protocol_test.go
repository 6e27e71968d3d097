package protocol

import (
	"encoding/json"
	"testing"
)

func TestEventRoundTrip(t *testing.T) {
	ev, err := NewEvent(EventJoin, Join{RoomID: "r1", Name: "ada", Lang: "en"})
	if err != nil {
		t.Fatalf("NewEvent: %v", err)
	}

	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("json.Marshal: %v", err)
	}

	var decoded Event
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("json.Unmarshal: %v", err)
	}
	if decoded.Type != EventJoin {
		t.Fatalf("Type: got %q want %q", decoded.Type, EventJoin)
	}

	var p Join
	if err := decoded.Decode(&p); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if p.RoomID != "r1" || p.Name != "ada" || p.Lang != "en" {
		t.Fatalf("payload: got %+v", p)
	}
}

func TestJoinMissingFieldsDefaultEmpty(t *testing.T) {
	ev := Event{Type: EventJoin, Data: json.RawMessage(`{"roomId":"r1"}`)}

	var p Join
	if err := ev.Decode(&p); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if p.Name != "" || p.Lang != "" {
		t.Fatalf("expected empty defaults, got %+v", p)
	}
}

func TestSignalDataOneOf(t *testing.T) {
	mid := "0"
	cases := []struct {
		name    string
		data    SignalData
		wantErr bool
	}{
		{"sdp only", SignalData{SDP: &SessionDescription{Type: "offer", SDP: "v=0"}}, false},
		{"candidate only", SignalData{Candidate: &Candidate{Candidate: "candidate:1", SDPMid: &mid}}, false},
		{"neither", SignalData{}, true},
		{"both", SignalData{
			SDP:       &SessionDescription{Type: "offer", SDP: "v=0"},
			Candidate: &Candidate{Candidate: "candidate:1"},
		}, true},
	}
	for _, tc := range cases {
		err := tc.data.Validate()
		if tc.wantErr && err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		if !tc.wantErr && err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
	}
}

func TestParseSignalDataRejectsGarbage(t *testing.T) {
	if _, err := ParseSignalData(json.RawMessage(`{"bogus`)); err == nil {
		t.Fatal("expected decode error")
	}
	if _, err := ParseSignalData(json.RawMessage(`{}`)); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestDescriptionToPionRejectsUnknownType(t *testing.T) {
	desc := SessionDescription{Type: "pranswer", SDP: "v=0"}
	if _, err := desc.ToPion(); err == nil {
		t.Fatal("expected error for unsupported sdp type")
	}
}

func TestEncodeCandidateRoundTrip(t *testing.T) {
	mid := "audio"
	idx := uint16(1)
	raw, err := EncodeCandidate(Candidate{Candidate: "candidate:42", SDPMid: &mid, SDPMLineIndex: &idx})
	if err != nil {
		t.Fatalf("EncodeCandidate: %v", err)
	}

	parsed, err := ParseSignalData(raw)
	if err != nil {
		t.Fatalf("ParseSignalData: %v", err)
	}
	if parsed.Candidate == nil || parsed.SDP != nil {
		t.Fatalf("expected candidate-only payload, got %+v", parsed)
	}
	if parsed.Candidate.Candidate != "candidate:42" || *parsed.Candidate.SDPMid != "audio" {
		t.Fatalf("candidate: got %+v", parsed.Candidate)
	}
}
