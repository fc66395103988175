package twilio

import (
	"encoding/base64"
	"encoding/json"
	"testing"
)

func TestDecodeStartFrame(t *testing.T) {
	raw := `{"event":"start","sequenceNumber":"1","start":{"streamSid":"MZ123","accountSid":"AC999","callSid":"CA456","tracks":["inbound"],"mediaFormat":{"encoding":"audio/x-mulaw","sampleRate":8000,"channels":1}},"streamSid":"MZ123"}`
	f, err := DecodeFrame([]byte(raw))
	if err != nil {
		t.Fatal(err)
	}
	if f.Event != EventStart {
		t.Errorf("event = %q", f.Event)
	}
	if f.Start == nil || f.Start.StreamSID != "MZ123" || f.Start.CallSID != "CA456" {
		t.Errorf("start = %+v", f.Start)
	}
	if f.Start.MediaFormat.SampleRate != 8000 {
		t.Errorf("sample rate = %d", f.Start.MediaFormat.SampleRate)
	}
}

func TestDecodeMediaFrameAudio(t *testing.T) {
	audio := []byte{0x7f, 0x80, 0x00, 0xff}
	raw := `{"event":"media","streamSid":"MZ123","media":{"track":"inbound","chunk":"2","timestamp":"5","payload":"` +
		base64.StdEncoding.EncodeToString(audio) + `"}}`
	f, err := DecodeFrame([]byte(raw))
	if err != nil {
		t.Fatal(err)
	}
	got, err := f.Audio()
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(audio) {
		t.Errorf("audio = %v, want %v", got, audio)
	}
}

func TestDecodeStopAndMark(t *testing.T) {
	f, err := DecodeFrame([]byte(`{"event":"stop","streamSid":"MZ123","stop":{"callSid":"CA456"}}`))
	if err != nil {
		t.Fatal(err)
	}
	if f.Event != EventStop || f.Stop == nil || f.Stop.CallSID != "CA456" {
		t.Errorf("stop frame = %+v", f)
	}

	f, err = DecodeFrame([]byte(`{"event":"mark","streamSid":"MZ123","mark":{"name":"reply-3"}}`))
	if err != nil {
		t.Fatal(err)
	}
	if f.Event != EventMark || f.Mark == nil || f.Mark.Name != "reply-3" {
		t.Errorf("mark frame = %+v", f)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := DecodeFrame([]byte(`not json`)); err == nil {
		t.Error("garbage accepted")
	}
	if _, err := DecodeFrame([]byte(`{"media":{}}`)); err == nil {
		t.Error("frame without event accepted")
	}
}

func TestAudioOnNonMediaFrame(t *testing.T) {
	f := Frame{Event: EventStop}
	if _, err := f.Audio(); err == nil {
		t.Error("Audio on stop frame did not error")
	}
}

func TestOutboundMediaFrame(t *testing.T) {
	audio := []byte{1, 2, 3}
	data, err := json.Marshal(NewMediaFrame("MZ123", audio))
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	if m["event"] != "media" || m["streamSid"] != "MZ123" {
		t.Errorf("frame = %v", m)
	}
	media := m["media"].(map[string]interface{})
	if media["track"] != "outbound" {
		t.Errorf("track = %v", media["track"])
	}
	if media["payload"] != base64.StdEncoding.EncodeToString(audio) {
		t.Errorf("payload = %v", media["payload"])
	}
}

func TestOutboundClearAndMarkFrames(t *testing.T) {
	data, _ := json.Marshal(NewClearFrame("MZ123"))
	want := `{"event":"clear","streamSid":"MZ123"}`
	if string(data) != want {
		t.Errorf("clear = %s, want %s", data, want)
	}

	data, _ = json.Marshal(NewMarkFrame("MZ123", "reply-1"))
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		t.Fatal(err)
	}
	if f.Event != EventMark || f.Mark.Name != "reply-1" || f.StreamSID != "MZ123" {
		t.Errorf("mark = %+v", f)
	}
}
