package orchestrator

import (
	"errors"
	"testing"
)

func TestNewRequiresProviders(t *testing.T) {
	cfg := DefaultConfig()
	if _, err := New(nil, &mockGenerator{}, &mockSynthesizer{}, cfg); !errors.Is(err, ErrNilProvider) {
		t.Errorf("missing recognizer: err = %v", err)
	}
	if _, err := New(&mockRecognizer{}, nil, &mockSynthesizer{}, cfg); !errors.Is(err, ErrNilProvider) {
		t.Errorf("missing generator: err = %v", err)
	}
	if _, err := New(&mockRecognizer{}, &mockGenerator{}, nil, cfg); !errors.Is(err, ErrNilProvider) {
		t.Errorf("missing synthesizer: err = %v", err)
	}
}

func TestNewValidatesConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PacketBytes = 0
	if _, err := New(&mockRecognizer{}, &mockGenerator{}, &mockSynthesizer{}, cfg); !errors.Is(err, ErrConfiguration) {
		t.Errorf("zero packet size: err = %v", err)
	}
}

func TestProviders(t *testing.T) {
	orch, err := New(&mockRecognizer{}, &mockGenerator{}, &mockSynthesizer{name: "primary"}, DefaultConfig(),
		WithFallbackSynthesizer(&mockSynthesizer{name: "backup"}))
	if err != nil {
		t.Fatal(err)
	}
	p := orch.Providers()
	if p["stt"] != "mock-stt" || p["llm"] != "mock-llm" || p["tts"] != "primary" || p["tts_fallback"] != "backup" {
		t.Errorf("providers = %v", p)
	}
}

func TestIsEndCallPhrase(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"okay goodbye", true},
		{"bye", true},
		{"please end call now", true},
		{"you can hang up", true},
		{"disconnect me", true},
		{"stop calling me", true},
		{"cut the call", true},
		{"BYE THEN", true},
		{"goodbyes are hard", false},
		{"I want to buy something", false},
		{"tell me about bypass surgery", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsEndCallPhrase(tt.text); got != tt.want {
			t.Errorf("IsEndCallPhrase(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}
