package orchestrator

import "testing"

func TestEchoFilter(t *testing.T) {
	var f EchoFilter

	tests := []struct {
		name     string
		fragment string
		baseline string
		speaking bool
		want     bool
	}{
		{
			name:     "exact echo while speaking",
			fragment: "how can I help you today",
			baseline: "How can I help you today?",
			speaking: true,
			want:     true,
		},
		{
			name:     "partial echo contained in reply",
			fragment: "help you today",
			baseline: "How can I help you today?",
			speaking: true,
			want:     true,
		},
		{
			name:     "reply contained in noisy fragment",
			fragment: "uh How can I help you today",
			baseline: "can I help you",
			speaking: true,
			want:     true,
		},
		{
			name:     "punctuation and case differences",
			fragment: "HELLO, there!",
			baseline: "hello there",
			speaking: true,
			want:     true,
		},
		{
			name:     "same words not speaking",
			fragment: "how can I help you today",
			baseline: "How can I help you today?",
			speaking: false,
			want:     false,
		},
		{
			name:     "unrelated speech while speaking",
			fragment: "what is my account balance",
			baseline: "How can I help you today?",
			speaking: true,
			want:     false,
		},
		{
			name:     "empty baseline",
			fragment: "hello",
			baseline: "",
			speaking: true,
			want:     false,
		},
		{
			name:     "punctuation only fragment",
			fragment: "?!",
			baseline: "How can I help you today?",
			speaking: true,
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.IsEcho(tt.fragment, tt.baseline, tt.speaking); got != tt.want {
				t.Errorf("IsEcho(%q, %q, %v) = %v, want %v", tt.fragment, tt.baseline, tt.speaking, got, tt.want)
			}
		})
	}
}

func TestNormalizeEcho(t *testing.T) {
	got := normalizeEcho("  Hello,   WORLD!!  it's me. ")
	want := "hello world its me"
	if got != want {
		t.Errorf("normalizeEcho = %q, want %q", got, want)
	}
}
