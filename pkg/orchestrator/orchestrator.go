package orchestrator

import (
	"fmt"
	"regexp"
)

// endCallPattern matches caller phrases that should end the call after a
// goodbye reply.
var endCallPattern = regexp.MustCompile(`(?i)\b(goodbye|bye|end call|hang up|disconnect|stop calling|cut the call)\b`)

// Orchestrator bundles the providers and collaborators shared by every call
// session: recognition, generation, synthesis, persistence, and external
// context fetching.
type Orchestrator struct {
	recognizer Recognizer
	generator  Generator
	synth      Synthesizer
	// fallbackSynth takes over when the primary synthesizer fails mid-reply.
	fallbackSynth Synthesizer
	store         Store
	fetcher       ContextFetcher
	config        Config
	logger        Logger
}

// Option configures optional collaborators on the orchestrator.
type Option func(*Orchestrator)

func WithStore(s Store) Option {
	return func(o *Orchestrator) { o.store = s }
}

func WithContextFetcher(f ContextFetcher) Option {
	return func(o *Orchestrator) { o.fetcher = f }
}

func WithFallbackSynthesizer(s Synthesizer) Option {
	return func(o *Orchestrator) { o.fallbackSynth = s }
}

func WithLogger(l Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// New creates an orchestrator. Recognizer, generator, and synthesizer are
// required; everything else is optional.
func New(rec Recognizer, gen Generator, synth Synthesizer, config Config, opts ...Option) (*Orchestrator, error) {
	if rec == nil || gen == nil || synth == nil {
		return nil, fmt.Errorf("%w: recognizer, generator, and synthesizer must be set", ErrNilProvider)
	}
	if config.PacketBytes <= 0 || config.DebounceWindow <= 0 {
		return nil, fmt.Errorf("%w: packet size and debounce window must be positive", ErrConfiguration)
	}
	o := &Orchestrator{
		recognizer: rec,
		generator:  gen,
		synth:      synth,
		config:     config,
		logger:     &NoOpLogger{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

func (o *Orchestrator) Config() Config {
	return o.config
}

// Providers returns the names of the wired providers, for diagnostics.
func (o *Orchestrator) Providers() map[string]string {
	p := map[string]string{
		"stt": o.recognizer.Name(),
		"llm": o.generator.Name(),
		"tts": o.synth.Name(),
	}
	if o.fallbackSynth != nil {
		p["tts_fallback"] = o.fallbackSynth.Name()
	}
	return p
}

// IsEndCallPhrase reports whether the utterance asks to end the call.
func IsEndCallPhrase(text string) bool {
	return endCallPattern.MatchString(text)
}
