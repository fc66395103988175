// Command localcall runs the phone agent against the local microphone and
// speakers instead of a telephone line. Useful for trying prompts and
// providers without placing a real call.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gen2brain/malgo"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/voxwire-ai/voxwire/pkg/audio"
	"github.com/voxwire-ai/voxwire/pkg/logging"
	"github.com/voxwire-ai/voxwire/pkg/orchestrator"
	llmProvider "github.com/voxwire-ai/voxwire/pkg/providers/llm"
	sttProvider "github.com/voxwire-ai/voxwire/pkg/providers/stt"
	ttsProvider "github.com/voxwire-ai/voxwire/pkg/providers/tts"
	"github.com/voxwire-ai/voxwire/pkg/store"
)

// The pipeline speaks the telephone wire format end to end, so the local
// device runs at the same rate and audio is transcoded at the edges.
const (
	sampleRate = 8000
	channels   = 1
)

// localTransport plays outbound audio through the speaker buffer instead of
// a websocket. Marks are acknowledged as soon as the buffer drains.
type localTransport struct {
	mu     sync.Mutex
	buf    []byte
	marks  []string
	onMark func(name string)
}

func (t *localTransport) SendMedia(mulaw []byte) error {
	pcm := audio.DecodeMuLaw(mulaw)
	t.mu.Lock()
	t.buf = append(t.buf, pcm...)
	t.mu.Unlock()
	return nil
}

func (t *localTransport) SendClear() error {
	t.mu.Lock()
	t.buf = nil
	t.marks = nil
	t.mu.Unlock()
	return nil
}

func (t *localTransport) SendMark(name string) error {
	t.mu.Lock()
	t.marks = append(t.marks, name)
	t.mu.Unlock()
	return nil
}

// fill copies queued audio into the device output buffer, zero-filling the
// rest, and fires any marks once playback has drained.
func (t *localTransport) fill(out []byte) {
	t.mu.Lock()
	n := copy(out, t.buf)
	t.buf = t.buf[n:]
	for i := n; i < len(out); i++ {
		out[i] = 0
	}
	var fired []string
	if len(t.buf) == 0 && len(t.marks) > 0 {
		fired = t.marks
		t.marks = nil
	}
	cb := t.onMark
	t.mu.Unlock()

	if cb != nil {
		for _, name := range fired {
			go cb(name)
		}
	}
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: No .env file found, using system environment variables")
	}

	logger := logging.New(env("LOG_LEVEL", "warn"))

	deepgramKey := os.Getenv("DEEPGRAM_API_KEY")
	groqKey := os.Getenv("GROQ_API_KEY")
	cartesiaKey := os.Getenv("CARTESIA_API_KEY")
	elevenKey := os.Getenv("ELEVENLABS_API_KEY")

	if deepgramKey == "" || groqKey == "" {
		log.Fatal("Error: DEEPGRAM_API_KEY and GROQ_API_KEY must be set")
	}

	var synth orchestrator.Synthesizer
	switch {
	case cartesiaKey != "":
		synth = ttsProvider.NewCartesia(cartesiaKey, env("CARTESIA_VOICE_ID", "a0e99841-438c-4a64-b679-ae501e7d6091"))
	case elevenKey != "":
		synth = ttsProvider.NewElevenLabs(elevenKey, os.Getenv("ELEVENLABS_VOICE_ID"))
	default:
		log.Fatal("Error: CARTESIA_API_KEY or ELEVENLABS_API_KEY must be set")
	}

	cfg := orchestrator.DefaultConfig()
	// Smaller packets keep the local speaker latency low.
	cfg.PacketBytes = 1600
	if prompt := os.Getenv("AGENT_SYSTEM_PROMPT"); prompt != "" {
		cfg.SystemPrompt = prompt
	}

	orch, err := orchestrator.New(
		sttProvider.NewDeepgram(deepgramKey, logger),
		llmProvider.NewGroq(groqKey, os.Getenv("GROQ_MODEL")),
		synth,
		cfg,
		orchestrator.WithLogger(logger),
		orchestrator.WithStore(store.NewMemoryStore()),
	)
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	transport := &localTransport{}
	callID := "local-" + uuid.NewString()
	session := orch.NewCallSession(ctx, callID, "mic", transport)
	transport.onMark = session.HandleMark

	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		log.Fatal(err)
	}
	defer mctx.Uninit()

	var rmsMu sync.Mutex
	lastRMS := 0.0

	// RECORD_WAV=<path> dumps the raw mic capture to a WAV file on exit.
	recordPath := os.Getenv("RECORD_WAV")
	var recMu sync.Mutex
	var recorded []byte

	onSamples := func(pOutput, pInput []byte, frameCount uint32) {
		if pInput != nil {
			rmsMu.Lock()
			lastRMS = audio.RMS(pInput)
			rmsMu.Unlock()
			if recordPath != "" {
				recMu.Lock()
				recorded = append(recorded, pInput...)
				recMu.Unlock()
			}
			_ = session.WriteAudio(audio.EncodeMuLaw(pInput))
		}
		if pOutput != nil {
			transport.fill(pOutput)
		}
	}

	if recordPath != "" {
		defer func() {
			recMu.Lock()
			pcm := append([]byte(nil), recorded...)
			recMu.Unlock()
			if err := os.WriteFile(recordPath, audio.NewWavBuffer(pcm, sampleRate), 0o644); err != nil {
				fmt.Printf("\nmic recording failed: %v\n", err)
				return
			}
			fmt.Printf("\nmic recording written to %s\n", recordPath)
		}()
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Duplex)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = channels
	deviceConfig.Playback.Format = malgo.FormatS16
	deviceConfig.Playback.Channels = channels
	deviceConfig.SampleRate = sampleRate
	deviceConfig.Alsa.NoMMap = 1

	device, err := malgo.InitDevice(mctx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: onSamples,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer device.Uninit()

	if err := session.Start(); err != nil {
		log.Fatal(err)
	}
	defer session.Stop()

	if err := device.Start(); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Local call started (%s). Say \"goodbye\" or press Ctrl+C to end.\n", callID)

	go func() {
		for {
			rmsMu.Lock()
			level := lastRMS
			rmsMu.Unlock()

			dots := int(level * 500)
			if dots > 40 {
				dots = 40
			}
			meter := ""
			for i := 0; i < dots; i++ {
				meter += "|"
			}
			fmt.Printf("\r[MIC %-40s] %.5f", meter, level)
			time.Sleep(100 * time.Millisecond)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-sig:
			fmt.Printf("\nHanging up...\n")
			return
		case event := <-session.Events():
			switch event.Type {
			case orchestrator.TranscriptFinal:
				fmt.Printf("\r\033[K[YOU] %v\n", event.Data)
			case orchestrator.UtteranceComplete:
				fmt.Printf("\r\033[K[TURN] %v\n", event.Data)
			case orchestrator.BotThinking:
				fmt.Printf("\r\033[K[AGENT] thinking...\n")
			case orchestrator.ReplyDone:
				fmt.Printf("\r\033[K[AGENT] %v\n", event.Data)
			case orchestrator.Interrupted:
				fmt.Printf("\r\033[K[AGENT] interrupted\n")
			case orchestrator.ErrorEvent:
				fmt.Printf("\r\033[K[ERROR] %v\n", event.Data)
			case orchestrator.CallEnded:
				fmt.Printf("\r\033[KCall ended (%v)\n", event.Data)
				return
			}
		}
	}
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
