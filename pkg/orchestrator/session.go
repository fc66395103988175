package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
)

func isTransportErr(err error) bool {
	return errors.Is(err, ErrTransportClosed)
}

// Phase is the call session lifecycle state.
type Phase int

const (
	PhaseConnecting Phase = iota
	PhaseActive
	PhaseEnded
)

func (p Phase) String() string {
	switch p {
	case PhaseConnecting:
		return "connecting"
	case PhaseActive:
		return "active"
	case PhaseEnded:
		return "ended"
	}
	return "unknown"
}

// CallSession drives one phone call end to end: caller audio in, transcript
// events through the echo filter, interruption controller and turn
// aggregator, and at most one reply pipeline speaking back at a time.
type CallSession struct {
	orch      *Orchestrator
	callID    string
	streamID  string
	transport Transport
	logger    Logger

	ctx    context.Context
	cancel context.CancelFunc
	events chan Event

	conv       *Conversation
	aggregator *TurnAggregator
	echo       EchoFilter
	interrupts *InterruptionController

	rec RecognitionStream

	// sendMu serializes outbound media with clear, so a packet in flight
	// when an interrupt lands cannot trail the flush.
	sendMu sync.Mutex

	mu          sync.Mutex
	phase       Phase
	reply       *ReplyTask
	nextReplyID uint64
	speaking    bool
	// pendingEndMark, when set, ends the call once the transport reports
	// playback reached this mark.
	pendingEndMark string
	record         CallRecord
	startedAt      time.Time
}

// NewCallSession wires a session for one call. Start must be called before
// audio is written.
func (o *Orchestrator) NewCallSession(ctx context.Context, callID, streamID string, transport Transport) *CallSession {
	sCtx, sCancel := context.WithCancel(ctx)
	s := &CallSession{
		orch:      o,
		callID:    callID,
		streamID:  streamID,
		transport: transport,
		logger:    o.logger,
		ctx:       sCtx,
		cancel:    sCancel,
		events:    make(chan Event, 64),
		phase:     PhaseConnecting,
	}
	s.interrupts = NewInterruptionController(o.config.MinWordsToInterrupt, o.config.MinCharsToInterrupt)
	s.aggregator = NewTurnAggregator(o.config.DebounceWindow, s.onUtterance)
	return s
}

func (s *CallSession) CallID() string { return s.callID }

// Events returns the session event channel. It is never closed; CallEnded is
// the last event a consumer should expect.
func (s *CallSession) Events() <-chan Event {
	return s.events
}

// Start loads the call record, fetches external context, opens the
// recognition stream, and speaks the greeting. A recognition start failure
// is fatal; store and context failures are logged and tolerated.
func (s *CallSession) Start() error {
	s.mu.Lock()
	if s.phase != PhaseConnecting {
		s.mu.Unlock()
		return ErrSessionEnded
	}
	s.startedAt = time.Now()
	s.mu.Unlock()

	record := CallRecord{CallID: s.callID, StreamID: s.streamID, Status: StatusInProgress}
	if s.orch.store != nil {
		loaded, err := s.orch.store.LoadOrCreateSession(s.ctx, s.callID, s.streamID)
		if err != nil {
			s.logger.Warn("session record load failed", "callID", s.callID, "error", err)
		} else {
			record = loaded
		}
	}

	prompt := record.SystemPrompt
	if prompt == "" {
		prompt = s.orch.config.SystemPrompt
	}
	if blob := s.fetchCallerContext(record); len(blob) > 0 {
		prompt = prompt + "\n\nContext about the person you are calling:\n" + string(blob)
	}

	s.mu.Lock()
	s.record = record
	s.conv = NewConversation(prompt)
	s.mu.Unlock()

	rec, err := s.orch.recognizer.Start(s.ctx, s)
	if err != nil {
		s.logger.Error("recognition start failed", "callID", s.callID, "error", err)
		s.End(StatusFailed)
		return fmt.Errorf("%w: %v", ErrRecognitionFailed, err)
	}

	s.mu.Lock()
	s.rec = rec
	s.phase = PhaseActive
	s.mu.Unlock()

	s.logEvent("call_started", "")
	s.emit(CallStarted, nil)
	s.logger.Info("call session started", "callID", s.callID, "streamID", s.streamID)

	s.speakFixed(s.orch.config.Greeting, false)
	return nil
}

// fetchCallerContext is best-effort: any failure just means no extra context.
func (s *CallSession) fetchCallerContext(record CallRecord) json.RawMessage {
	if s.orch.fetcher == nil || record.ContextURL == "" {
		return record.ContextData
	}
	if len(record.ContextData) > 0 {
		return record.ContextData
	}
	ctx, cancel := context.WithTimeout(s.ctx, s.orch.config.ContextFetchTimeout)
	defer cancel()
	blob, err := s.orch.fetcher.Fetch(ctx, record.ContextURL, record.ContextHeaders)
	if err != nil {
		s.logger.Warn("caller context fetch failed", "callID", s.callID, "url", record.ContextURL, "error", err)
		return nil
	}
	return blob
}

// WriteAudio forwards caller audio to the recognition stream.
func (s *CallSession) WriteAudio(audio []byte) error {
	s.mu.Lock()
	rec := s.rec
	phase := s.phase
	s.mu.Unlock()
	if phase != PhaseActive || rec == nil {
		return nil
	}
	if err := rec.Send(audio); err != nil {
		return fmt.Errorf("%w: %v", ErrRecognitionFailed, err)
	}
	return nil
}

// OnTranscript implements TranscriptHandler. Fragments flow echo filter,
// interruption controller, then (finals only) the turn aggregator.
func (s *CallSession) OnTranscript(ev TranscriptEvent) error {
	s.mu.Lock()
	phase := s.phase
	speaking := s.speaking
	var baseline string
	if s.reply != nil {
		baseline = s.reply.Text()
	}
	s.mu.Unlock()

	if phase != PhaseActive {
		return nil
	}

	if s.echo.IsEcho(ev.Text, baseline, speaking) {
		s.logger.Debug("dropped self-echo", "callID", s.callID, "text", ev.Text)
		return nil
	}

	if ev.IsFinal {
		s.emit(TranscriptFinal, ev.Text)
	} else {
		s.emit(TranscriptPartial, ev.Text)
	}

	if s.interrupts.ShouldInterrupt(ev.Text, speaking) {
		s.interruptReply()
	}

	if ev.IsFinal {
		s.aggregator.AddFinal(ev.Text, ev.Confidence)
	}
	return nil
}

// onUtterance fires when the debounce window closes on a completed turn.
func (s *CallSession) onUtterance(text string, confidence float64) {
	s.mu.Lock()
	phase := s.phase
	conv := s.conv
	s.mu.Unlock()
	if phase != PhaseActive {
		return
	}

	s.logger.Info("utterance complete", "callID", s.callID, "text", text, "confidence", confidence)
	s.emit(UtteranceComplete, text)
	s.interrupts.Rearm()

	conv.Append(RoleUser, text)
	s.persistMessage(RoleUser, text)

	cfg := s.orch.config
	switch {
	case IsEndCallPhrase(text):
		s.logEvent("end_call_requested", text)
		s.speakFixed(cfg.Goodbye, true)
	case cfg.LowConfidenceThreshold > 0 && confidence < cfg.LowConfidenceThreshold:
		s.logger.Debug("low confidence utterance", "callID", s.callID, "confidence", confidence)
		s.speakFixed(cfg.Reprompt, false)
	default:
		s.startReply()
	}
}

// beginReply replaces any active reply task with a fresh one.
func (s *CallSession) beginReply() *ReplyTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reply != nil {
		s.reply.Cancel()
	}
	s.nextReplyID++
	task := newReplyTask(s.ctx, s.nextReplyID)
	s.reply = task
	s.speaking = true
	s.pendingEndMark = ""
	return task
}

// startReply generates and speaks a reply to the conversation so far.
func (s *CallSession) startReply() {
	task := s.beginReply()
	go s.runReply(task, "")
}

// speakFixed speaks a canned line without invoking the generator. When
// endAfter is set, the call ends once the transport reports the line's
// closing mark was played.
func (s *CallSession) speakFixed(text string, endAfter bool) {
	if text == "" {
		return
	}
	task := s.beginReply()
	if endAfter {
		s.mu.Lock()
		s.pendingEndMark = fmt.Sprintf("reply-%d", task.ID())
		s.mu.Unlock()
	}
	go s.runReply(task, text)
}

// runReply is the reply pipeline: tokens stream through the sentence chunker
// into a fragment channel, and a second goroutine synthesizes fragments into
// paced outbound packets. Runs until the reply finishes or is cancelled.
func (s *CallSession) runReply(task *ReplyTask, fixed string) {
	fragments := make(chan string, 8)
	synthDone := make(chan struct{})

	go func() {
		defer close(synthDone)
		s.runSynthesis(task, fragments)
	}()

	chunker := NewSentenceChunker(func(fragment string) error {
		select {
		case fragments <- fragment:
			return nil
		case <-task.Context().Done():
			return task.Context().Err()
		}
	})

	if fixed != "" {
		task.AppendText(fixed)
		_ = chunker.Write(fixed)
	} else {
		s.emit(BotThinking, nil)
		messages := s.conv.Context(s.orch.config.MaxContextMessages)
		err := s.orch.generator.StreamComplete(task.Context(), messages, func(token string) error {
			task.AppendText(token)
			return chunker.Write(token)
		})
		if err != nil && task.Context().Err() == nil {
			s.logger.Error("reply generation failed", "callID", s.callID, "error", err)
			s.emit(ErrorEvent, fmt.Sprintf("%v: %v", ErrGenerationFailed, err))
			apology := s.orch.config.Apology
			task.AppendText(apology)
			_ = chunker.Write(apology)
		}
	}
	_ = chunker.Flush()
	close(fragments)
	<-synthDone

	s.finishReply(task)
}

// runSynthesis consumes reply fragments and streams their audio out in
// fixed-size packets. A synthesizer failure falls back to the secondary
// synthesizer, then skips the fragment; it never kills the session.
func (s *CallSession) runSynthesis(task *ReplyTask, fragments <-chan string) {
	spoke := false
	playback := NewPlaybackStreamer(s.orch.config.PacketBytes, func(packet []byte) error {
		s.sendMu.Lock()
		defer s.sendMu.Unlock()
		if task.Cancelled() {
			return task.Context().Err()
		}
		if err := s.transport.SendMedia(packet); err != nil {
			return fmt.Errorf("%w: %v", ErrTransportClosed, err)
		}
		return nil
	})

	for fragment := range fragments {
		if task.Cancelled() {
			playback.Cancel()
			return
		}
		if !spoke {
			spoke = true
			s.emit(BotSpeaking, nil)
		}
		if err := s.synthesizeFragment(task, fragment, playback); err != nil {
			if task.Cancelled() {
				playback.Cancel()
				return
			}
			if isTransportErr(err) {
				s.logger.Error("transport send failed", "callID", s.callID, "error", err)
				task.Cancel()
				s.End(StatusFailed)
				return
			}
			s.logger.Error("synthesis failed, skipping fragment", "callID", s.callID, "error", err)
		}
	}

	if task.Cancelled() {
		playback.Cancel()
		return
	}
	if err := playback.Finish(); err != nil {
		if !task.Cancelled() && isTransportErr(err) {
			s.End(StatusFailed)
		}
		return
	}
	mark := fmt.Sprintf("reply-%d", task.ID())
	if err := s.transport.SendMark(mark); err != nil {
		s.logger.Warn("mark send failed", "callID", s.callID, "error", err)
	}
}

func (s *CallSession) synthesizeFragment(task *ReplyTask, fragment string, playback *PlaybackStreamer) error {
	err := s.orch.synth.StreamSynthesize(task.Context(), fragment, playback.Write)
	if err == nil || task.Cancelled() || isTransportErr(err) {
		return err
	}
	if s.orch.fallbackSynth == nil {
		return fmt.Errorf("%w: %v", ErrSynthesisFailed, err)
	}
	s.logger.Warn("primary synthesizer failed, using fallback",
		"callID", s.callID, "primary", s.orch.synth.Name(), "fallback", s.orch.fallbackSynth.Name(), "error", err)
	if err := s.orch.fallbackSynth.StreamSynthesize(task.Context(), fragment, playback.Write); err != nil {
		return fmt.Errorf("%w: %v", ErrSynthesisFailed, err)
	}
	return nil
}

// finishReply records the spoken text, cancelled or not, and retires the
// task if it is still current.
func (s *CallSession) finishReply(task *ReplyTask) {
	task.markDone()
	text := task.Text()
	cancelled := task.Cancelled()

	if text != "" {
		s.conv.Append(RoleAssistant, text)
		s.persistMessage(RoleAssistant, text)
	}

	s.mu.Lock()
	if s.reply == task {
		s.reply = nil
		s.speaking = false
	}
	s.mu.Unlock()

	if !cancelled {
		s.interrupts.Rearm()
		s.emit(ReplyDone, text)
	}
}

// interruptReply cancels the active reply, flushes queued transport audio,
// and discards any half-aggregated turn.
func (s *CallSession) interruptReply() {
	s.mu.Lock()
	task := s.reply
	s.speaking = false
	s.pendingEndMark = ""
	s.mu.Unlock()
	if task == nil {
		return
	}

	s.logger.Info("caller interrupted reply", "callID", s.callID, "replyID", task.ID())
	task.Cancel()
	s.sendMu.Lock()
	err := s.transport.SendClear()
	s.sendMu.Unlock()
	if err != nil {
		s.logger.Warn("transport clear failed", "callID", s.callID, "error", err)
	}
	s.aggregator.Reset()
	s.logEvent("interrupted", "")
	s.emit(Interrupted, nil)
}

// HandleMark is called by the transport when playback reaches a mark. It
// completes the deferred hangup after a goodbye line finishes playing.
func (s *CallSession) HandleMark(name string) {
	s.mu.Lock()
	shouldEnd := s.pendingEndMark != "" && s.pendingEndMark == name
	if shouldEnd {
		s.pendingEndMark = ""
	}
	s.mu.Unlock()
	if shouldEnd {
		s.End(StatusCompleted)
	}
}

// Stop ends the session normally, for when the caller hangs up.
func (s *CallSession) Stop() {
	s.End(StatusCompleted)
}

// End transitions to the ended phase exactly once, cancelling any reply,
// closing the recognition stream, and recording the final status and
// duration.
func (s *CallSession) End(status string) {
	s.mu.Lock()
	if s.phase == PhaseEnded {
		s.mu.Unlock()
		return
	}
	s.phase = PhaseEnded
	task := s.reply
	s.reply = nil
	s.speaking = false
	rec := s.rec
	s.rec = nil
	started := s.startedAt
	s.mu.Unlock()

	if task != nil {
		task.Cancel()
	}
	s.aggregator.Reset()
	if rec != nil {
		if err := rec.Finish(); err != nil {
			s.logger.Warn("recognition stream close failed", "callID", s.callID, "error", err)
		}
	}

	duration := time.Duration(0)
	if !started.IsZero() {
		duration = time.Since(started)
	}
	if s.orch.store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.orch.store.MarkEnded(ctx, s.callID, status, duration); err != nil {
			s.logger.Warn("session end persist failed", "callID", s.callID, "error", err)
		}
		cancel()
	}
	s.logEvent("call_ended", status)

	s.logger.Info("call session ended", "callID", s.callID, "status", status, "duration", duration)
	s.emit(CallEnded, status)
	s.cancel()
}

// Phase returns the current lifecycle phase.
func (s *CallSession) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Speaking reports whether a reply pipeline is active.
func (s *CallSession) Speaking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speaking
}

// Conversation exposes the message history, for inspection endpoints.
func (s *CallSession) Conversation() *Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conv
}

func (s *CallSession) emit(eventType EventType, data interface{}) {
	event := Event{Type: eventType, CallID: s.callID, Data: data}
	select {
	case s.events <- event:
	case <-s.ctx.Done():
		// CallEnded is emitted before the session context is cancelled, so
		// nothing a consumer needs can be dropped here.
	default:
		s.logger.Warn("event channel full, dropping event", "callID", s.callID, "type", eventType)
	}
}

func (s *CallSession) persistMessage(role, text string) {
	if s.orch.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.orch.store.AppendMessage(ctx, s.callID, role, text); err != nil {
		s.logger.Warn("message persist failed", "callID", s.callID, "role", role, "error", err)
	}
}

func (s *CallSession) logEvent(kind, detail string) {
	if s.orch.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.orch.store.LogEvent(ctx, s.callID, kind, detail); err != nil {
		s.logger.Warn("event persist failed", "callID", s.callID, "kind", kind, "error", err)
	}
}
