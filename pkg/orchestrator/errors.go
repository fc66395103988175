package orchestrator

import "errors"

// Custom error types for better error discrimination
var (
	// ErrRecognitionFailed is returned when the speech-to-text stream fails
	ErrRecognitionFailed = errors.New("speech recognition failed")

	// ErrGenerationFailed is returned when the language model fails
	ErrGenerationFailed = errors.New("reply generation failed")

	// ErrSynthesisFailed is returned when text-to-speech synthesis fails
	ErrSynthesisFailed = errors.New("speech synthesis failed")

	// ErrTransportClosed is returned when the media connection is gone
	ErrTransportClosed = errors.New("media transport closed")

	// ErrNilProvider is returned when a required provider is nil
	ErrNilProvider = errors.New("required provider is nil")

	// ErrSessionEnded is returned when an operation reaches an ended session
	ErrSessionEnded = errors.New("call session already ended")

	// ErrConfiguration is returned for invalid or missing configuration
	ErrConfiguration = errors.New("invalid configuration")
)
