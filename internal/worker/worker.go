// Package worker provides a NATS worker that turns generation requests into
// audio stored in the object store.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/book-expert/events"
	"github.com/book-expert/logger"
	"github.com/book-expert/marathi-tts/internal/config"
	"github.com/book-expert/marathi-tts/internal/core"
	"github.com/book-expert/marathi-tts/internal/synth"
	"github.com/book-expert/marathi-tts/internal/tts/ttsutils"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

const (
	defaultJobTimeout = 10 * time.Minute
	maxCandidates     = 16
	audioKeyFormat    = "%s/%s.wav"
	tempDirPattern    = "marathi-tts-job-*"
	outputSubdir      = "out"
)

var (
	// ErrTextEmpty indicates that neither text nor a text key was supplied.
	ErrTextEmpty = errors.New("request carries no text")
	// ErrCandidatesRange indicates a candidate count outside [0, maxCandidates].
	ErrCandidatesRange = errors.New("candidates out of range")
)

// GenerationRequestedEvent asks the worker to synthesize Text, or the object
// stored under TextKey when Text is empty.
type GenerationRequestedEvent struct {
	Header     events.EventHeader `json:"header"`
	Text       string             `json:"text,omitempty"`
	TextKey    string             `json:"text_key,omitempty"`
	Voice      string             `json:"voice,omitempty"`
	Preset     string             `json:"preset,omitempty"`
	Candidates int                `json:"candidates,omitempty"`
}

// GenerationCompletedEvent is the reply to a GenerationRequestedEvent.
type GenerationCompletedEvent struct {
	Header    events.EventHeader `json:"header"`
	AudioKeys []string           `json:"audio_keys"`
	Preset    string             `json:"preset"`
	Voice     string             `json:"voice"`
}

// Generator is the part of synth.Generator used by the worker.
type Generator interface {
	Generate(ctx context.Context, req synth.Request) (*synth.Result, error)
}

// Defaults fill the fields a request leaves empty.
type Defaults struct {
	Voice      string
	Preset     string
	Candidates int
	JobTimeout time.Duration
}

// NatsWorker listens for generation requests on a NATS subject.
type NatsWorker struct {
	natsConnection *nats.Conn
	subject        string
	store          core.AudioStore
	generator      Generator
	defaults       Defaults
	log            *logger.Logger
}

// NewNatsWorker creates a new instance of a NATS worker.
func NewNatsWorker(
	natsConnection *nats.Conn,
	subject string,
	store core.AudioStore,
	generator Generator,
	defaults Defaults,
	log *logger.Logger,
) *NatsWorker {
	if defaults.Preset == "" {
		defaults.Preset = config.PresetFast
	}

	if defaults.Candidates < 1 {
		defaults.Candidates = 1
	}

	if defaults.JobTimeout <= 0 {
		defaults.JobTimeout = defaultJobTimeout
	}

	return &NatsWorker{
		natsConnection: natsConnection,
		subject:        subject,
		store:          store,
		generator:      generator,
		defaults:       defaults,
		log:            log,
	}
}

// Run subscribes and blocks until ctx is cancelled, then drains the subscription.
func (w *NatsWorker) Run(ctx context.Context) error {
	sub, err := w.natsConnection.Subscribe(w.subject, w.handleMessage)
	if err != nil {
		return fmt.Errorf("failed to subscribe to subject %s: %w", w.subject, err)
	}

	w.log.Info("Listening for generation requests on %s", w.subject)

	<-ctx.Done()

	drainErr := sub.Drain()
	if drainErr != nil {
		return fmt.Errorf("failed to drain subscription: %w", drainErr)
	}

	return nil
}

func (w *NatsWorker) handleMessage(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), w.defaults.JobTimeout)
	defer cancel()

	event, err := w.parseAndValidateEvent(msg)
	if err != nil {
		w.log.Error("Failed to parse and validate event: %v", err)

		return
	}

	audioKeys, processErr := w.processJob(ctx, event)
	if processErr != nil {
		w.log.Error("Failed to process generation for workflow %s: %v", event.Header.WorkflowID, processErr)

		return
	}

	replyEvent := &GenerationCompletedEvent{
		Header:    event.Header,
		AudioKeys: audioKeys,
		Preset:    event.Preset,
		Voice:     event.Voice,
	}

	err = w.publishReplyEvent(msg, replyEvent)
	if err != nil {
		w.log.Error("Failed to publish reply event for workflow %s: %v", event.Header.WorkflowID, err)
	}
}

// processJob generates into a temporary directory and uploads every file.
func (w *NatsWorker) processJob(ctx context.Context, event *GenerationRequestedEvent) ([]string, error) {
	text := event.Text

	if text == "" {
		textData, err := w.store.Download(ctx, event.TextKey)
		if err != nil {
			return nil, fmt.Errorf("failed to download text data for key '%s': %w", event.TextKey, err)
		}

		text = string(textData)
	}

	tempDir, err := os.MkdirTemp("", tempDirPattern)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}

	defer func() {
		removeErr := os.RemoveAll(tempDir)
		if removeErr != nil {
			w.log.Warn("Failed to remove temp dir '%s': %v", tempDir, removeErr)
		}
	}()

	result, err := w.generator.Generate(ctx, synth.Request{
		Text:       text,
		Voice:      event.Voice,
		Preset:     event.Preset,
		OutputDir:  filepath.Join(tempDir, outputSubdir),
		Candidates: event.Candidates,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate speech: %w", err)
	}

	prefix := ttsutils.SanitizeFilename(event.Header.WorkflowID)
	if prefix == "" {
		prefix = uuid.NewString()
	}

	audioKeys := make([]string, 0, len(result.Files))

	var uploadedBytes int64

	for _, path := range result.Files {
		audioKey := fmt.Sprintf(audioKeyFormat, prefix, uuid.NewString())

		info, statErr := os.Stat(path)
		if statErr == nil {
			uploadedBytes += info.Size()
		}

		uploadErr := w.store.UploadFile(ctx, audioKey, path)
		if uploadErr != nil {
			return nil, fmt.Errorf("failed to upload audio data for key '%s': %w", audioKey, uploadErr)
		}

		audioKeys = append(audioKeys, audioKey)
	}

	w.log.Info("Workflow %s: uploaded %d file(s), %s", event.Header.WorkflowID, len(audioKeys),
		ttsutils.FormatFileSize(uploadedBytes))

	return audioKeys, nil
}

// publishReplyEvent marshals and responds with the GenerationCompletedEvent.
func (w *NatsWorker) publishReplyEvent(msg *nats.Msg, replyEvent *GenerationCompletedEvent) error {
	replyData, err := json.Marshal(replyEvent)
	if err != nil {
		return fmt.Errorf("failed to marshal reply event: %w", err)
	}

	err = msg.Respond(replyData)
	if err != nil {
		return fmt.Errorf("failed to publish reply event: %w", err)
	}

	return nil
}

// parseAndValidateEvent decodes the request and fills defaults.
func (w *NatsWorker) parseAndValidateEvent(msg *nats.Msg) (*GenerationRequestedEvent, error) {
	var event GenerationRequestedEvent

	err := json.Unmarshal(msg.Data, &event)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}

	if event.Text == "" && event.TextKey == "" {
		return nil, ErrTextEmpty
	}

	if event.Voice == "" {
		event.Voice = w.defaults.Voice
	}

	if event.Preset == "" {
		event.Preset = w.defaults.Preset
	}

	presetErr := config.ValidatePreset(event.Preset)
	if presetErr != nil {
		return nil, presetErr
	}

	if event.Candidates < 0 || event.Candidates > maxCandidates {
		return nil, fmt.Errorf("%w: got %d", ErrCandidatesRange, event.Candidates)
	}

	if event.Candidates == 0 {
		event.Candidates = w.defaults.Candidates
	}

	return &event, nil
}
