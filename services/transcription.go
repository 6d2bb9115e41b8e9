package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"gorm.io/gorm"
)

// ErrEmptyRecording is returned when the provider hands back a zero-byte recording
var ErrEmptyRecording = errors.New("downloaded recording is empty")

// TranscribeCall returns the transcript of a call, transcribing its recording on first use.
// A stored transcription is returned as is. Otherwise the provider detail is fetched,
// the recording is downloaded to a temp file, archived, and sent to the transcriber.
func TranscribeCall(ctx context.Context, db *gorm.DB, telephony TelephonyProvider, transcriber Transcriber, archive StorageProvider, callSid string) (string, error) {
	stored, err := GetCallBySid(db, callSid)
	if err != nil && !errors.Is(err, ErrCallNotFound) {
		return "", err
	}
	if stored != nil && stored.Transcription != "" {
		return stored.Transcription, nil
	}

	detail, err := telephony.GetCallDetail(ctx, callSid)
	if errors.Is(err, ErrCallNotFound) {
		return "", ErrRecordingNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to fetch call %s: %w", callSid, err)
	}
	if !detail.HasRecording() {
		return "", ErrRecordingNotFound
	}

	audioPath, err := downloadRecording(ctx, telephony, detail.Recordings.FirstURL())
	if err != nil {
		return "", err
	}
	defer func() { _ = os.Remove(audioPath) }()

	archiveRecording(ctx, archive, callSid, audioPath)

	text, err := transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		return "", err
	}

	if err := SaveTranscription(db, callSid, text); err != nil {
		return "", fmt.Errorf("failed to save transcription: %w", err)
	}
	log.Printf("[TRANSCRIBE] Stored transcription for %s (%d chars)", callSid, len(text))
	return text, nil
}

func downloadRecording(ctx context.Context, telephony TelephonyProvider, recordingURL string) (string, error) {
	body, _, err := telephony.FetchRecording(ctx, recordingURL)
	if err != nil {
		return "", fmt.Errorf("failed to download recording: %w", err)
	}
	defer body.Close()

	// Whisper infers the format from the extension
	file, err := os.CreateTemp("", "recording-*.mp3")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	audioPath := file.Name()

	written, err := io.Copy(file, body)
	closeErr := file.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && written == 0 {
		err = ErrEmptyRecording
	}
	if err != nil {
		_ = os.Remove(audioPath)
		return "", err
	}
	return audioPath, nil
}

// archiveRecording copies a downloaded recording into the archive once; failures are only logged
func archiveRecording(ctx context.Context, archive StorageProvider, callSid, audioPath string) {
	if archive == nil {
		return
	}
	if exists, err := archive.Exists(ctx, RecordingKey(callSid)); err == nil && exists {
		return
	}
	file, err := os.Open(audioPath)
	if err != nil {
		log.Printf("[WARNING] Could not archive recording for %s: %v", callSid, err)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		log.Printf("[WARNING] Could not archive recording for %s: %v", callSid, err)
		return
	}
	if _, err := archive.Put(ctx, RecordingKey(callSid), file, "audio/mpeg", info.Size()); err != nil {
		log.Printf("[WARNING] Could not archive recording for %s: %v", callSid, err)
	}
}

// OpenRecording returns the audio for a call, preferring the archived copy over the provider.
// The caller closes the reader.
func OpenRecording(ctx context.Context, db *gorm.DB, telephony TelephonyProvider, archive StorageProvider, callSid string) (io.ReadCloser, string, error) {
	if archive != nil {
		reader, contentType, err := archive.Get(ctx, RecordingKey(callSid))
		if err == nil {
			return reader, contentType, nil
		}
		if !errors.Is(err, ErrObjectNotFound) {
			log.Printf("[WARNING] Archive lookup failed for %s: %v", callSid, err)
		}
	}

	var recordingURL string
	call, err := GetCallBySid(db, callSid)
	switch {
	case err == nil && call.HasRecording():
		recordingURL = call.Recordings.FirstURL()
	case err != nil && !errors.Is(err, ErrCallNotFound):
		return nil, "", err
	}

	// Not synced yet, ask the provider
	if recordingURL == "" {
		detail, err := telephony.GetCallDetail(ctx, callSid)
		if errors.Is(err, ErrCallNotFound) {
			return nil, "", ErrRecordingNotFound
		}
		if err != nil {
			return nil, "", fmt.Errorf("failed to fetch call %s: %w", callSid, err)
		}
		recordingURL = detail.Recordings.FirstURL()
	}
	if recordingURL == "" {
		return nil, "", ErrRecordingNotFound
	}
	return telephony.FetchRecording(ctx, recordingURL)
}
