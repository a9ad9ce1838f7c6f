package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// SpeechClient talks to the external speech-recognition service over HTTP.
// The service exposes batch transcription with word-level timings, so the
// client implements the streaming Recognizer interface by accumulating the
// PCM stream and submitting it once at FinalResult time.
type SpeechClient struct {
	httpClient *http.Client
	baseURL    string
}

type speechResponse struct {
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result"`
	Error   string          `json:"error,omitempty"`
}

func NewSpeechClient(baseURL string, timeoutSeconds int) *SpeechClient {
	if baseURL == "" {
		baseURL = "http://localhost:8002"
	}
	if timeoutSeconds <= 0 {
		timeoutSeconds = 300
	}
	return &SpeechClient{
		httpClient: &http.Client{Timeout: time.Duration(timeoutSeconds) * time.Second},
		baseURL:    baseURL,
	}
}

// RecognizerFactory adapts the client to the pipeline's factory signature.
func (c *SpeechClient) RecognizerFactory() RecognizerFactory {
	return func(sampleRate float64) (Recognizer, error) {
		return &httpRecognizer{client: c, sampleRate: sampleRate}, nil
	}
}

// httpRecognizer buffers one audio stream and transcribes it in a single
// request when the stream ends.
type httpRecognizer struct {
	client     *SpeechClient
	sampleRate float64
	pcm        bytes.Buffer
}

func (r *httpRecognizer) AcceptWaveform(buf []byte) ([]byte, bool) {
	r.pcm.Write(buf)
	return nil, false
}

func (r *httpRecognizer) FinalResult() []byte {
	result, err := r.client.transcribe(r.pcm.Bytes(), r.sampleRate)
	if err != nil {
		// Per-stream recognition loss; the caller treats an empty
		// result as a video without usable audio.
		return []byte("{}")
	}
	return result
}

func (r *httpRecognizer) Close() error {
	r.pcm.Reset()
	return nil
}

func (c *SpeechClient) transcribe(pcm []byte, sampleRate float64) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writer.WriteField("sample_rate", fmt.Sprintf("%.0f", sampleRate)); err != nil {
		return nil, fmt.Errorf("failed to write form field: %w", err)
	}
	fileWriter, err := writer.CreateFormFile("file", "audio.pcm")
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(fileWriter, bytes.NewReader(pcm)); err != nil {
		return nil, fmt.Errorf("failed to copy audio data: %w", err)
	}
	writer.Close()

	httpReq, err := http.NewRequest("POST", c.baseURL+"/speech/transcribe", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create transcription request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("transcription request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("transcription failed with status %d: %s", resp.StatusCode, string(body))
	}

	var speechResp speechResponse
	if err := json.NewDecoder(resp.Body).Decode(&speechResp); err != nil {
		return nil, fmt.Errorf("failed to decode transcription response: %w", err)
	}
	if !speechResp.Success {
		return nil, fmt.Errorf("transcription failed: %s", speechResp.Error)
	}

	return speechResp.Result, nil
}
