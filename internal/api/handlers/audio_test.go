package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/voiceui/internal/stt"
)

type fakeSTT struct {
	text string
	err  error

	gotPath    string
	gotPayload string
}

func (f *fakeSTT) Name() string { return "fake" }

func (f *fakeSTT) Transcribe(_ context.Context, req stt.TranscriptionRequest) (*stt.TranscriptionResponse, error) {
	f.gotPath = req.FilePath
	data, err := os.ReadFile(req.FilePath)
	if err != nil {
		return nil, err
	}
	f.gotPayload = string(data)
	if f.err != nil {
		return nil, f.err
	}
	return &stt.TranscriptionResponse{Text: f.text}, nil
}

func multipartBody(t *testing.T, field, filename string, payload []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("note", "ignored"))
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(payload)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func postAudio(t *testing.T, h *AudioHandler, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/process-audio/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.Process(rec, req)
	return rec
}

func assertDirEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "temp upload left behind")
}

func TestAudioHandler_Success(t *testing.T) {
	dir := t.TempDir()
	provider := &fakeSTT{text: " Make the header green."}
	h := NewAudioHandler(provider, dir, 1<<20, "")

	body, ct := multipartBody(t, "file", "speech.webm", []byte("webm-bytes"))
	rec := postAudio(t, h, body, ct)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, map[string]any{
		"message":       "Audio processed",
		"transcription": " Make the header green.",
	}, resp)

	assert.Equal(t, "webm-bytes", provider.gotPayload)
	assert.Equal(t, ".webm", filepath.Ext(provider.gotPath))
	assertDirEmpty(t, dir)
}

func TestAudioHandler_DelegateFailureStillRemovesFile(t *testing.T) {
	dir := t.TempDir()
	h := NewAudioHandler(&fakeSTT{err: errors.New("model crashed")}, dir, 1<<20, "")

	body, ct := multipartBody(t, "file", "speech.mp3", []byte("x"))
	rec := postAudio(t, h, body, ct)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "model crashed")
	assertDirEmpty(t, dir)
}

func TestAudioHandler_MissingFile(t *testing.T) {
	h := NewAudioHandler(&fakeSTT{}, t.TempDir(), 1<<20, "")

	body, ct := multipartBody(t, "audio", "speech.mp3", []byte("x"))
	rec := postAudio(t, h, body, ct)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t, `{"error":"file required"}`, rec.Body.String())

	rec = postAudio(t, h, bytes.NewBufferString(`{"file":"x"}`), "application/json")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestAudioHandler_TooLarge(t *testing.T) {
	dir := t.TempDir()
	provider := &fakeSTT{}
	h := NewAudioHandler(provider, dir, 1024, "")

	body, ct := multipartBody(t, "file", "speech.mp3", bytes.Repeat([]byte("a"), 4096))
	rec := postAudio(t, h, body, ct)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Empty(t, provider.gotPath, "delegate not called")
	assertDirEmpty(t, dir)
}
