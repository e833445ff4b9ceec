package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/nikhilbhutani/voiceui/internal/audio"
	"github.com/nikhilbhutani/voiceui/internal/stt"
)

const audioFormField = "file"

type AudioHandler struct {
	stt      stt.Provider
	tempDir  string
	maxBytes int64
	language string
}

func NewAudioHandler(provider stt.Provider, tempDir string, maxBytes int64, language string) *AudioHandler {
	return &AudioHandler{stt: provider, tempDir: tempDir, maxBytes: maxBytes, language: language}
}

type audioResponse struct {
	Message       string `json:"message"`
	Transcription string `json:"transcription"`
}

// Process streams the "file" part of a multipart upload to a temp file,
// transcribes it and removes the file before returning.
func (h *AudioHandler) Process(w http.ResponseWriter, r *http.Request) {
	if h.maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	}

	upload, status, err := h.receive(r)
	if err != nil {
		writeError(w, status, err.Error())
		return
	}
	defer func() {
		if err := upload.Remove(); err != nil {
			slog.Error("failed to remove upload", "upload_id", upload.ID, "error", err)
		}
	}()

	log := slog.With("upload_id", upload.ID, "request_id", middleware.GetReqID(r.Context()))
	log.Info("audio received", "bytes", upload.Size, "provider", h.stt.Name())

	result, err := h.stt.Transcribe(r.Context(), stt.TranscriptionRequest{
		FilePath: upload.Path,
		Language: h.language,
	})
	if err != nil {
		log.Error("transcription failed", "error", err)
		writeError(w, http.StatusInternalServerError, "transcription failed: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, audioResponse{
		Message:       "Audio processed",
		Transcription: result.Text,
	})
}

var errFileRequired = errors.New("file required")

func (h *AudioHandler) receive(r *http.Request) (*audio.Upload, int, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, http.StatusUnprocessableEntity, errFileRequired
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, http.StatusUnprocessableEntity, errFileRequired
		}
		if err != nil {
			return nil, readStatus(err), errors.New("invalid multipart body")
		}
		if part.FormName() != audioFormField || part.FileName() == "" {
			part.Close()
			continue
		}

		upload, err := audio.Save(h.tempDir, part, part.FileName())
		part.Close()
		if err != nil {
			status := readStatus(err)
			if status == http.StatusRequestEntityTooLarge {
				return nil, status, errors.New("file too large")
			}
			slog.Error("failed to store upload", "error", err)
			return nil, status, errors.New("could not store upload")
		}
		return upload, 0, nil
	}
}

func readStatus(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}
