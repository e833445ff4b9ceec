package stt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
)

// GoogleSTTConfig holds configuration for the Google Cloud Speech backend.
type GoogleSTTConfig struct {
	LanguageCode string // default: "en-US"
}

// GoogleSTT transcribes audio with the synchronous Recognize RPC. Clips longer
// than about one minute are rejected by the API.
type GoogleSTT struct {
	cfg    GoogleSTTConfig
	client *speech.Client
}

// NewGoogleSTT creates the speech client using Application Default Credentials.
func NewGoogleSTT(ctx context.Context, cfg GoogleSTTConfig) (*GoogleSTT, error) {
	if cfg.LanguageCode == "" {
		cfg.LanguageCode = "en-US"
	}
	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create speech client: %w", err)
	}
	return &GoogleSTT{cfg: cfg, client: client}, nil
}

func (g *GoogleSTT) Name() string { return "google-speech" }

func (g *GoogleSTT) Close() error {
	return g.client.Close()
}

func (g *GoogleSTT) Transcribe(ctx context.Context, req TranscriptionRequest) (*TranscriptionResponse, error) {
	data, err := os.ReadFile(req.FilePath)
	if err != nil {
		return nil, fmt.Errorf("read audio file: %w", err)
	}

	lang := req.Language
	if lang == "" {
		lang = g.cfg.LanguageCode
	}

	resp, err := g.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   encodingFor(req.FilePath),
			LanguageCode:               lang,
			EnableAutomaticPunctuation: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: data},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("speech recognize: %w", err)
	}

	return &TranscriptionResponse{
		Text:     joinTranscripts(resp.GetResults()),
		Language: lang,
	}, nil
}

func joinTranscripts(results []*speechpb.SpeechRecognitionResult) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		if alts := r.GetAlternatives(); len(alts) > 0 {
			if t := strings.TrimSpace(alts[0].GetTranscript()); t != "" {
				parts = append(parts, t)
			}
		}
	}
	return strings.Join(parts, " ")
}

// encodingFor picks the encoding from the file extension. WAV and FLAC carry
// their own headers; unknown types are left for the API to detect.
func encodingFor(path string) speechpb.RecognitionConfig_AudioEncoding {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".flac":
		return speechpb.RecognitionConfig_FLAC
	case ".wav":
		return speechpb.RecognitionConfig_LINEAR16
	case ".ogg", ".opus":
		return speechpb.RecognitionConfig_OGG_OPUS
	case ".webm":
		return speechpb.RecognitionConfig_WEBM_OPUS
	case ".mp3":
		return speechpb.RecognitionConfig_MP3
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED
	}
}
