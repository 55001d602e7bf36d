package transcribe

import (
	"context"
	"encoding/binary"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Sebstrdigital/dua-talk/internal/config"
	"github.com/Sebstrdigital/dua-talk/internal/session"
)

func testClient(t *testing.T, url string) *Client {
	t.Helper()
	return New(config.WhisperConfig{
		URL:         url,
		Model:       "ggml-base.en",
		Sensitivity: "default",
		TimeoutMS:   2000,
	}, slog.New(slog.DiscardHandler))
}

func TestTranscribeSendsMultipartInference(t *testing.T) {
	var gotPath, gotLanguage, gotTemperature, gotModel string
	var gotWAV []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotLanguage = r.FormValue("language")
		gotTemperature = r.FormValue("temperature")
		gotModel = r.FormValue("model")

		file, _, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		gotWAV, err = io.ReadAll(file)
		require.NoError(t, err)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text": " hello there \n"}`))
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	result, err := client.Transcribe(context.Background(), []float32{0.1, -0.1, 0.5}, "en", "strict")
	require.NoError(t, err)
	require.Equal(t, "hello there", result.Text)
	require.False(t, result.NoSpeech)

	require.Equal(t, "/inference", gotPath)
	require.Equal(t, "en", gotLanguage)
	require.Equal(t, "0.0", gotTemperature)
	require.Equal(t, "ggml-base.en", gotModel)

	require.Equal(t, "RIFF", string(gotWAV[0:4]))
	require.Equal(t, "WAVE", string(gotWAV[8:12]))
	require.Equal(t, uint32(16000), binary.LittleEndian.Uint32(gotWAV[24:28]))
	require.Equal(t, uint32(6), binary.LittleEndian.Uint32(gotWAV[40:44]))
}

func TestTranscribeAnnotationOnlyIsNoSpeech(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"text": "[BLANK_AUDIO]"}`))
	}))
	defer server.Close()

	result, err := testClient(t, server.URL).Transcribe(context.Background(), []float32{0}, "en", "")
	require.NoError(t, err)
	require.True(t, result.NoSpeech)
}

func TestTranscribeServerErrorIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := testClient(t, server.URL).Transcribe(context.Background(), []float32{0}, "en", "")
	require.ErrorIs(t, err, session.ErrTranscriberUnavailable)
	require.Contains(t, err.Error(), "model not loaded")
}

func TestTranscribeConnectionFailureIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close()

	_, err := testClient(t, server.URL).Transcribe(context.Background(), []float32{0}, "en", "")
	require.ErrorIs(t, err, session.ErrTranscriberUnavailable)
}

func TestIsNoSpeech(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"", true},
		{"[BLANK_AUDIO]", true},
		{"(wind blowing)", true},
		{"[BLANK_AUDIO] (music)", true},
		{"hello", false},
		{"[noise] hello", false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, isNoSpeech(tc.text), "text %q", tc.text)
	}
}

func TestEncodePCM16WAVClampsRange(t *testing.T) {
	wav := encodePCM16WAV([]float32{1.5, -1.5, 0}, 16000)
	require.Len(t, wav, 44+6)

	high := int16(binary.LittleEndian.Uint16(wav[44:46]))
	low := int16(binary.LittleEndian.Uint16(wav[46:48]))
	zero := int16(binary.LittleEndian.Uint16(wav[48:50]))
	require.Equal(t, int16(32767), high)
	require.Equal(t, int16(-32768), low)
	require.Equal(t, int16(0), zero)
}
