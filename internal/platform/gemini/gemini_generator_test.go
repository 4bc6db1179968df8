package gemini

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/altscribe/altscribe-api/internal/generation"
	"github.com/altscribe/altscribe-api/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type fakeModels struct {
	resp     *genai.GenerateContentResponse
	err      error
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

func (f *fakeModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content,
	config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.contents = contents
	f.config = config
	return f.resp, f.err
}

func textResponse(text string, reason genai.FinishReason) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			FinishReason: reason,
			Content:      &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

func imageServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("\x89PNG\r\n\x1a\nfake"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGenerateAltText(t *testing.T) {
	srv := imageServer(t)
	log, _ := logger.NewTestLogger()
	fake := &fakeModels{resp: textResponse("  Modern kitchen with quartz counters ", genai.FinishReasonStop)}
	g := newGenerator(log, Config{Model: "gemini-test"}, fake)

	text, err := g.GenerateAltText(context.Background(), generation.Request{
		ImageURL:    srv.URL + "/kitchen.png",
		ProjectName: "Kitchen",
		FieldName:   "1-after",
	})

	require.NoError(t, err)
	assert.Equal(t, "Modern kitchen with quartz counters", text)
	assert.Equal(t, "gemini-test", fake.model)
	assert.Equal(t, "gemini-test", g.Model())
	require.Len(t, fake.contents, 1)
	require.Len(t, fake.contents[0].Parts, 2)
	assert.Contains(t, fake.contents[0].Parts[0].Text, "Project: Kitchen")
	assert.Equal(t, "image/png", fake.contents[0].Parts[1].InlineData.MIMEType)
	require.NotNil(t, fake.config.Temperature)
	assert.InDelta(t, DefaultTemperature, *fake.config.Temperature, 0.001)
}

func TestGenerateAltTextErrors(t *testing.T) {
	srv := imageServer(t)

	tests := []struct {
		name    string
		url     string
		fake    *fakeModels
		wantErr error
	}{
		{name: "empty url", url: "", fake: &fakeModels{}, wantErr: generation.ErrEmptyImageURL},
		{name: "image missing", url: srv.URL + "/missing.png", fake: &fakeModels{}, wantErr: ErrImageFetch},
		{name: "api error", url: srv.URL + "/a.png", fake: &fakeModels{err: errors.New("quota")}, wantErr: generation.ErrGenerationFailed},
		{name: "no candidates", url: srv.URL + "/a.png", fake: &fakeModels{resp: &genai.GenerateContentResponse{}}, wantErr: generation.ErrInvalidResponse},
		{name: "safety", url: srv.URL + "/a.png", fake: &fakeModels{resp: textResponse("", genai.FinishReasonSafety)}, wantErr: generation.ErrContentBlocked},
		{name: "empty text", url: srv.URL + "/a.png", fake: &fakeModels{resp: textResponse("  ", genai.FinishReasonStop)}, wantErr: generation.ErrInvalidResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGenerator(logger.Discard(), Config{}, tt.fake)
			_, err := g.GenerateAltText(context.Background(), generation.Request{ImageURL: tt.url})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewGeminiGeneratorValidation(t *testing.T) {
	_, err := NewGeminiGenerator(context.Background(), nil, Config{APIKey: "k"})
	assert.Error(t, err)

	_, err = NewGeminiGenerator(context.Background(), logger.Discard(), Config{})
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)
}
