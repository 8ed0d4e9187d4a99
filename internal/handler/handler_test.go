package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/suar-net/foodscan-be/internal/config"
	"github.com/suar-net/foodscan-be/internal/model"
	"github.com/suar-net/foodscan-be/internal/service"
)

var pngImage = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n', 0, 0, 0, 0x0D, 'I', 'H', 'D', 'R'}

type fakeAnalyzer struct {
	result     model.AnalysisResult
	err        error
	panicWith  interface{}
	answer     string
	connectErr error

	calls   int
	lastReq service.AnalysisRequest
}

func (f *fakeAnalyzer) AnalyzeImage(ctx context.Context, req service.AnalysisRequest) (model.AnalysisResult, error) {
	f.calls++
	f.lastReq = req
	if f.panicWith != nil {
		panic(f.panicWith)
	}
	return f.result, f.err
}

func (f *fakeAnalyzer) TestConnection(ctx context.Context) (string, error) {
	return f.answer, f.connectErr
}

type fakeHistory struct {
	records   []*model.AnalysisRecord
	createErr error
	listErr   error
	lastLimit int
}

func (f *fakeHistory) Create(ctx context.Context, record *model.AnalysisRecord) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.records = append(f.records, record)
	return nil
}

func (f *fakeHistory) ListRecent(ctx context.Context, limit int) ([]*model.AnalysisRecord, error) {
	f.lastLimit = limit
	if f.listErr != nil {
		return nil, f.listErr
	}
	if len(f.records) > limit {
		return f.records[:limit], nil
	}
	return f.records, nil
}

func appleResult() model.AnalysisResult {
	return model.AnalysisResult{
		Source: model.SourceParsed,
		Analysis: model.FoodAnalysis{
			Name:           "Apple",
			Description:    "A fresh red apple",
			Calories:       &model.Calories{Min: 80, Max: 100},
			NutritionScore: 9,
			Confidence:     95,
			Insights:       []string{"High in fiber"},
		},
	}
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: "8080", MaxUploadBytes: 1 << 20},
		Model: config.ModelConfig{
			APIKey:      "sk-test-1234567890",
			Model:       "gpt-4o",
			TestModel:   "gpt-3.5-turbo",
			Timeout:     time.Second,
			MaxTokens:   500,
			Temperature: 0.1,
		},
	}
}

// multipartBody encodes fields in order; the "image" field is sent as a file.
func multipartBody(t *testing.T, fields map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, value := range fields {
		var (
			part io.Writer
			err  error
		)
		if name == "image" {
			part, err = mw.CreateFormFile(name, "meal.png")
		} else {
			part, err = mw.CreateFormField(name)
		}
		if err != nil {
			t.Fatalf("failed to create part: %v", err)
		}
		if _, err := part.Write(value); err != nil {
			t.Fatalf("failed to write part: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v\n%s", err, rr.Body.String())
	}
	return body
}

func assertFailure(t *testing.T, rr *httptest.ResponseRecorder, wantCode int, wantMessage string) map[string]interface{} {
	t.Helper()
	if rr.Code != wantCode {
		t.Fatalf("status = %d, want %d, body %s", rr.Code, wantCode, rr.Body.String())
	}
	body := decodeResponse(t, rr)
	if body["success"] != false {
		t.Errorf("success = %v, want false", body["success"])
	}
	if body["error"] != wantMessage {
		t.Errorf("error = %q, want %q", body["error"], wantMessage)
	}
	return body
}
