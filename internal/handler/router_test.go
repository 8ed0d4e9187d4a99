package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/suar-net/foodscan-be/internal/model"
	"github.com/suar-net/foodscan-be/internal/service"
)

type fakeTokens struct {
	err error
}

func (f fakeTokens) ValidateToken(ctx context.Context, tokenString string) (*model.Claims, error) {
	if f.err != nil {
		return nil, f.err
	}
	if tokenString != "good-token" {
		return nil, service.ErrTokenInvalid
	}
	claims := &model.Claims{}
	claims.Subject = "mobile-app"
	return claims, nil
}

func newTestRouter(analyzer *fakeAnalyzer, mutate func(*Dependencies)) http.Handler {
	deps := Dependencies{
		Config:   testConfig(),
		Analyzer: analyzer,
		Logger:   zap.NewNop(),
	}
	if mutate != nil {
		mutate(&deps)
	}
	return SetupRouter(deps)
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRouterOptionsEverywhere(t *testing.T) {
	router := newTestRouter(&fakeAnalyzer{}, nil)

	for _, path := range []string{"/api/analyze-food", "/api/health", "/api/test-openai", "/nowhere"} {
		t.Run(path, func(t *testing.T) {
			rr := serve(router, httptest.NewRequest(http.MethodOptions, path, nil))

			if rr.Code != http.StatusOK {
				t.Fatalf("status = %d", rr.Code)
			}
			if rr.Body.Len() != 0 {
				t.Errorf("body = %q, want empty", rr.Body.String())
			}
			for key, want := range corsContract {
				if got := rr.Header().Get(key); got != want {
					t.Errorf("%s = %q, want %q", key, got, want)
				}
			}
		})
	}
}

func TestRouterBrowserPreflight(t *testing.T) {
	router := newTestRouter(&fakeAnalyzer{}, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/analyze-food", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "content-type")
	rr := serve(router, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	for key, want := range corsContract {
		if got := rr.Header().Get(key); got != want {
			t.Errorf("%s = %q, want %q", key, got, want)
		}
	}
	if vary := rr.Header().Values("Vary"); len(vary) == 0 {
		t.Error("Vary missing from negotiated preflight")
	}
}

func TestRouterCORSOnErrors(t *testing.T) {
	router := newTestRouter(&fakeAnalyzer{}, nil)

	rr := serve(router, httptest.NewRequest(http.MethodGet, "/api/analyze-food", nil))

	assertFailure(t, rr, http.StatusMethodNotAllowed, msgMethodNotAllowed)
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin = %q on an error response", got)
	}
}

func TestRouterAnalyzeFood(t *testing.T) {
	router := newTestRouter(&fakeAnalyzer{result: appleResult()}, nil)

	body, contentType := multipartBody(t, map[string][]byte{"image": pngImage})
	req := httptest.NewRequest(http.MethodPost, "/api/analyze-food", body)
	req.Header.Set("Content-Type", contentType)
	rr := serve(router, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("CORS headers missing on success")
	}
}

func TestRouterHealth(t *testing.T) {
	testCases := []struct {
		name   string
		apiKey string
		want   string
	}{
		{"configured", "sk-test-1234567890", statusConfigured},
		{"missing", "", statusMissing},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			router := newTestRouter(&fakeAnalyzer{}, func(d *Dependencies) {
				d.Config.Model.APIKey = tc.apiKey
			})

			for _, path := range []string{"/health", "/api/health"} {
				rr := serve(router, httptest.NewRequest(http.MethodGet, path, nil))
				if rr.Code != http.StatusOK {
					t.Fatalf("%s status = %d", path, rr.Code)
				}
				body := decodeResponse(t, rr)
				if body["status"] != "healthy" || body["openai"] != tc.want || body["version"] != serviceVersion {
					t.Errorf("%s body = %v", path, body)
				}
				if _, ok := body["history"]; ok {
					t.Errorf("history status reported while disabled")
				}
			}
		})
	}
}

func TestRouterCORSProbe(t *testing.T) {
	router := newTestRouter(&fakeAnalyzer{}, nil)

	rr := serve(router, httptest.NewRequest(http.MethodGet, "/api/proxy", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if body := decodeResponse(t, rr); body["cors"] != "enabled" {
		t.Errorf("body = %v", body)
	}

	rr = serve(router, httptest.NewRequest(http.MethodPost, "/api/proxy", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST status = %d", rr.Code)
	}
	if body := decodeResponse(t, rr); body["error"] != "Method not allowed" {
		t.Errorf("body = %v", body)
	}
}

func TestRouterDebugFood(t *testing.T) {
	router := newTestRouter(&fakeAnalyzer{}, nil)

	rr := serve(router, httptest.NewRequest(http.MethodGet, "/api/debug-food", nil))
	body := decodeResponse(t, rr)
	if body["message"] != "This endpoint requires POST method" {
		t.Errorf("GET message = %v", body["message"])
	}
	debug := body["debug"].(map[string]interface{})
	if debug["hasApiKey"] != true || debug["keyPrefix"] != "sk-test..." || debug["hasBody"] != false {
		t.Errorf("debug = %v", debug)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/debug-food", strings.NewReader("payload"))
	req.Header.Set("Content-Type", "text/plain")
	body = decodeResponse(t, serve(router, req))
	if body["success"] != true || body["message"] != "Debug endpoint reached successfully" {
		t.Errorf("POST body = %v", body)
	}
	debug = body["debug"].(map[string]interface{})
	if debug["contentType"] != "text/plain" || debug["hasBody"] != true || debug["method"] != http.MethodPost {
		t.Errorf("POST debug = %v", debug)
	}
}

func TestRouterTestOpenAI(t *testing.T) {
	t.Run("missing key", func(t *testing.T) {
		router := newTestRouter(&fakeAnalyzer{}, func(d *Dependencies) { d.Config.Model.APIKey = "" })
		rr := serve(router, httptest.NewRequest(http.MethodGet, "/api/test-openai", nil))
		if rr.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d", rr.Code)
		}
		if body := decodeResponse(t, rr); body["error"] != "OpenAI API key not found in environment variables" {
			t.Errorf("body = %v", body)
		}
	})

	t.Run("success", func(t *testing.T) {
		router := newTestRouter(&fakeAnalyzer{answer: "API test successful"}, nil)
		rr := serve(router, httptest.NewRequest(http.MethodGet, "/api/test-openai", nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d", rr.Code)
		}
		body := decodeResponse(t, rr)
		if body["success"] != true || body["response"] != "API test successful" || body["keyPrefix"] != "sk-test..." {
			t.Errorf("body = %v", body)
		}
	})

	errorCases := map[string]struct {
		err  error
		want string
	}{
		"timeout":  {service.ErrRequestTimeout, "timeout"},
		"upstream": {fmt.Errorf("%w: invalid api key", service.ErrUpstream), "upstream_error"},
		"network":  {errors.New("dial tcp: connection refused"), "network_error"},
	}
	for name, tc := range errorCases {
		t.Run(name, func(t *testing.T) {
			router := newTestRouter(&fakeAnalyzer{connectErr: tc.err}, nil)
			rr := serve(router, httptest.NewRequest(http.MethodGet, "/api/test-openai", nil))
			if rr.Code != http.StatusInternalServerError {
				t.Fatalf("status = %d", rr.Code)
			}
			body := decodeResponse(t, rr)
			if body["success"] != false || body["errorType"] != tc.want || body["keyExists"] != true {
				t.Errorf("body = %v", body)
			}
		})
	}
}

func TestRouterAuthGuardsAnalysis(t *testing.T) {
	analyzer := &fakeAnalyzer{result: appleResult()}
	history := &fakeHistory{}
	router := newTestRouter(analyzer, func(d *Dependencies) {
		d.Tokens = fakeTokens{}
		d.History = history
	})

	post := func(token string) *httptest.ResponseRecorder {
		body, contentType := multipartBody(t, map[string][]byte{"image": pngImage})
		req := httptest.NewRequest(http.MethodPost, "/api/analyze-food", body)
		req.Header.Set("Content-Type", contentType)
		if token != "" {
			req.Header.Set("Authorization", token)
		}
		return serve(router, req)
	}

	assertFailure(t, post(""), http.StatusUnauthorized, "Authorization header is required")
	assertFailure(t, post("Token good-token"), http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
	assertFailure(t, post("Bearer bad-token"), http.StatusUnauthorized, "Invalid token")
	if analyzer.calls != 0 {
		t.Fatalf("analyzer called %d times before authentication", analyzer.calls)
	}

	if rr := post("Bearer good-token"); rr.Code != http.StatusOK {
		t.Fatalf("authenticated status = %d, body %s", rr.Code, rr.Body.String())
	}
	if len(history.records) != 1 || history.records[0].Subject != "mobile-app" {
		t.Errorf("history did not record the caller: %+v", history.records)
	}

	// method gate still answers first
	rr := serve(router, httptest.NewRequest(http.MethodGet, "/api/analyze-food", nil))
	assertFailure(t, rr, http.StatusMethodNotAllowed, msgMethodNotAllowed)

	// preflight never needs a token
	if rr := serve(router, httptest.NewRequest(http.MethodOptions, "/api/analyze-food", nil)); rr.Code != http.StatusOK {
		t.Errorf("OPTIONS status = %d", rr.Code)
	}
}

func TestRouterAuthExpiredToken(t *testing.T) {
	router := newTestRouter(&fakeAnalyzer{}, func(d *Dependencies) {
		d.Tokens = fakeTokens{err: service.ErrTokenExpired}
	})

	req := httptest.NewRequest(http.MethodPost, "/api/analyze-food", nil)
	req.Header.Set("Authorization", "Bearer whatever")
	assertFailure(t, serve(router, req), http.StatusUnauthorized, "Token has expired")
}

func TestRouterHistory(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		router := newTestRouter(&fakeAnalyzer{}, nil)
		rr := serve(router, httptest.NewRequest(http.MethodGet, "/api/analyses", nil))
		if rr.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rr.Code)
		}
	})

	history := &fakeHistory{}
	for i := 0; i < 3; i++ {
		history.records = append(history.records, &model.AnalysisRecord{Name: fmt.Sprintf("meal %d", i)})
	}
	router := newTestRouter(&fakeAnalyzer{}, func(d *Dependencies) { d.History = history })

	t.Run("default limit", func(t *testing.T) {
		rr := serve(router, httptest.NewRequest(http.MethodGet, "/api/analyses", nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d", rr.Code)
		}
		if history.lastLimit != defaultHistoryLimit {
			t.Errorf("limit = %d", history.lastLimit)
		}
		data := decodeResponse(t, rr)["data"].([]interface{})
		if len(data) != 3 {
			t.Errorf("got %d records", len(data))
		}
	})

	t.Run("explicit limit", func(t *testing.T) {
		rr := serve(router, httptest.NewRequest(http.MethodGet, "/api/analyses?limit=2", nil))
		data := decodeResponse(t, rr)["data"].([]interface{})
		if len(data) != 2 {
			t.Errorf("got %d records", len(data))
		}
	})

	for _, raw := range []string{"0", "101", "ten"} {
		t.Run("invalid limit "+raw, func(t *testing.T) {
			rr := serve(router, httptest.NewRequest(http.MethodGet, "/api/analyses?limit="+raw, nil))
			if rr.Code != http.StatusBadRequest {
				t.Errorf("status = %d", rr.Code)
			}
		})
	}

	t.Run("store failure", func(t *testing.T) {
		failing := newTestRouter(&fakeAnalyzer{}, func(d *Dependencies) {
			d.History = &fakeHistory{listErr: errors.New("db gone")}
		})
		rr := serve(failing, httptest.NewRequest(http.MethodGet, "/api/analyses", nil))
		assertFailure(t, rr, http.StatusInternalServerError, "Failed to load analysis history")
	})
}
