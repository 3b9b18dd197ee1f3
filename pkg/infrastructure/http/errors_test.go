package httputil

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseErrorResponse_Success(t *testing.T) {
	resp := &http.Response{
		StatusCode: 200,
		Body:       http.NoBody,
	}

	if err := ParseErrorResponse(resp); err != nil {
		t.Errorf("Expected nil error for 200 response, got: %v", err)
	}
}

func TestParseErrorResponse_Error(t *testing.T) {
	body := `{"message":"Authorization Error","errors":[{"resource":"Athlete","field":"access_token","code":"invalid"}]}`
	resp := &http.Response{
		StatusCode: 401,
		Header:     http.Header{"X-Ratelimit-Usage": []string{"12,340"}},
		Body:       io.NopCloser(strings.NewReader(body)),
		Request:    httptest.NewRequest("GET", "https://www.strava.com/api/v3/athlete/activities?after=1", nil),
	}

	err := ParseErrorResponse(resp)
	if err == nil {
		t.Fatal("Expected error for 401 response")
	}

	httpErr, ok := err.(*HTTPError)
	if !ok {
		t.Fatalf("Expected *HTTPError, got %T", err)
	}
	if httpErr.StatusCode != 401 {
		t.Errorf("Expected status 401, got %d", httpErr.StatusCode)
	}
	if !strings.Contains(httpErr.Error(), "Authorization Error") {
		t.Errorf("Expected Error() to contain body, got: %s", httpErr.Error())
	}
	if httpErr.RateLimitUsage != "12,340" {
		t.Errorf("Expected rate limit usage, got %q", httpErr.RateLimitUsage)
	}
	if httpErr.Retryable() {
		t.Error("401 should not be retryable")
	}
}

func TestParseErrorResponse_BodyRewrap(t *testing.T) {
	body := `{"error": "test"}`
	resp := &http.Response{
		StatusCode: 500,
		Body:       io.NopCloser(strings.NewReader(body)),
		Request:    httptest.NewRequest("GET", "https://api.example.com/test", nil),
	}

	_ = ParseErrorResponse(resp)

	rewrapped, _ := io.ReadAll(resp.Body)
	if string(rewrapped) != body {
		t.Errorf("Body not properly re-wrapped, got: %s", string(rewrapped))
	}
}

func TestParseErrorResponse_Truncates(t *testing.T) {
	resp := &http.Response{
		StatusCode: 502,
		Body:       io.NopCloser(strings.NewReader(strings.Repeat("x", MaxErrorBodySize*2))),
	}

	httpErr := ParseErrorResponse(resp).(*HTTPError)
	if len(httpErr.Body) != MaxErrorBodySize+3 {
		t.Errorf("Expected truncated body, got %d bytes", len(httpErr.Body))
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{&HTTPError{StatusCode: 429}, true},
		{fmt.Errorf("fetch: %w", &HTTPError{StatusCode: 503}), true},
		{&HTTPError{StatusCode: 404}, false},
		{fmt.Errorf("plain"), false},
	}
	for _, tt := range tests {
		if got := IsRetryable(tt.err); got != tt.want {
			t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
