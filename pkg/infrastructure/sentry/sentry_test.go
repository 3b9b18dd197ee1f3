package sentry

import (
	"testing"

	"github.com/getsentry/sentry-go"
)

func TestInit_NoDSN(t *testing.T) {
	if err := Init(Config{}, nil); err != nil {
		t.Fatalf("Init without DSN should be a no-op, got %v", err)
	}
}

func TestScrub(t *testing.T) {
	ev := &sentry.Event{Request: &sentry.Request{
		Headers:     map[string]string{"Authorization": "Bearer x", "Cookie": "c", "Accept": "*/*"},
		QueryString: "hub.verify_token=secret",
	}}

	out := scrub(ev, nil)
	if _, ok := out.Request.Headers["Authorization"]; ok {
		t.Error("Authorization header not removed")
	}
	if _, ok := out.Request.Headers["Cookie"]; ok {
		t.Error("Cookie header not removed")
	}
	if out.Request.Headers["Accept"] != "*/*" {
		t.Error("unrelated header removed")
	}
	if out.Request.QueryString != "[filtered]" {
		t.Errorf("query string not filtered: %q", out.Request.QueryString)
	}
}
