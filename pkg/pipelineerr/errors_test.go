package pipelineerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Message(t *testing.T) {
	err := Connectivity("read state", "gs://state/state.json", errors.New("timeout"))
	want := "connectivity error: read state (gs://state/state.json): timeout"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	bare := Configuration("missing env", "", nil)
	if bare.Error() != "configuration error: missing env" {
		t.Errorf("unexpected message %q", bare.Error())
	}
}

func TestIsKind_WalksWrappedChain(t *testing.T) {
	inner := Validation("normalize activity", "activity 7", errors.New(`required field "distance" is missing`))
	outer := Connectivity("fetch activities", "strava", inner)
	wrapped := fmt.Errorf("extract: %w", outer)

	if !IsKind(wrapped, KindConnectivity) {
		t.Error("expected connectivity kind in chain")
	}
	if !IsKind(wrapped, KindValidation) {
		t.Error("expected validation kind in chain")
	}
	if IsKind(wrapped, KindConfiguration) {
		t.Error("did not expect configuration kind")
	}
	if KindOf(wrapped) != KindConnectivity {
		t.Errorf("KindOf = %v, want connectivity", KindOf(wrapped))
	}
}

func TestIsKind_PlainError(t *testing.T) {
	if IsKind(errors.New("boom"), KindConnectivity) {
		t.Error("plain error should not match any kind")
	}
	if KindOf(nil) != 0 {
		t.Error("KindOf(nil) should be 0")
	}
}

func TestUnwrap(t *testing.T) {
	sentinel := errors.New("sentinel")
	err := Connectivity("op", "", sentinel)
	if !errors.Is(err, sentinel) {
		t.Error("errors.Is should reach the wrapped error")
	}
}
