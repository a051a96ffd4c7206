package tools

import (
	"context"
	"testing"
)

func TestCancelRegistryReleaseKeepsNewerCall(t *testing.T) {
	registry := NewCancelRegistry()

	_, releaseFirst := registry.Track(context.Background(), "n:1")
	secondCtx, releaseSecond := registry.Track(context.Background(), "n:1")
	defer releaseSecond()

	releaseFirst()
	if registry.Len() != 1 {
		t.Fatalf("first release removed the second call's entry, len=%d", registry.Len())
	}
	if !registry.Cancel("n:1") {
		t.Fatal("second call should still be cancellable")
	}
	select {
	case <-secondCtx.Done():
	default:
		t.Error("Cancel did not reach the second call")
	}
}

func TestCancelRegistryUnkeyedCallsAreNotTracked(t *testing.T) {
	registry := NewCancelRegistry()

	ctx, release := registry.Track(context.Background(), "")
	if registry.Len() != 0 {
		t.Errorf("unkeyed call was tracked, len=%d", registry.Len())
	}
	release()
	if ctx.Err() == nil {
		t.Error("release should cancel the call context")
	}
}
