package internal

import (
	"errors"
	"testing"
)

func TestUIDRoundTrip(t *testing.T) {
	ids := []string{
		"6f1c1d8e-3b7a-4d7e-9a43-2b1a3c0e7f11",
		"42",
		"user with spaces",
	}
	for _, id := range ids {
		got, err := DecodeUID(EncodeUID(id))
		if err != nil {
			t.Fatalf("DecodeUID(%q): %v", id, err)
		}
		if got != id {
			t.Fatalf("round trip: got %q want %q", got, id)
		}
	}
}

func TestDecodeUIDAcceptsPadding(t *testing.T) {
	got, err := DecodeUID("NDI=")
	if err != nil {
		t.Fatalf("DecodeUID: %v", err)
	}
	if got != "42" {
		t.Fatalf("got %q", got)
	}
}

func TestDecodeUIDRejectsGarbage(t *testing.T) {
	for _, uid := range []string{"", "!!!", "%%%%", "/w"} {
		if _, err := DecodeUID(uid); !errors.Is(err, ErrInvalidUID) {
			t.Fatalf("DecodeUID(%q) err=%v want ErrInvalidUID", uid, err)
		}
	}
}
