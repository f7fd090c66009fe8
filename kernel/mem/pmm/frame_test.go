package pmm

import (
	"testing"

	"github.com/aeleos/BoringOS/kernel/addr"
)

func TestFrameRoundtrip(t *testing.T) {
	for frameIndex := uint64(0); frameIndex < 128; frameIndex++ {
		frame := Frame(frameIndex)

		if !frame.IsValid() {
			t.Errorf("expected frame %d to be valid", frameIndex)
		}

		got := FrameFromAddress(frame.Address())
		if got != frame {
			t.Errorf("expected FrameFromAddress(frame.Address()) to round-trip to %d; got %d", frameIndex, got)
		}
	}

	if InvalidFrame.IsValid() {
		t.Error("expected InvalidFrame.IsValid() to return false")
	}
}

func TestFrameFromUnalignedAddress(t *testing.T) {
	got := FrameFromAddress(addr.PhysicalAddress(0x1800))
	if want := Frame(1); got != want {
		t.Errorf("expected unaligned address to round down to frame %d; got %d", want, got)
	}
}
