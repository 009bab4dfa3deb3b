package pipeline

import "testing"

func TestScanFramesSplitsCompleteFrames(t *testing.T) {
	buf := []byte{0x80, 1, 2, 0x81, 0x80, 3, 0x81}
	frames, consumed := scanFrames(buf)
	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}
	if consumed != len(buf) {
		t.Fatalf("consumed %d, want %d", consumed, len(buf))
	}
	if len(frames[0]) != 4 || len(frames[1]) != 3 {
		t.Fatalf("unexpected frame lengths: %v", frames)
	}
}

func TestScanFramesPreservesTrailingPartial(t *testing.T) {
	buf := []byte{0x80, 1, 0x81, 0x80, 2, 3}
	frames, consumed := scanFrames(buf)
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	if consumed != 3 {
		t.Fatalf("consumed %d, want 3", consumed)
	}
}

func TestScanFramesNoStartByteDiscardsEntireBuffer(t *testing.T) {
	buf := []byte{1, 2, 3}
	frames, consumed := scanFrames(buf)
	if len(frames) != 0 || consumed != len(buf) {
		t.Fatalf("expected no frames and the whole buffer discarded, got %d frames, %d consumed", len(frames), consumed)
	}
}

func TestScanFramesDiscardsGarbageAfterLastCompleteFrame(t *testing.T) {
	buf := []byte{0x80, 1, 0x81, 9, 9, 9}
	frames, consumed := scanFrames(buf)
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	if consumed != len(buf) {
		t.Fatalf("consumed %d, want %d (trailing non-framed bytes should be discarded)", consumed, len(buf))
	}
}
