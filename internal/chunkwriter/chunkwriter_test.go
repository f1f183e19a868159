package chunkwriter

import (
	"bytes"
	"testing"
)

func TestWriteAlignedBypassWithTail(t *testing.T) {
	var chunks [][]byte
	w := New(10, 25, func(c []byte) error {
		cp := append([]byte(nil), c...)
		chunks = append(chunks, cp)
		return nil
	})
	if err := w.Init(25); err != nil {
		t.Fatal(err)
	}

	data := bytes.Repeat([]byte{1}, 25)
	n, err := w.Write(data)
	if err != nil {
		t.Fatal(err)
	}
	if n != 25 {
		t.Fatalf("wrote %d, want 25", n)
	}

	wantSizes := []int{10, 10, 5}
	if len(chunks) != len(wantSizes) {
		t.Fatalf("got %d chunks, want %d", len(chunks), len(wantSizes))
	}
	for i, c := range chunks {
		if len(c) != wantSizes[i] {
			t.Errorf("chunk %d: got %d bytes, want %d", i, len(c), wantSizes[i])
		}
	}
	if w.Finish() != 25 {
		t.Errorf("Finish() = %d, want 25", w.Finish())
	}
}

func TestWriteByteAtATime(t *testing.T) {
	var chunks [][]byte
	w := New(4, 10, func(c []byte) error {
		chunks = append(chunks, append([]byte(nil), c...))
		return nil
	})
	if err := w.Init(10); err != nil {
		t.Fatal(err)
	}

	data := []byte("abcdefghij")
	for _, b := range data {
		if _, err := w.Write([]byte{b}); err != nil {
			t.Fatal(err)
		}
	}

	want := [][]byte{[]byte("abcd"), []byte("efgh"), []byte("ij")}
	if len(chunks) != len(want) {
		t.Fatalf("got %d chunks, want %d", len(chunks), len(want))
	}
	for i := range want {
		if !bytes.Equal(chunks[i], want[i]) {
			t.Errorf("chunk %d = %q, want %q", i, chunks[i], want[i])
		}
	}
}

func TestInitSizeMismatch(t *testing.T) {
	w := New(10, 25, func([]byte) error { return nil })
	err := w.Init(20)
	if err == nil {
		t.Fatal("expected error")
	}
	var mismatch *SizeMismatchError
	if _, ok := err.(*SizeMismatchError); !ok {
		t.Fatalf("got %T, want %T", err, mismatch)
	}
}

func TestWriteOverflow(t *testing.T) {
	w := New(10, 5, func([]byte) error { return nil })
	if err := w.Init(5); err != nil {
		t.Fatal(err)
	}
	_, err := w.Write(make([]byte, 6))
	if _, ok := err.(*StreamOverflowError); !ok {
		t.Fatalf("got %v (%T), want *StreamOverflowError", err, err)
	}
}

func TestWriteBeforeInit(t *testing.T) {
	w := New(10, 5, func([]byte) error { return nil })
	_, err := w.Write(make([]byte, 5))
	if _, ok := err.(*NotInitializedError); !ok {
		t.Fatalf("got %v (%T), want *NotInitializedError", err, err)
	}
}

func TestWriteZeroLengthStream(t *testing.T) {
	called := false
	w := New(10, 0, func([]byte) error { called = true; return nil })
	if err := w.Init(0); err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write(nil); err != nil {
		t.Fatal(err)
	}
	if called {
		t.Fatal("consumer should not be called for an empty stream")
	}
	if w.Finish() != 0 {
		t.Errorf("Finish() = %d, want 0", w.Finish())
	}
}
