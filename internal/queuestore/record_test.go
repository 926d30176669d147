package queuestore

import "testing"

func TestRecordRoundTrip(t *testing.T) {
	b := encodeJobRecord(42, 1700000000000, []byte(`{"input":{"x":1}}`))
	rec, ok := decodeJobRecord(b)
	if !ok {
		t.Fatalf("decode failed")
	}
	if rec.ID != 42 || rec.EnqueuedMs != 1700000000000 || string(rec.Payload) != `{"input":{"x":1}}` {
		t.Fatalf("round trip: %+v", rec)
	}
}

func TestRecordRejectsCorruption(t *testing.T) {
	b := encodeJobRecord(1, 1000, []byte("payload"))
	b[recordHeaderLen] ^= 0xFF
	if _, ok := decodeJobRecord(b); ok {
		t.Fatalf("corrupt record accepted")
	}
	if _, ok := decodeJobRecord(b[:recordHeaderLen]); ok {
		t.Fatalf("truncated record accepted")
	}
}
