package checksum

import "testing"

func TestSumDeterministic(t *testing.T) {
	a := Sum([]byte("hello"))
	b := Sum([]byte("hello"))
	if a != b {
		t.Errorf("digest not deterministic: %q vs %q", a, b)
	}
	if len(a) != 64 {
		t.Errorf("digest length = %d, want 64 hex chars", len(a))
	}
	if a == Sum([]byte("world")) {
		t.Error("different inputs produced same digest")
	}
}

func TestETagQuoted(t *testing.T) {
	tag := ETag([]byte("data"))
	if tag[0] != '"' || tag[len(tag)-1] != '"' {
		t.Errorf("etag not quoted: %q", tag)
	}
}
