package compress

import (
	"bytes"
	"testing"
)

func roundTrip(t *testing.T, name string, data []byte) []byte {
	t.Helper()

	c, err := NewCompressor(name)
	if err != nil {
		t.Fatalf("NewCompressor(%q): %v", name, err)
	}

	var out bytes.Buffer
	fed, err := c.Feed(data)
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	out.Write(fed)

	tail, err := c.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	out.Write(tail)

	got, err := Decompress(name, out.Bytes())
	if err != nil {
		t.Fatalf("Decompress(%q): %v", name, err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("round trip through %q: got %q, want %q", name, got, data)
	}

	return out.Bytes()
}

func TestNoneRoundTrip(t *testing.T) {
	roundTrip(t, NameNone, []byte("hello, patch"))
}

func TestNoneIsIdentity(t *testing.T) {
	data := []byte{1, 2, 3, 4}
	compressed := roundTrip(t, NameNone, data)
	if !bytes.Equal(compressed, data) {
		t.Fatalf("none compression changed bytes: got %v, want %v", compressed, data)
	}
}

func TestCRLERoundTrip(t *testing.T) {
	cases := [][]byte{
		nil,
		[]byte("short"),
		bytes.Repeat([]byte{0xAA}, 1000),
		append(append([]byte("prefix"), bytes.Repeat([]byte{0x00}, 50)...), []byte("suffix")...),
		append(bytes.Repeat([]byte{1, 2, 3}, 4), bytes.Repeat([]byte{9}, 20)...),
	}

	for _, data := range cases {
		roundTrip(t, NameCRLE, data)
	}
}

func TestCRLEConstantRunIsCompact(t *testing.T) {
	data := bytes.Repeat([]byte{0xAA}, 1000)
	compressed := EncodeCRLE(data)
	if len(compressed) >= 10 {
		t.Fatalf("EncodeCRLE of 1000 constant bytes took %d bytes, want < 10", len(compressed))
	}
}

func TestCRLEDeterministic(t *testing.T) {
	data := append(bytes.Repeat([]byte{5}, 20), []byte("tail data")...)
	a := EncodeCRLE(data)
	b := EncodeCRLE(data)
	if !bytes.Equal(a, b) {
		t.Fatalf("EncodeCRLE is not deterministic")
	}
}

func TestLZMARoundTrip(t *testing.T) {
	data := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog "), 50)
	roundTrip(t, NameLZMA, data)
}

func TestLZMARoundTripEmpty(t *testing.T) {
	roundTrip(t, NameLZMA, nil)
}

func TestBadCompressionName(t *testing.T) {
	if _, err := NewCompressor("bogus"); err == nil {
		t.Fatalf("NewCompressor(bogus) should fail")
	}
	if _, err := Decompress("bogus", nil); err == nil {
		t.Fatalf("Decompress(bogus) should fail")
	}
}

func TestIDNameRoundTrip(t *testing.T) {
	for id, name := range map[int64]string{IDNone: NameNone, IDLZMA: NameLZMA, IDCRLE: NameCRLE} {
		gotName, err := IDToName(id)
		if err != nil || gotName != name {
			t.Fatalf("IDToName(%d) = %q, %v", id, gotName, err)
		}
		gotID, err := NameToID(name)
		if err != nil || gotID != id {
			t.Fatalf("NameToID(%q) = %d, %v", name, gotID, err)
		}
	}
}
