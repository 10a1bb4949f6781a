package cbor

import (
	"strings"
	"testing"
)

func TestToHexBasicScalar(t *testing.T) {
	it := NewUint(23)
	got := it.ToHex()
	if got != "17 # unsigned(23)" {
		t.Errorf("ToHex() = %q", got)
	}
}

func TestToHexArrayHeaderAndChildrenIndented(t *testing.T) {
	it := NewArray(NewUint(1), NewUint(2))
	got := it.ToHex()
	lines := strings.Split(got, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), got)
	}
	if !strings.Contains(lines[0], "array(2)") {
		t.Errorf("header line = %q, want array(2) comment", lines[0])
	}
	for _, l := range lines[1:] {
		if !strings.HasPrefix(l, "  ") {
			t.Errorf("child line %q not indented", l)
		}
	}
}

func TestToHexIndefiniteContainerEmitsBreakTrailer(t *testing.T) {
	it := NewIndefArray(NewUint(1))
	got := it.ToHex()
	if !strings.Contains(got, "array(*)") {
		t.Errorf("expected (*) annotation, got %q", got)
	}
	if !strings.Contains(got, "# break") {
		t.Errorf("expected a break trailer, got %q", got)
	}
}

func TestToHexColumnsAlignedAcrossSiblings(t *testing.T) {
	// One sibling head is wider (2 bytes) than the other (1 byte); both
	// "#" columns must still line up.
	it := NewArray(NewUint(24).WithIntWidth(Width8), NewUint(1))
	got := it.ToHex()
	lines := strings.Split(got, "\n")
	var hashCols []int
	for _, l := range lines[1:] {
		idx := strings.Index(l, "#")
		if idx < 0 {
			t.Fatalf("line %q missing comment marker", l)
		}
		hashCols = append(hashCols, idx)
	}
	for i := 1; i < len(hashCols); i++ {
		if hashCols[i] != hashCols[0] {
			t.Errorf("sibling '#' columns misaligned: %v", hashCols)
		}
	}
}

func TestToHexStringWrapsAtSixteenBytesAndRuneBoundary(t *testing.T) {
	// 18 ASCII bytes: wraps into a 16-byte row and a 2-byte row.
	it := NewText(strings.Repeat("a", 18))
	got := it.ToHex()
	lines := strings.Split(got, "\n")
	// header + 2 payload rows.
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), got)
	}
}

func TestToHexUTF8BoundarySafeWrapping(t *testing.T) {
	// A 15-byte run of ASCII followed by a 2-byte UTF-8 code point (é,
	// U+00E9) must not split the code point across the 16-byte row
	// boundary.
	text := strings.Repeat("a", 15) + "é" + strings.Repeat("b", 4)
	it := NewText(text)
	got := it.ToHex()
	// Count hex octets on the first payload row: rows hold at most 16, so
	// the row must stop before é at 15 octets; 16 would split é's 2 bytes.
	lines := strings.Split(got, "\n")
	firstPayload := lines[1]
	hexPart := strings.SplitN(firstPayload, " #", 2)[0]
	hexPart = strings.TrimSpace(hexPart)
	nOctets := len(strings.Fields(hexPart))
	if nOctets == 16 {
		t.Errorf("payload row split a UTF-8 code point across the 16-byte boundary: %q", got)
	}
}

func TestToHexTagSemanticPostComment(t *testing.T) {
	it := NewTag(0, NewText("2018-08-02T18:19:38Z"))
	got := it.ToHex()
	if !strings.Contains(got, "standard datetime string, tag(0)") {
		t.Errorf("missing tag display name: %q", got)
	}
	if !strings.Contains(got, "epoch(1533233978)") {
		t.Errorf("missing epoch semantic comment: %q", got)
	}
}

func TestToHexEmbeddedCborTagInlinesPayload(t *testing.T) {
	inner := NewArray(NewUint(1), NewUint(2))
	it := NewTag(uint64(TagEncodedCborData), NewBytes(inner.ToBytes()))
	got := it.ToHex()
	if !strings.Contains(got, "array(2)") {
		t.Errorf("expected recursively rendered embedded CBOR, got %q", got)
	}
}

func TestToHexEmbeddedCborTagFailureDegradesToNote(t *testing.T) {
	// A byte string that isn't valid CBOR: trailing data after 0x00.
	it := NewTag(uint64(TagEncodedCborData), NewBytes([]byte{0x00, 0xff}))
	got := it.ToHex()
	if !strings.Contains(got, "failed to parse encoded cbor data item") {
		t.Errorf("expected a degrade-to-note, got %q", got)
	}
}

func TestHexMirrorsBytesLaw(t *testing.T) {
	// Testable law 2: hex_strip_comments(t.to_hex()) decoded as hex equals
	// t.to_bytes(). The fixtures carry the concrete widths the reader
	// produces, since the tree-level check below uses the width-sensitive
	// Equal.
	fixtures := []*Item{
		NewUint(23).WithIntWidth(WidthZero),
		NewArray(NewUint(1).WithIntWidth(WidthZero), NewUint(2).WithIntWidth(WidthZero), NewUint(3).WithIntWidth(WidthZero)).WithBitWidth(WidthZero),
		NewTag(0, NewText("2018-08-02T18:19:38Z").WithBitWidth(WidthZero)).WithIntWidth(WidthZero),
		NewBytesIndef(ByteChunk{Data: []byte{1}, LenWidth: WidthZero}, ByteChunk{Data: []byte{2}, LenWidth: WidthZero}),
	}
	for i, fx := range fixtures {
		if stripHexComments(fx.ToHex()) == "" {
			t.Fatalf("fixture %d: ToHex() produced no hex digits", i)
		}
		gotBytes, err := ParseHex(fx.ToHex())
		if err != nil {
			t.Fatalf("fixture %d: ParseHex: %v", i, err)
		}
		if !fx.Equal(gotBytes) {
			t.Errorf("fixture %d: ParseHex(ToHex()) round trip mismatch", i)
		}
	}
}

// stripHexComments mirrors ParseHex's comment/whitespace stripping, used
// directly by TestHexMirrorsBytesLaw to sanity-check the hex digit stream
// independent of the tree-level round trip.
func stripHexComments(s string) string {
	var sb strings.Builder
	for _, line := range strings.Split(s, "\n") {
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		for _, r := range line {
			if r == ' ' || r == '\t' || r == '\r' {
				continue
			}
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
