package cbor

import (
	"strings"
	"testing"
)

func TestTagBignum(t *testing.T) {
	// tag(2) wrapping h'010000' = 65536.
	it := NewTag(uint64(TagUnsignedBignum), NewBytes([]byte{0x01, 0x00, 0x00}))
	got := tagComment(it)
	if len(got) != 1 || got[0] != "65536" {
		t.Errorf("tagBignum positive = %v", got)
	}

	neg := NewTag(uint64(TagNegativeBignum), NewBytes([]byte{0x01, 0x00, 0x00}))
	got = tagComment(neg)
	if len(got) != 1 || got[0] != "-65537" {
		t.Errorf("tagBignum negative = %v", got)
	}
}

func TestTagBignumInvalidNested(t *testing.T) {
	it := NewTag(uint64(TagUnsignedBignum), NewUint(5))
	got := tagComment(it)
	if len(got) != 1 || !strings.Contains(got[0], "invalid") {
		t.Errorf("expected invalid-bignum note, got %v", got)
	}
}

func TestTagDecimalFraction(t *testing.T) {
	// 4([-2, 27315]) = 27315 * 10^-2 = 273.15 = 5463/20
	it := NewTag(uint64(TagDecimalFraction), NewArray(NewNegInt(1), NewUint(27315)))
	got := tagComment(it)
	if len(got) != 1 || got[0] != "(5463/20)" {
		t.Errorf("tagRational decimal fraction = %v", got)
	}
}

func TestTagUUID(t *testing.T) {
	uuidBytes := []byte{
		0x00, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77,
		0x88, 0x99, 0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff,
	}
	it := NewTag(uint64(TagUUID), NewBytes(uuidBytes))
	got := tagComment(it)
	if len(got) != 5 {
		t.Fatalf("expected 5 UUID rendering lines, got %v", got)
	}
	if !strings.Contains(got[0], "00112233-4455-6677-8899-aabbccddeeff") {
		t.Errorf("canonical uuid string missing: %v", got)
	}
}

func TestTagUUIDInvalidLength(t *testing.T) {
	it := NewTag(uint64(TagUUID), NewBytes([]byte{1, 2, 3}))
	got := tagComment(it)
	if len(got) != 1 || !strings.Contains(got[0], "invalid") {
		t.Errorf("expected invalid UUID note, got %v", got)
	}
}

func TestTagNetworkAddressDispatchesOnLength(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"ipv4", []byte{127, 0, 0, 1}, "ip(127.0.0.1)"},
		{"ipv6", []byte{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1}, "ip(::1)"},
		{"mac", []byte{0x00, 0x1b, 0x63, 0x84, 0x45, 0xe6}, "mac(00:1b:63:84:45:e6)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it := NewTag(uint64(TagNetworkAddress), NewBytes(tt.data))
			got := tagComment(it)
			if len(got) != 1 || got[0] != tt.want {
				t.Errorf("got %v, want %q", got, tt.want)
			}
		})
	}
}

func TestTagNetworkAddressInvalidLength(t *testing.T) {
	it := NewTag(uint64(TagNetworkAddress), NewBytes([]byte{1, 2, 3}))
	got := tagComment(it)
	if len(got) != 1 || got[0] != "invalid data length" {
		t.Errorf("got %v", got)
	}
}

func TestTagURIValidation(t *testing.T) {
	valid := NewTag(uint64(TagURI), NewText("https://example.com/path"))
	if got := tagComment(valid); len(got) != 1 || got[0] != "valid URL" {
		t.Errorf("got %v", got)
	}
	invalid := NewTag(uint64(TagURI), NewText("not a url"))
	if got := tagComment(invalid); len(got) != 1 || got[0] != "invalid URL" {
		t.Errorf("got %v", got)
	}
}

func TestTagCalendarDate(t *testing.T) {
	it := NewTag(uint64(TagDaysSinceEpoch), NewInt(0))
	got := tagComment(it)
	if len(got) != 1 || got[0] != "date(1970-01-01)" {
		t.Errorf("got %v", got)
	}
}

func TestTagSelfDescribedCbor(t *testing.T) {
	it := NewTag(uint64(TagSelfDescribedCbor), NewUint(0))
	got := tagComment(it)
	if len(got) != 1 || got[0] != "self describe cbor" {
		t.Errorf("got %v", got)
	}
}

func TestTagUnrecognizedYieldsNoComment(t *testing.T) {
	it := NewTag(999999, NewUint(1))
	if got := tagComment(it); got != nil {
		t.Errorf("unrecognized tag should have no semantic comment, got %v", got)
	}
}
