package cbor

import (
	"encoding/hex"
	"errors"
	"strings"
	"testing"
)

// TestEndToEndScenarios exercises the literal input/output table from the
// testable-properties section: a from-format/to-format conversion with a
// known expected rendering.
func TestEndToEndScenarios(t *testing.T) {
	t.Run("1_hex_to_diag_null", func(t *testing.T) {
		it, err := ParseHex("f6")
		if err != nil {
			t.Fatalf("ParseHex: %v", err)
		}
		if got := it.ToDiag(); got != "null" {
			t.Errorf("ToDiag() = %q, want %q", got, "null")
		}
	})

	t.Run("2_diag_to_bytes_hello", func(t *testing.T) {
		it, err := ParseDiag(`"hello"`)
		if err != nil {
			t.Fatalf("ParseDiag: %v", err)
		}
		want := "65" + "68656c6c6f"
		if got := hex.EncodeToString(it.ToBytes()); got != want {
			t.Errorf("ToBytes() = %s, want %s", got, want)
		}
	})

	t.Run("3_hex_to_diag_array", func(t *testing.T) {
		it, err := ParseHex("83010203")
		if err != nil {
			t.Fatalf("ParseHex: %v", err)
		}
		if got := it.ToDiagPretty(); got != "[1, 2, 3]" {
			t.Errorf("ToDiagPretty() = %q, want %q", got, "[1, 2, 3]")
		}
	})

	t.Run("4_hex_to_annotated_datetime", func(t *testing.T) {
		it, err := ParseHex("c074323031382d30382d30325431383a31393a33385a")
		if err != nil {
			t.Fatalf("ParseHex: %v", err)
		}
		got := it.ToHex()
		if !strings.Contains(got, "c0 # standard datetime string, tag(0)") {
			t.Errorf("missing tag header line, got:\n%s", got)
		}
		if !strings.Contains(got, "epoch(1533233978)") {
			t.Errorf("missing epoch semantic comment, got:\n%s", got)
		}
	})

	t.Run("5_diag_to_bytes_indefinite_concat", func(t *testing.T) {
		it, err := ParseDiag("(_ h'01', h'02')")
		if err != nil {
			t.Fatalf("ParseDiag: %v", err)
		}
		want := "5f" + "4101" + "4102" + "ff"
		if got := hex.EncodeToString(it.ToBytes()); got != want {
			t.Errorf("ToBytes() = %s, want %s", got, want)
		}
	})

	t.Run("6_diag_negative_zero_error", func(t *testing.T) {
		_, err := ParseDiag("-0")
		if !errors.Is(err, ErrNegativeZero) {
			t.Errorf("got %v, want ErrNegativeZero", err)
		}
	})

	t.Run("7_diag_embedded_cbor_to_bytes", func(t *testing.T) {
		it, err := ParseDiag("<<1, 2>>")
		if err != nil {
			t.Fatalf("ParseDiag: %v", err)
		}
		want := "42" + "0102"
		if got := hex.EncodeToString(it.ToBytes()); got != want {
			t.Errorf("ToBytes() = %s, want %s", got, want)
		}
	})
}

// TestNonAllocationOnHugeDeclaredLength is testable law 6: a declared
// 2^61-byte string with no payload fails cleanly rather than attempting to
// allocate 2^61 bytes.
func TestNonAllocationOnHugeDeclaredLength(t *testing.T) {
	data, err := hex.DecodeString("7b2000000000000000")
	if err != nil {
		t.Fatalf("bad fixture: %v", err)
	}
	_, err = ParseBytes(data)
	if !errors.Is(err, ErrUnexpectedEndOfData) {
		t.Fatalf("got %v, want ErrUnexpectedEndOfData", err)
	}
}

// TestNestingGuardLaw is testable law 5: a depth-300 input fails with
// NestingTooDeep.
func TestNestingGuardLaw(t *testing.T) {
	data := make([]byte, 0, 301)
	for i := 0; i < 300; i++ {
		data = append(data, 0x81)
	}
	data = append(data, 0x00)
	_, err := ParseBytes(data)
	if !errors.Is(err, ErrNestingTooDeep) {
		t.Fatalf("got %v, want ErrNestingTooDeep", err)
	}
}

// TestIndefinitePreservationLaw is testable law 7: an indefinite byte
// string with k chunks survives a round trip as k chunks, never collapsed
// into one definite string.
func TestIndefinitePreservationLaw(t *testing.T) {
	it := NewBytesIndef(
		ByteChunk{Data: []byte{1}},
		ByteChunk{Data: []byte{2, 3}},
		ByteChunk{Data: []byte{4}},
	)
	got, err := ParseBytes(it.ToBytes())
	if err != nil {
		t.Fatalf("ParseBytes: %v", err)
	}
	if got.Kind != KindBytesIndef || len(got.ByteChunks) != 3 {
		t.Fatalf("got %+v, want 3 preserved chunks", got)
	}
}

// TestDiagNotInjectiveOverWidthsLaw is testable law 3: parse_diag(t.to_diag())
// preserves values/ordering/definiteness but resets widths the grammar
// can't express (definite array/map length width) to Unknown.
func TestDiagNotInjectiveOverWidthsLaw(t *testing.T) {
	original, err := ParseBytes(mustHex(t, "9a00000003010203"))
	if err != nil {
		t.Fatalf("ParseBytes: %v", err)
	}
	if *original.Length != Width32 {
		t.Fatalf("fixture setup: want Width32, got %v", *original.Length)
	}
	reparsed, err := ParseDiag(original.ToDiag())
	if err != nil {
		t.Fatalf("ParseDiag: %v", err)
	}
	if reparsed.Length == nil || *reparsed.Length != WidthUnknown {
		t.Errorf("diagnostic round trip should reset array length width to Unknown, got %v", reparsed.Length)
	}
	if len(reparsed.Items) != len(original.Items) {
		t.Errorf("value/ordering not preserved: got %d items, want %d", len(reparsed.Items), len(original.Items))
	}
}
