package hashfamily

import (
	"errors"
	"strings"
	"testing"

	"github.com/nearduplicate/lshdedup/internal/lsherr"
)

func TestXorhash_RoundTrip(t *testing.T) {
	h := NewXorhash()
	tag := h.Store()
	if !strings.HasPrefix(tag, "Xorhash_") {
		t.Fatalf("unexpected tag %q", tag)
	}

	loaded, err := Load(tag)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	for _, x := range []uint64{0, 1, 42, ^uint64(0)} {
		if h.Calculate(x) != loaded.Calculate(x) {
			t.Errorf("Calculate(%d) mismatch after round-trip", x)
		}
	}
}

func TestLinconhash_RoundTrip(t *testing.T) {
	h := NewLinconhash()
	loaded, err := Load(h.Store())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for _, x := range []uint64{0, 1, 42, 1 << 40} {
		if h.Calculate(x) != loaded.Calculate(x) {
			t.Errorf("Calculate(%d) mismatch after round-trip", x)
		}
	}
}

func TestMD5hash_RoundTrip(t *testing.T) {
	h := NewMD5hash()
	loaded, err := Load(h.Store())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for _, x := range []uint64{0, 1, 42} {
		if h.Calculate(x) != loaded.Calculate(x) {
			t.Errorf("Calculate(%d) mismatch after round-trip", x)
		}
	}
}

// TestLinconhash_GoldenExample pins spec.md's worked example:
// Linconhash(a=2^32, b=0, c=533603009383305529).calculate(1) = 2^32 mod c.
func TestLinconhash_GoldenExample(t *testing.T) {
	h := &linconhash{a: 1 << 32, b: 0, c: linconC}
	got := h.Calculate(1)
	want := uint64(4294967296)
	if got != want {
		t.Errorf("Calculate(1) = %d, want %d", got, want)
	}
}

func TestLoad_UnknownFamilyIsMalformedTag(t *testing.T) {
	_, err := Load("Banana_123")
	if !errors.Is(err, lsherr.ErrMalformedTag) {
		t.Fatalf("expected ErrMalformedTag, got %v", err)
	}
}

func TestLoad_WrongParamCountIsMalformedTag(t *testing.T) {
	cases := []string{
		"Xorhash_1_2",
		"Linconhash_1_2",
		"MD5hash",
	}
	for _, tag := range cases {
		if _, err := Load(tag); !errors.Is(err, lsherr.ErrMalformedTag) {
			t.Errorf("Load(%q): expected ErrMalformedTag, got %v", tag, err)
		}
	}
}

func TestLoad_NonNumericParamIsMalformedTag(t *testing.T) {
	if _, err := Load("Xorhash_notanumber"); !errors.Is(err, lsherr.ErrMalformedTag) {
		t.Errorf("expected ErrMalformedTag, got %v", err)
	}
}

func TestNew_UnknownFamily(t *testing.T) {
	if _, err := New(Name("nope")); !errors.Is(err, lsherr.ErrConfigError) {
		t.Errorf("expected ErrConfigError, got %v", err)
	}
}

func TestMulmod_MatchesBigIntReference(t *testing.T) {
	cases := []struct{ a, b, m uint64 }{
		{18446744073709551615, 18446744073709551615, 533603009383305529},
		{1, 1, 533603009383305529},
		{0, 12345, 533603009383305529},
		{9999999999999999, 9999999999999999, 533603009383305529},
	}
	for _, c := range cases {
		got := mulmod(c.a, c.b, c.m)
		want := bigMulMod(c.a, c.b, c.m)
		if got != want {
			t.Errorf("mulmod(%d,%d,%d) = %d, want %d", c.a, c.b, c.m, got, want)
		}
	}
}
