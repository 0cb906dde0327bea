// Package hashfamily implements the three 64-bit hash families the
// signature engine draws from: Xorhash, Linconhash and MD5hash. Each
// instance carries its own random parameters and round-trips through a
// compact string tag.
package hashfamily

import (
	"crypto/md5"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"math/big"
	"math/bits"
	"strconv"
	"strings"

	"github.com/nearduplicate/lshdedup/internal/lsherr"
)

// Name identifies one of the three hash families.
type Name string

const (
	Xorhash    Name = "Xorhash"
	Linconhash Name = "Linconhash"
	MD5hash    Name = "MD5hash"
)

// linconC is the fixed prime modulus used by every Linconhash instance.
const linconC uint64 = 533603009383305529

// Hash computes a 64-bit image from a 64-bit input and round-trips through
// a string tag. All three families implement it.
type Hash interface {
	// Calculate returns the hash's image of x.
	Calculate(x uint64) uint64
	// Store serializes the instance to its tag form, e.g. "Xorhash_123".
	Store() string
}

// randUint64 draws a uniformly random 64-bit value.
func randUint64() uint64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic(fmt.Sprintf("hashfamily: failed to read random bytes: %v", err))
	}
	return binary.BigEndian.Uint64(buf[:])
}

// randUint64Range draws a uniformly random value in [lo, hi).
func randUint64Range(lo, hi uint64) uint64 {
	span := new(big.Int).SetUint64(hi - lo)
	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		panic(fmt.Sprintf("hashfamily: failed to read random bytes: %v", err))
	}
	return lo + n.Uint64()
}

// xorhash computes x XOR k for a fixed random mask k.
type xorhash struct {
	k uint64
}

// NewXorhash constructs an Xorhash instance with a uniformly random 64-bit
// mask.
func NewXorhash() Hash {
	return &xorhash{k: randUint64()}
}

func (h *xorhash) Calculate(x uint64) uint64 { return x ^ h.k }
func (h *xorhash) Store() string             { return fmt.Sprintf("%s_%d", Xorhash, h.k) }

// linconhash computes (a*x + b) mod c for fixed random a, b and fixed prime
// c, using a 128-bit-safe mulmod so the multiply never overflows before the
// modulus is applied.
type linconhash struct {
	a, b, c uint64
}

// NewLinconhash constructs a Linconhash instance with a uniform in
// [2^32, 2^64) and b uniform in [0, 2^64), per spec.md §4.2.
func NewLinconhash() Hash {
	return &linconhash{
		a: randUint64InLowerHalfExcluded(),
		b: randUint64(),
		c: linconC,
	}
}

// randUint64InLowerHalfExcluded draws uniformly from [2^32, 2^64) by
// composing a nonzero high 32 bits with a uniform low 32 bits — the two
// halves partition that range exactly.
func randUint64InLowerHalfExcluded() uint64 {
	high := randUint64Range(1, 1<<32)
	low := randUint64Range(0, 1<<32)
	return (high << 32) | low
}

func (h *linconhash) Calculate(x uint64) uint64 {
	return (mulmod(h.a, x, h.c) + h.b%h.c) % h.c
}

func (h *linconhash) Store() string {
	return fmt.Sprintf("%s_%d_%d_%d", Linconhash, h.a, h.b, h.c)
}

// mulmod returns (a*b) mod m without overflowing, using the standard
// 64x64->128 multiply (math/bits.Mul64) followed by a 128/64 division
// (math/bits.Div64). Reducing a and b mod m first guarantees the high word
// of the product is strictly less than m, which is exactly what Div64
// requires to avoid a divide overflow.
func mulmod(a, b, m uint64) uint64 {
	a %= m
	b %= m
	hi, lo := bits.Mul64(a, b)
	if hi == 0 {
		return lo % m
	}
	_, rem := bits.Div64(hi, lo, m)
	return rem
}

// md5hash computes the first 64 bits of md5(be8(x) || be8(a)), interpreted
// big-endian, for a fixed random seed a.
type md5hash struct {
	a uint64
}

// NewMD5hash constructs an MD5hash instance with a uniformly random 64-bit
// seed.
func NewMD5hash() Hash {
	return &md5hash{a: randUint64()}
}

func (h *md5hash) Calculate(x uint64) uint64 {
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[0:8], x)
	binary.BigEndian.PutUint64(buf[8:16], h.a)
	sum := md5.Sum(buf[:])
	return binary.BigEndian.Uint64(sum[:8])
}

func (h *md5hash) Store() string { return fmt.Sprintf("%s_%d", MD5hash, h.a) }

// New constructs a fresh, randomly-parameterized Hash of the given family.
func New(name Name) (Hash, error) {
	switch name {
	case Xorhash:
		return NewXorhash(), nil
	case Linconhash:
		return NewLinconhash(), nil
	case MD5hash:
		return NewMD5hash(), nil
	default:
		return nil, fmt.Errorf("%w: unknown hash family %q", lsherr.ErrConfigError, name)
	}
}

// Load parses a tag produced by Store back into a Hash instance. An
// unrecognized family or a malformed parameter list is a fatal
// deserialization error.
func Load(tag string) (Hash, error) {
	parts := strings.Split(tag, "_")
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: empty tag", lsherr.ErrMalformedTag)
	}

	family := Name(parts[0])
	params := parts[1:]

	parseUint := func(s string) (uint64, error) {
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: tag %q: %v", lsherr.ErrMalformedTag, tag, err)
		}
		return v, nil
	}

	switch family {
	case Xorhash:
		if len(params) != 1 {
			return nil, fmt.Errorf("%w: Xorhash tag %q wants 1 parameter, got %d", lsherr.ErrMalformedTag, tag, len(params))
		}
		k, err := parseUint(params[0])
		if err != nil {
			return nil, err
		}
		return &xorhash{k: k}, nil

	case Linconhash:
		if len(params) != 3 {
			return nil, fmt.Errorf("%w: Linconhash tag %q wants 3 parameters, got %d", lsherr.ErrMalformedTag, tag, len(params))
		}
		a, err := parseUint(params[0])
		if err != nil {
			return nil, err
		}
		b, err := parseUint(params[1])
		if err != nil {
			return nil, err
		}
		c, err := parseUint(params[2])
		if err != nil {
			return nil, err
		}
		return &linconhash{a: a, b: b, c: c}, nil

	case MD5hash:
		if len(params) != 1 {
			return nil, fmt.Errorf("%w: MD5hash tag %q wants 1 parameter, got %d", lsherr.ErrMalformedTag, tag, len(params))
		}
		a, err := parseUint(params[0])
		if err != nil {
			return nil, err
		}
		return &md5hash{a: a}, nil

	default:
		return nil, fmt.Errorf("%w: unknown hash family %q", lsherr.ErrMalformedTag, family)
	}
}
