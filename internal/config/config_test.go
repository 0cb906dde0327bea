package config

import (
	"errors"
	"testing"

	"github.com/nearduplicate/lshdedup/internal/lsherr"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Corpus.Path = "corpus.csv"
	return cfg
}

func TestValidate_DefaultWithPathIsValid(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidate_MissingCorpusPath(t *testing.T) {
	cfg := validConfig()
	cfg.Corpus.Path = ""
	if err := cfg.Validate(); !errors.Is(err, lsherr.ErrConfigError) {
		t.Fatalf("expected ErrConfigError, got %v", err)
	}
}

func TestValidate_NonPositiveK(t *testing.T) {
	for _, k := range []int{0, -1} {
		cfg := validConfig()
		cfg.Shingle.K = k
		if err := cfg.Validate(); !errors.Is(err, lsherr.ErrConfigError) {
			t.Errorf("k=%d: expected ErrConfigError, got %v", k, err)
		}
	}
}

func TestValidate_TauOutOfRange(t *testing.T) {
	for _, tau := range []float64{-0.1, 1.0, 1.5} {
		cfg := validConfig()
		cfg.Query.Tau = tau
		if err := cfg.Validate(); !errors.Is(err, lsherr.ErrConfigError) {
			t.Errorf("tau=%v: expected ErrConfigError, got %v", tau, err)
		}
	}
}

func TestValidate_TauBoundaryZeroIsValid(t *testing.T) {
	cfg := validConfig()
	cfg.Query.Tau = 0
	if err := cfg.Validate(); err != nil {
		t.Errorf("tau=0 should be valid, got %v", err)
	}
}

func TestValidate_RNonPositive(t *testing.T) {
	cfg := validConfig()
	cfg.Index.R = 0
	if err := cfg.Validate(); !errors.Is(err, lsherr.ErrConfigError) {
		t.Fatalf("expected ErrConfigError, got %v", err)
	}
}

func TestValidate_MNotMultipleOfR(t *testing.T) {
	cfg := validConfig()
	cfg.Index.M = 11
	cfg.Index.R = 5
	if err := cfg.Validate(); !errors.Is(err, lsherr.ErrConfigError) {
		t.Fatalf("expected ErrConfigError, got %v", err)
	}
}

func TestValidate_UnknownHashFamily(t *testing.T) {
	cfg := validConfig()
	cfg.Index.Family = "Nonexistenthash"
	if err := cfg.Validate(); !errors.Is(err, lsherr.ErrConfigError) {
		t.Fatalf("expected ErrConfigError, got %v", err)
	}
}

func TestValidate_ConflictingShingleFlags(t *testing.T) {
	cfg := validConfig()
	cfg.Shingle.FilterStopwords = true
	cfg.Shingle.StopwordStart = true
	if err := cfg.Validate(); !errors.Is(err, lsherr.ErrConfigError) {
		t.Fatalf("expected ErrConfigError, got %v", err)
	}
}
