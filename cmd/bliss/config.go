package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/benjivesterby/go-bliss/bliss"
	"github.com/benjivesterby/go-bliss/internal/log"
)

// config holds the resolved options of one invocation.
type config struct {
	LogLevel  string
	LogFormat string // text or json

	Set         string // parameter set name or number (gen)
	Format      string // pem or der (gen, pub)
	KeyPath     string // private key file
	PubPath     string // public key file
	InPath      string // message file
	OutPath     string // output file
	SigPath     string // signature file
	Fingerprint string // fingerprint type
}

func defaultConfig() config {
	return config{
		LogLevel:    "warn",
		LogFormat:   "text",
		Set:         bliss.BLISS_IV.String(),
		Format:      "pem",
		Fingerprint: bliss.KEYID_PUBKEY_INFO_SHA1.String(),
	}
}

// Validate checks the options needed by command cmd.
func (c *config) Validate(cmd string) error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q", c.LogFormat)
	}
	require := func(name, v string) error {
		if v == "" {
			return fmt.Errorf("%s: -%s is required", cmd, name)
		}
		return nil
	}
	var errs []error
	switch cmd {
	case "gen":
		if _, err := parseSet(c.Set); err != nil {
			errs = append(errs, err)
		}
		if _, err := parseFormat(c.Format); err != nil {
			errs = append(errs, err)
		}
		errs = append(errs, require("out", c.OutPath))
	case "pub":
		if _, err := parseFormat(c.Format); err != nil {
			errs = append(errs, err)
		}
		errs = append(errs, require("key", c.KeyPath))
	case "sign":
		errs = append(errs, require("key", c.KeyPath), require("in", c.InPath),
			require("out", c.OutPath))
	case "verify":
		errs = append(errs, require("pub", c.PubPath), require("in", c.InPath),
			require("sig", c.SigPath))
	case "fingerprint":
		if c.KeyPath == "" && c.PubPath == "" {
			errs = append(errs, errors.New("fingerprint: -key or -pub is required"))
		}
		if _, err := parseFingerprint(c.Fingerprint); err != nil {
			errs = append(errs, err)
		}
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	return errors.Join(errs...)
}

// Logger built from the configured level and format.
func (c *config) logger(w io.Writer) *log.Logger {
	level := log.LevelFromString(c.LogLevel)
	if c.LogFormat == "json" {
		return log.New(w, level)
	}
	return log.NewText(w, level)
}

// parseSet accepts a parameter set name ("BLISS-I", case-insensitive),
// its roman suffix ("I") or its number ("1").
func parseSet(s string) (bliss.ParamSetID, error) {
	s = strings.TrimSpace(s)
	reg := bliss.DefaultRegistry()
	if n, err := strconv.ParseUint(s, 10, 8); err == nil {
		if _, err := reg.ByID(bliss.ParamSetID(n)); err != nil {
			return 0, err
		}
		return bliss.ParamSetID(n), nil
	}
	for _, ps := range reg.Sets() {
		if strings.EqualFold(s, ps.Name) ||
			strings.EqualFold("BLISS-"+s, ps.Name) {
			return ps.ID, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", bliss.ErrUnknownParamSet, s)
}

func parseFormat(s string) (bliss.EncodingFormat, error) {
	switch strings.ToLower(s) {
	case "pem":
		return bliss.FormatPEM, nil
	case "der":
		return bliss.FormatDER, nil
	default:
		return 0, fmt.Errorf("unknown encoding format %q", s)
	}
}

func parseFingerprint(s string) (bliss.FingerprintType, error) {
	for _, t := range []bliss.FingerprintType{
		bliss.KEYID_PUBKEY_SHA1,
		bliss.KEYID_PUBKEY_INFO_SHA1,
		bliss.KEYID_PUBKEY_SHAKE256,
		bliss.KEYID_PUBKEY_BLAKE3,
	} {
		if strings.EqualFold(s, t.String()) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown fingerprint type %q", s)
}
