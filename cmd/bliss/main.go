// Command bliss generates BLISS key pairs, signs files and verifies
// signatures.
//
// Usage:
//
//	bliss [-log-level level] [-log-format text|json] <command> [flags]
//
// Commands:
//
//	gen          -set BLISS-IV -format pem -out key.pem
//	pub          -key key.pem [-format pem] [-out pub.pem]
//	sign         -key key.pem -in message -out message.sig
//	verify       -pub pub.pem -in message -sig message.sig
//	fingerprint  (-key key.pem | -pub pub.pem) [-type pubkey-info-sha1]
//
// Private keys are read and written as DER or PEM ("BLISS PRIVATE
// KEY"), public keys as SubjectPublicKeyInfo DER or PEM ("PUBLIC KEY").
// Signatures are raw bytes.
package main

import (
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/benjivesterby/go-bliss/bliss"
	"github.com/benjivesterby/go-bliss/internal/log"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// errVerify wraps the reason a signature was rejected.
var errVerify = errors.New("signature verification failed")

// run is the actual entry point, returning an exit code: 0 on success,
// 1 if a signature does not verify or an operation fails (logged at
// error level), 2 on usage errors.
func run(args []string, stdout io.Writer, stderr io.Writer) int {
	cfg := defaultConfig()
	top := flag.NewFlagSet("bliss", flag.ContinueOnError)
	top.SetOutput(stderr)
	top.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	top.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log record format (text, json)")
	top.Usage = func() { usage(stderr) }
	if err := top.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if top.NArg() == 0 {
		usage(stderr)
		return 2
	}
	cmd := top.Arg(0)

	fs := newCommandFlagSet(cmd, &cfg)
	fs.SetOutput(stderr)
	if err := fs.Parse(top.Args()[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if err := cfg.Validate(cmd); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	lg := cfg.logger(stderr)
	log.SetDefault(lg)
	lg = lg.Module("cli").With("cmd", cmd)

	var err error
	switch cmd {
	case "gen":
		err = runGen(&cfg, lg)
	case "pub":
		err = runPub(&cfg, stdout)
	case "sign":
		err = runSign(&cfg, lg)
	case "verify":
		err = runVerify(&cfg, stdout)
	case "fingerprint":
		err = runFingerprint(&cfg, stdout)
	}
	if err != nil {
		lg.Error("command failed", "err", err)
		return 1
	}
	return 0
}

func usage(w io.Writer) {
	fmt.Fprint(w, `usage: bliss [-log-level level] [-log-format text|json] <command> [flags]

Commands:
  gen          generate a key pair         (-set, -format, -out)
  pub          extract the public key      (-key, -format, -out)
  sign         sign a file                 (-key, -in, -out)
  verify       verify a signature          (-pub, -in, -sig)
  fingerprint  print a key fingerprint     (-key or -pub, -type)
`)
}

// newCommandFlagSet binds the flags of command cmd to cfg. Unknown
// commands get an empty flag set; Validate reports them.
func newCommandFlagSet(cmd string, cfg *config) *flag.FlagSet {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	switch cmd {
	case "gen":
		fs.StringVar(&cfg.Set, "set", cfg.Set, "parameter set (BLISS-I, BLISS-III, BLISS-IV)")
		fs.StringVar(&cfg.Format, "format", cfg.Format, "key encoding (pem, der)")
		fs.StringVar(&cfg.OutPath, "out", cfg.OutPath, "private key output file")
	case "pub":
		fs.StringVar(&cfg.KeyPath, "key", cfg.KeyPath, "private key file")
		fs.StringVar(&cfg.Format, "format", cfg.Format, "key encoding (pem, der)")
		fs.StringVar(&cfg.OutPath, "out", cfg.OutPath, "public key output file (default stdout)")
	case "sign":
		fs.StringVar(&cfg.KeyPath, "key", cfg.KeyPath, "private key file")
		fs.StringVar(&cfg.InPath, "in", cfg.InPath, "message file")
		fs.StringVar(&cfg.OutPath, "out", cfg.OutPath, "signature output file")
	case "verify":
		fs.StringVar(&cfg.PubPath, "pub", cfg.PubPath, "public key file")
		fs.StringVar(&cfg.InPath, "in", cfg.InPath, "message file")
		fs.StringVar(&cfg.SigPath, "sig", cfg.SigPath, "signature file")
	case "fingerprint":
		fs.StringVar(&cfg.KeyPath, "key", cfg.KeyPath, "private key file")
		fs.StringVar(&cfg.PubPath, "pub", cfg.PubPath, "public key file")
		fs.StringVar(&cfg.Fingerprint, "type", cfg.Fingerprint,
			"fingerprint type (pubkey-sha1, pubkey-info-sha1, pubkey-shake256, pubkey-blake3)")
	}
	return fs
}

func loadPrivateKey(path string) (*bliss.PrivateKey, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sk, err := bliss.ParsePrivateKey(blob)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sk, nil
}

func loadPublicKey(path string) (*bliss.PublicKey, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	pk, err := bliss.ParsePublicKey(nil, blob)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pk, nil
}

func runGen(cfg *config, lg *log.Logger) error {
	id, _ := parseSet(cfg.Set)
	format, _ := parseFormat(cfg.Format)
	sk, err := bliss.GenerateKey(id, nil)
	if err != nil {
		return err
	}
	defer sk.Release()
	blob, err := sk.Encoding(format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(cfg.OutPath, blob, 0o600); err != nil {
		return err
	}
	lg.Info("key pair generated", "set", id, "out", cfg.OutPath)
	return nil
}

func runPub(cfg *config, stdout io.Writer) error {
	format, _ := parseFormat(cfg.Format)
	sk, err := loadPrivateKey(cfg.KeyPath)
	if err != nil {
		return err
	}
	defer sk.Release()
	blob, err := sk.PublicKey().Encoding(format)
	if err != nil {
		return err
	}
	if cfg.OutPath == "" {
		_, err = stdout.Write(blob)
		return err
	}
	return os.WriteFile(cfg.OutPath, blob, 0o644)
}

func runSign(cfg *config, lg *log.Logger) error {
	sk, err := loadPrivateKey(cfg.KeyPath)
	if err != nil {
		return err
	}
	defer sk.Release()
	msg, err := os.ReadFile(cfg.InPath)
	if err != nil {
		return err
	}
	sig, err := sk.Sign(nil, msg, nil)
	if err != nil {
		return err
	}
	if err := os.WriteFile(cfg.OutPath, sig, 0o644); err != nil {
		return err
	}
	lg.Info("message signed", "set", sk.ParamSet().Name, "in", cfg.InPath, "bytes", len(sig))
	return nil
}

func runVerify(cfg *config, stdout io.Writer) error {
	pk, err := loadPublicKey(cfg.PubPath)
	if err != nil {
		return err
	}
	msg, err := os.ReadFile(cfg.InPath)
	if err != nil {
		return err
	}
	sig, err := os.ReadFile(cfg.SigPath)
	if err != nil {
		return err
	}
	if err := pk.VerifyErr(msg, sig); err != nil {
		return fmt.Errorf("%w: %w", errVerify, err)
	}
	fmt.Fprintln(stdout, "OK")
	return nil
}

func runFingerprint(cfg *config, stdout io.Writer) error {
	t, _ := parseFingerprint(cfg.Fingerprint)
	var pk *bliss.PublicKey
	if cfg.PubPath != "" {
		var err error
		if pk, err = loadPublicKey(cfg.PubPath); err != nil {
			return err
		}
	} else {
		sk, err := loadPrivateKey(cfg.KeyPath)
		if err != nil {
			return err
		}
		defer sk.Release()
		pk = sk.PublicKey()
	}
	fp, err := pk.Fingerprint(t)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, hex.EncodeToString(fp))
	return nil
}
