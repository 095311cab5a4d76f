package bliss

import (
	"errors"
)

// Errors returned by this package. Callers should test for them with
// errors.Is, since most are wrapped with additional context.
var (
	// The random source failed to deliver the requested bytes.
	ErrRandomness = errors.New("Random source failure")

	// The seed expander could not produce the requested bits.
	ErrExpander = errors.New("Seed expander failure")

	// No parameter set matches the requested identifier or OID.
	ErrUnknownParamSet = errors.New("Unknown BLISS parameter set")

	// A parameter set is internally inconsistent.
	ErrInvalidParamSet = errors.New("Invalid BLISS parameter set")

	// Key generation exhausted its trial budget.
	ErrKeyGenTrials = errors.New("Secret key generation failed after too many trials")

	// A serialized key could not be decoded.
	ErrInvalidEncoding = errors.New("Invalid BLISS key encoding")

	// A signature could not be decoded or is not valid.
	ErrInvalidSignature = errors.New("Invalid BLISS signature")

	// The key has been released and its secret material wiped.
	ErrKeyReleased = errors.New("BLISS key has been released")

	// A pre-hash function was requested; BLISS hashes the message
	// itself with SHA-512.
	ErrUnsupportedHash = errors.New("BLISS does not support pre-hashed messages")
)
