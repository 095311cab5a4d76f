// Package bliss implements the BLISS lattice-based signature scheme
// (Bimodal Lattice Signature Scheme, Ducas, Durmus, Lepoint and
// Lyubashevsky, CRYPTO 2013), with the BLISS-I, BLISS-III and BLISS-IV
// parameter sets.
//
// WARNING: BLISS is a research scheme. Its Gaussian sampler is known to
// be vulnerable to cache and branch-tracing side channels, and this
// implementation makes no attempt at constant-time processing. It is
// meant for interoperability tests and experiments, not for protecting
// real secrets.
//
// All arithmetic happens in the ring Z_q[x]/(x^n+1) with n = 512 and
// q = 12289. A secret key is a pair of sparse polynomials (s1, s2) with
// s1 = f and s2 = 2*g + 1, where f and g have a fixed number of
// coefficients equal to +/-1 and +/-2. The public key is the polynomial
// a with a*s1 + s2 = 0 mod q. Key generation rejects candidates whose
// Nk(S) norm exceeds the bound of the parameter set, and candidates for
// which s1 is not invertible modulo q.
//
// A new key pair is created with [GenerateKey] (or [Generate] with a
// [KeyConfig]), which takes the parameter set identifier and a source of
// randomness. If the source is nil, then the operating system's RNG is
// used (through crypto/rand.Reader). Keys are serialized with
// [PrivateKey.Encoding] and reloaded with [Load] or [ParsePrivateKey];
// both DER and PEM are accepted.
//
// [PrivateKey] implements [crypto.Signer]. The message is always hashed
// internally with SHA-512, so the opts argument of Sign must be nil or
// report a zero hash function. Signatures are checked with
// [PublicKey.Verify].
//
// Parameter sets live in a [Registry]. [DefaultRegistry] holds the
// three standard sets; custom registries can be built with
// [NewRegistry] and are validated when constructed.
package bliss
