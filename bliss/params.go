package bliss

import (
	"encoding/asn1"
	"fmt"
	"math/bits"
	"sync"
)

// Identifier of a BLISS parameter set. The numeric values match the
// "BLISS-<roman numeral>" naming of the original scheme.
type ParamSetID uint8

const (
	BLISS_I   ParamSetID = 1
	BLISS_III ParamSetID = 3
	BLISS_IV  ParamSetID = 4
)

func (id ParamSetID) String() string {
	switch id {
	case BLISS_I:
		return "BLISS-I"
	case BLISS_III:
		return "BLISS-III"
	case BLISS_IV:
		return "BLISS-IV"
	default:
		return fmt.Sprintf("BLISS-%d", uint8(id))
	}
}

// Object identifiers (strongSwan arc).
var (
	OID_BLISS_PUBLICKEY = asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 36906, 7, 1}
	OID_BLISS_I         = asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 36906, 7, 2, 1}
	OID_BLISS_III       = asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 36906, 7, 2, 3}
	OID_BLISS_IV        = asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 36906, 7, 2, 4}
)

// ParamSet describes one BLISS parameter set. Instances obtained from a
// Registry are shared and must not be modified.
type ParamSet struct {
	ID       ParamSetID
	Name     string
	OID      asn1.ObjectIdentifier
	Strength uint // security strength class, in bits

	Q     uint32 // ring modulus
	Q2Inv uint32 // 2^-1 mod q, so 2*Q2Inv maps Z_q into the even residues of Z_2q
	N     int    // ring degree
	NBits uint   // log2(N)

	NonZero1 int    // coefficients of f (and g) equal to +/-1
	NonZero2 int    // coefficients of f (and g) equal to +/-2
	Kappa    int    // challenge weight
	NksMax   uint32 // bound on the Nk(S) norm of accepted secret keys

	Sigma      uint32 // standard deviation of the signature Gaussian
	KSigma     uint32 // k*sigma2 with sigma2 = sqrt(1/(2 ln 2))
	KSigmaBits uint   // bit length of KSigma-1
	Z1Bits     uint   // bits per z1 coefficient in an encoded signature

	D uint   // dropped bits of u
	P uint32 // modulus of compressed values, 2q >> d
	M uint32 // repetition rate constant of the exp gate

	BInf int32 // bound on |z1| and |z2d << d|
	BL2  int64 // bound on ||z1||^2 + ||z2d << d||^2

	// Derived at registry construction.
	c      []byte // exp(-2^i/(2*sigma^2)) as 128-bit fractions, row i
	c_rows int
	ntt    *ntt
}

const c_cols = 16

// Largest value returned by the positive binary sampler.
const pos_binary_max = 16

// Standard parameter sets.
var std_param_sets = []ParamSet{
	{
		ID:         BLISS_I,
		Name:       "BLISS-I",
		OID:        OID_BLISS_I,
		Strength:   128,
		Q:          12289,
		Q2Inv:      6145,
		N:          512,
		NBits:      9,
		NonZero1:   154,
		NonZero2:   0,
		Kappa:      23,
		NksMax:     46479,
		Sigma:      215,
		KSigma:     254,
		KSigmaBits: 8,
		Z1Bits:     12,
		D:          10,
		P:          24,
		M:          46539,
		BInf:       2047,
		BL2:        12872 * 12872,
	},
	{
		ID:         BLISS_III,
		Name:       "BLISS-III",
		OID:        OID_BLISS_III,
		Strength:   160,
		Q:          12289,
		Q2Inv:      6145,
		N:          512,
		NBits:      9,
		NonZero1:   216,
		NonZero2:   16,
		Kappa:      30,
		NksMax:     128113,
		Sigma:      250,
		KSigma:     295,
		KSigmaBits: 9,
		Z1Bits:     12,
		D:          9,
		P:          48,
		M:          128626,
		BInf:       1760,
		BL2:        10206 * 10206,
	},
	{
		ID:         BLISS_IV,
		Name:       "BLISS-IV",
		OID:        OID_BLISS_IV,
		Strength:   192,
		Q:          12289,
		Q2Inv:      6145,
		N:          512,
		NBits:      9,
		NonZero1:   231,
		NonZero2:   31,
		Kappa:      39,
		NksMax:     244186,
		Sigma:      271,
		KSigma:     320,
		KSigmaBits: 9,
		Z1Bits:     12,
		D:          8,
		P:          96,
		M:          244669,
		BInf:       1613,
		BL2:        9901 * 9901,
	},
}

// StandardParamSets returns fresh copies of the BLISS-I, BLISS-III and
// BLISS-IV definitions, suitable as input to [NewRegistry].
func StandardParamSets() []ParamSet {
	r := make([]ParamSet, len(std_param_sets))
	copy(r, std_param_sets)
	return r
}

// Number of bits used to encode one z2d coefficient.
func (ps *ParamSet) z2d_bits() uint {
	return uint(bits.Len32(ps.P - 1))
}

// SignatureSize returns the size in bytes of an encoded signature.
func (ps *ParamSet) SignatureSize() int {
	nb := ps.N*int(ps.Z1Bits) + ps.N*int(ps.z2d_bits()) + ps.Kappa*int(ps.NBits)
	return 1 + (nb+7)>>3
}

// PublicKeySize returns the size in bytes of the raw public key
// octets (two bytes per coefficient).
func (ps *ParamSet) PublicKeySize() int {
	return 2 * ps.N
}

// Check internal consistency and compute the derived tables.
func (ps *ParamSet) init() error {
	bad := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s: %s", ErrInvalidParamSet, ps.Name,
			fmt.Sprintf(format, args...))
	}
	if ps.Name == "" {
		ps.Name = ps.ID.String()
	}
	if len(ps.OID) == 0 {
		return bad("missing OID")
	}
	// The challenge hash draws 9-bit indices; other degrees are not
	// supported.
	if ps.N != 512 || ps.NBits != 9 {
		return bad("unsupported degree %d", ps.N)
	}
	if ps.Q < 3 || ps.Q >= 1<<15 || ps.Q%2 == 0 {
		return bad("invalid modulus %d", ps.Q)
	}
	if (2*ps.Q2Inv)%ps.Q != 1 {
		return bad("q2_inv %d is not the inverse of 2 mod %d", ps.Q2Inv, ps.Q)
	}
	if ps.NonZero1 < 0 || ps.NonZero2 < 0 || ps.NonZero1+ps.NonZero2 == 0 ||
		ps.NonZero1+ps.NonZero2 > ps.N {
		return bad("invalid sparsity %d/%d", ps.NonZero1, ps.NonZero2)
	}
	if ps.Kappa <= 0 || ps.Kappa > ps.N {
		return bad("invalid kappa %d", ps.Kappa)
	}
	if ps.NksMax == 0 || ps.M < ps.NksMax {
		return bad("M (%d) is lower than the Nk(S) bound (%d)", ps.M, ps.NksMax)
	}
	if ps.Sigma == 0 || ps.KSigma < 2 {
		return bad("invalid sigma")
	}
	if ps.KSigmaBits != uint(bits.Len32(ps.KSigma-1)) {
		return bad("k_sigma_bits %d does not match k_sigma %d", ps.KSigmaBits, ps.KSigma)
	}
	if ps.D == 0 || ps.D >= 15 || ps.P < 2 || ps.P != (2*ps.Q)>>ps.D {
		return bad("compression modulus %d does not match d = %d", ps.P, ps.D)
	}
	if ps.BInf <= 0 || ps.BL2 <= 0 {
		return bad("invalid norm bounds")
	}
	if ps.Z1Bits < 2 || ps.Z1Bits > 16 || int64(ps.BInf) >= int64(1)<<(ps.Z1Bits-1) {
		return bad("z1 field of %d bits cannot hold B_inf %d", ps.Z1Bits, ps.BInf)
	}

	// The exp table must cover the largest argument of the Gaussian
	// sampler, y*(y + 2*k_sigma*x), and the exp gate margin M - norm.
	k := ps.KSigma
	ymax := uint64(k-1) * (uint64(k-1) + 2*uint64(k)*pos_binary_max)
	xmax := uint64(ps.M)
	if ymax > xmax {
		xmax = ymax
	}
	if xmax >= 1<<31 {
		return bad("exp table too large")
	}
	ps.c_rows = bits.Len64(xmax)
	ps.c = exp_table(ps.Sigma, ps.c_rows, c_cols)

	t, err := new_ntt(ps.N, ps.Q)
	if err != nil {
		return bad("NTT setup: %v", err)
	}
	ps.ntt = t
	return nil
}

// Registry holds validated parameter sets, looked up by identifier or
// OID. It is read-only once built and may be shared between goroutines.
type Registry struct {
	sets  []*ParamSet
	byID  map[ParamSetID]*ParamSet
	byOID map[string]*ParamSet
}

// NewRegistry validates the provided parameter sets and returns a
// registry holding them. Identifiers and OIDs must be unique.
func NewRegistry(sets ...ParamSet) (*Registry, error) {
	r := &Registry{
		byID:  make(map[ParamSetID]*ParamSet),
		byOID: make(map[string]*ParamSet),
	}
	for i := range sets {
		ps := new(ParamSet)
		*ps = sets[i]
		ps.c = nil
		ps.ntt = nil
		if err := ps.init(); err != nil {
			return nil, err
		}
		if _, ok := r.byID[ps.ID]; ok {
			return nil, fmt.Errorf("%w: duplicate identifier %d",
				ErrInvalidParamSet, uint8(ps.ID))
		}
		key := ps.OID.String()
		if _, ok := r.byOID[key]; ok {
			return nil, fmt.Errorf("%w: duplicate OID %s",
				ErrInvalidParamSet, key)
		}
		r.sets = append(r.sets, ps)
		r.byID[ps.ID] = ps
		r.byOID[key] = ps
	}
	return r, nil
}

var (
	default_registry      *Registry
	default_registry_once sync.Once
)

// DefaultRegistry returns the registry of the standard parameter sets.
// It is built on first use.
func DefaultRegistry() *Registry {
	default_registry_once.Do(func() {
		r, err := NewRegistry(std_param_sets...)
		if err != nil {
			panic(err)
		}
		default_registry = r
	})
	return default_registry
}

// ByID returns the parameter set with the given identifier.
func (r *Registry) ByID(id ParamSetID) (*ParamSet, error) {
	ps, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownParamSet, id)
	}
	return ps, nil
}

// ByOID returns the parameter set with the given object identifier.
func (r *Registry) ByOID(oid asn1.ObjectIdentifier) (*ParamSet, error) {
	ps, ok := r.byOID[oid.String()]
	if !ok {
		return nil, fmt.Errorf("%w: OID %s", ErrUnknownParamSet, oid)
	}
	return ps, nil
}

// Sets returns the registered parameter sets, in registration order.
func (r *Registry) Sets() []*ParamSet {
	out := make([]*ParamSet, len(r.sets))
	copy(out, r.sets)
	return out
}
