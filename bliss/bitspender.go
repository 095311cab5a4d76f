package bliss

import (
	"crypto/sha1"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"hash"
)

// Select the MGF1 hash function and the seed length from the security
// strength class: SHA-1 with 20-byte seeds up to 160 bits, SHA-256 with
// 32-byte seeds above. Key generation and signing must agree on this.
func mgf1_hash(strength uint) (func() hash.Hash, int) {
	if strength > 160 {
		return sha256.New, sha256.Size
	}
	return sha1.New, sha1.Size
}

// MGF1 mask generator (PKCS#1 v2.1, B.2.1): the output stream is
// H(seed || C) for C = 0, 1, 2... as a 32-bit big-endian counter.
type mgf1 struct {
	h         hash.Hash
	seed      []byte
	counter   uint32
	exhausted bool
	block     []byte
	off       int
}

func new_mgf1(newHash func() hash.Hash, seed []byte) *mgf1 {
	m := new(mgf1)
	m.h = newHash()
	m.seed = append([]byte(nil), seed...)
	m.block = make([]byte, 0, m.h.Size())
	return m
}

// Fill dst with the next bytes of the mask stream.
func (m *mgf1) read(dst []byte) error {
	for len(dst) > 0 {
		if m.off == len(m.block) {
			if m.exhausted {
				return fmt.Errorf("%w: MGF1 counter overflow", ErrExpander)
			}
			var ctr [4]byte
			binary.BigEndian.PutUint32(ctr[:], m.counter)
			m.h.Reset()
			m.h.Write(m.seed)
			m.h.Write(ctr[:])
			m.block = m.h.Sum(m.block[:0])
			m.off = 0
			m.counter++
			if m.counter == 0 {
				m.exhausted = true
			}
		}
		k := copy(dst, m.block[m.off:])
		m.off += k
		dst = dst[k:]
	}
	return nil
}

func (m *mgf1) wipe() {
	wipe_bytes(m.seed)
	wipe_bytes(m.block[:cap(m.block)])
	m.h.Reset()
}

// Bit spender over an MGF1 stream. Bits are taken from 32-bit
// big-endian words, most significant first; bytes are taken from a
// separate octet buffer refilled one hash output at a time. Both draw
// from the same underlying stream, so the output is fully determined
// by the seed and the sequence of calls.
type bitspender struct {
	src       *mgf1
	bits      uint32
	bits_left uint
	octets    []byte
	octet_off int
}

func new_bitspender(newHash func() hash.Hash, seed []byte) *bitspender {
	b := new(bitspender)
	b.src = new_mgf1(newHash, seed)
	b.octets = make([]byte, b.src.h.Size())
	b.octet_off = len(b.octets)
	return b
}

// Get the next n bits (0 to 32) as an unsigned integer.
func (b *bitspender) get_bits(n uint) (uint32, error) {
	if n > 32 {
		return 0, fmt.Errorf("%w: cannot spend %d bits at once", ErrExpander, n)
	}
	r := uint32(0)
	for n > 0 {
		if b.bits_left == 0 {
			var buf [4]byte
			if err := b.src.read(buf[:]); err != nil {
				return 0, err
			}
			b.bits = binary.BigEndian.Uint32(buf[:])
			b.bits_left = 32
		}
		k := n
		if k > b.bits_left {
			k = b.bits_left
		}
		b.bits_left -= k
		n -= k
		if k == 32 {
			r = b.bits
		} else {
			r = (r << k) | (b.bits >> b.bits_left)
		}
		if b.bits_left == 0 {
			b.bits = 0
		} else {
			b.bits &= 0xFFFFFFFF >> (32 - b.bits_left)
		}
	}
	return r, nil
}

// Get the next byte.
func (b *bitspender) get_byte() (byte, error) {
	if b.octet_off == len(b.octets) {
		if err := b.src.read(b.octets); err != nil {
			return 0, err
		}
		b.octet_off = 0
	}
	v := b.octets[b.octet_off]
	b.octet_off++
	return v, nil
}

func (b *bitspender) wipe() {
	b.src.wipe()
	wipe_bytes(b.octets)
	b.bits = 0
	b.bits_left = 0
}
