package random

import (
	"bufio"
	crand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand/v2"
	"sync"

	"github.com/neomorfeo/hexgen/internal/domain"
)

// Compile-time checks: every source implements domain.RandomSource.
var (
	_ domain.RandomSource = globalSource{}
	_ domain.RandomSource = (*rand.Rand)(nil)
	_ domain.RandomSource = (*CryptoSource)(nil)
)

// globalSource draws from the math/rand/v2 top-level generator, which is
// seeded randomly at process start and safe for concurrent use.
type globalSource struct{}

func (globalSource) Uint64() uint64 { return rand.Uint64() }

// NewDefault returns an unseeded source. Output differs between runs.
func NewDefault() domain.RandomSource {
	return globalSource{}
}

// NewSeeded returns a PCG source whose output is fully determined by seed.
// It is not safe for concurrent use.
func NewSeeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// FromSeed returns NewSeeded(*seed) when seed is set, NewDefault otherwise.
func FromSeed(seed *uint64) domain.RandomSource {
	if seed == nil {
		return NewDefault()
	}
	return NewSeeded(*seed)
}

// CryptoSource reads from crypto/rand through a buffer.
type CryptoSource struct {
	mu  sync.Mutex
	r   *bufio.Reader
	buf [8]byte
}

// NewCrypto returns a source backed by the operating system CSPRNG.
func NewCrypto() *CryptoSource {
	return &CryptoSource{r: bufio.NewReaderSize(crand.Reader, 4096)}
}

// Uint64 panics if the system random source fails, which crypto/rand
// documents as unrecoverable.
func (s *CryptoSource) Uint64() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := io.ReadFull(s.r, s.buf[:]); err != nil {
		panic("random: crypto/rand failed: " + err.Error())
	}
	return binary.LittleEndian.Uint64(s.buf[:])
}

// ByName resolves a source name from configuration. An empty name or
// "default" yields FromSeed(seed); "crypto" ignores the seed.
func ByName(name string, seed *uint64) (domain.RandomSource, error) {
	switch name {
	case "", "default":
		return FromSeed(seed), nil
	case "crypto":
		return NewCrypto(), nil
	default:
		return nil, &domain.ValidationError{Field: "source", Reason: "unknown source " + name}
	}
}
