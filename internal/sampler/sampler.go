// Package sampler draws and orders the questions for one round.
package sampler

import (
	"math/rand"
	"strings"
	"sync"
	"time"
)

// MaxScrambleAttempts bounds how often Scramble reshuffles a word that came
// out unchanged.
const MaxScrambleAttempts = 10

// Sampler wraps a random source. It is safe for concurrent use.
type Sampler struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func New(seed int64) *Sampler {
	return &Sampler{rnd: rand.New(rand.NewSource(seed))}
}

func NewRandom() *Sampler {
	return New(time.Now().UnixNano())
}

// Intn returns a uniform integer in [0, n).
func (s *Sampler) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Intn(n)
}

// Perm returns a Fisher-Yates permutation of [0, n).
func (s *Sampler) Perm(n int) []int {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := n - 1; i > 0; i-- {
		j := s.rnd.Intn(i + 1)
		p[i], p[j] = p[j], p[i]
	}
	return p
}

// Sample returns min(n, len(pool)) distinct elements of pool in random order.
func Sample[T any](s *Sampler, pool []T, n int) []T {
	if n < 0 {
		n = 0
	}
	if n > len(pool) {
		n = len(pool)
	}
	perm := s.Perm(len(pool))
	out := make([]T, n)
	for i := 0; i < n; i++ {
		out[i] = pool[perm[i]]
	}
	return out
}

// Scramble returns the letters of word in an order that differs from word,
// ignoring case. After MaxScrambleAttempts unlucky shuffles the letters are
// rotated by one instead; words made of a single repeated letter come back
// unchanged.
func (s *Sampler) Scramble(word string) []string {
	letters := strings.Split(word, "")
	scrambled := s.shuffled(letters)
	for tries := 0; tries < MaxScrambleAttempts && sameWord(scrambled, word); tries++ {
		scrambled = s.shuffled(letters)
	}
	if sameWord(scrambled, word) && len(letters) > 1 {
		scrambled = append(append([]string{}, letters[1:]...), letters[0])
	}
	return scrambled
}

// ShuffleOptions reorders options and returns the index the answer moved to.
func (s *Sampler) ShuffleOptions(options []string, answer int) ([]string, int) {
	perm := s.Perm(len(options))
	out := make([]string, len(options))
	moved := answer
	for i, from := range perm {
		out[i] = options[from]
		if from == answer {
			moved = i
		}
	}
	return out, moved
}

func (s *Sampler) shuffled(letters []string) []string {
	perm := s.Perm(len(letters))
	out := make([]string, len(letters))
	for i, from := range perm {
		out[i] = letters[from]
	}
	return out
}

func sameWord(letters []string, word string) bool {
	return strings.EqualFold(strings.Join(letters, ""), word)
}
