package services

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// CaptchaService makes the small arithmetic question shown on the signup
// form. The answer goes into the session, the question onto the page.
type CaptchaService struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewCaptchaService() *CaptchaService {
	return &CaptchaService{
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Question returns e.g. "3 + 5" and 8. Subtractions never go negative.
func (s *CaptchaService) Question() (string, int) {
	s.mu.Lock()
	a, b, op := s.rnd.Intn(10), s.rnd.Intn(10), s.rnd.Intn(2)
	s.mu.Unlock()

	if op == 0 {
		return fmt.Sprintf("%d + %d", a, b), a + b
	}
	if a < b {
		a, b = b, a
	}
	return fmt.Sprintf("%d - %d", a, b), a - b
}
