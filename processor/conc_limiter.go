package processor

import (
	"sync"
)

// ConcLimiter caps the number of in-flight goroutines. Increase before
// spawning, Decrease when done, Wait for all of them.
type ConcLimiter struct {
	wg   sync.WaitGroup
	pool chan struct{}
}

func NewConcLimiter(cLevel int) *ConcLimiter {
	return &ConcLimiter{pool: make(chan struct{}, cLevel)}
}

func (c *ConcLimiter) Increase() {
	c.wg.Add(1)
	c.pool <- struct{}{}
}

func (c *ConcLimiter) Decrease() {
	<-c.pool
	c.wg.Done()
}

func (c *ConcLimiter) Wait() {
	c.wg.Wait()
}
