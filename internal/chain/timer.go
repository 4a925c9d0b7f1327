package chain

import "time"

type timer interface {
	Stop() bool
}

type afterFunc func(d time.Duration, f func()) timer

func realAfterFunc(d time.Duration, f func()) timer {
	return time.AfterFunc(d, f)
}

var closedChan = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// counter tracks outstanding work and exposes a channel closed when it drops
// to zero. It is guarded by the owner's mutex.
type counter struct {
	n    int
	zero chan struct{}
}

func (c *counter) add() {
	if c.n == 0 {
		c.zero = make(chan struct{})
	}
	c.n++
}

func (c *counter) done() {
	c.n--
	if c.n == 0 {
		close(c.zero)
		c.zero = nil
	}
}

func (c *counter) wait() <-chan struct{} {
	if c.n == 0 {
		return closedChan
	}
	return c.zero
}
