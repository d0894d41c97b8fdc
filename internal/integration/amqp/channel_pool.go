package amqp

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/streadway/amqp"
)

var errPoolClosed = errors.New("integration/amqp: channel pool is closed")

// pooledChannel is a channel borrowed from the pool. It must be released
// after use.
type pooledChannel struct {
	*amqp.Channel

	p        *channelPool
	mu       sync.Mutex
	unusable bool
}

// channelPool holds a set of re-usable channels on a single connection.
type channelPool struct {
	mu    sync.RWMutex
	chans chan *amqp.Channel
	conn  *amqp.Connection
}

func newChannelPool(size int, url string) (*channelPool, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, errors.Wrap(err, "integration/amqp: dial error")
	}

	p := &channelPool{
		chans: make(chan *amqp.Channel, size),
		conn:  conn,
	}

	for i := 0; i < size; i++ {
		ch, err := conn.Channel()
		if err != nil {
			p.close()
			return nil, errors.Wrap(err, "integration/amqp: create channel error")
		}
		p.chans <- ch
	}

	return p, nil
}

func (p *channelPool) get() (*pooledChannel, error) {
	p.mu.RLock()
	chans, conn := p.chans, p.conn
	p.mu.RUnlock()

	if chans == nil {
		return nil, errPoolClosed
	}

	select {
	case ch, ok := <-chans:
		if !ok {
			return nil, errPoolClosed
		}
		return &pooledChannel{Channel: ch, p: p}, nil
	default:
		ch, err := conn.Channel()
		if err != nil {
			return nil, errors.Wrap(err, "integration/amqp: create channel error")
		}
		return &pooledChannel{Channel: ch, p: p}, nil
	}
}

func (p *channelPool) put(ch *amqp.Channel) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.chans == nil {
		return ch.Close()
	}

	select {
	case p.chans <- ch:
		return nil
	default:
		return ch.Close()
	}
}

func (p *channelPool) close() error {
	p.mu.Lock()
	chans, conn := p.chans, p.conn
	p.chans = nil
	p.conn = nil
	p.mu.Unlock()

	if chans == nil {
		return nil
	}

	close(chans)
	for ch := range chans {
		ch.Close()
	}

	return conn.Close()
}

// release returns the channel to the pool, or closes it when it was marked
// unusable.
func (pc *pooledChannel) release() error {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	if pc.unusable {
		return pc.Channel.Close()
	}
	return pc.p.put(pc.Channel)
}

// markUnusable must be called after a channel error, the channel is then
// closed on release.
func (pc *pooledChannel) markUnusable() {
	pc.mu.Lock()
	pc.unusable = true
	pc.mu.Unlock()
}
