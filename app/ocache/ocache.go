package ocache

import (
	"errors"
	"sync"

	"github.com/deltapad/go-deltapad/app/logger"
)

var (
	ErrClosed    = errors.New("object cache closed")
	ErrExists    = errors.New("object exists")
	ErrNotExists = errors.New("object not exists")
)

var log = logger.NewNamed("ocache")

// Object is a cached value with a lifecycle; it is closed when removed
// from the cache or when the cache itself closes
type Object interface {
	Close() (err error)
}

type OCache interface {
	// Add puts an object under id, ErrExists when the id is taken
	Add(id string, obj Object) error
	// Get returns the object under id or ErrNotExists
	Get(id string) (Object, error)
	// Remove closes and removes the object under id
	Remove(id string) (ok bool, err error)
	// ForEach iterates over all objects until f returns false
	ForEach(f func(id string, obj Object) (isContinue bool))
	Len() int
	// Close closes all objects and rejects further operations
	Close() error
}

func New() OCache {
	return &oCache{
		data: make(map[string]Object),
	}
}

type oCache struct {
	mu     sync.Mutex
	data   map[string]Object
	closed bool
}

func (c *oCache) Add(id string, obj Object) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if _, ok := c.data[id]; ok {
		return ErrExists
	}
	c.data[id] = obj
	return nil
}

func (c *oCache) Get(id string) (Object, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	obj, ok := c.data[id]
	if !ok {
		return nil, ErrNotExists
	}
	return obj, nil
}

func (c *oCache) Remove(id string) (ok bool, err error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false, ErrClosed
	}
	obj, ok := c.data[id]
	if ok {
		delete(c.data, id)
	}
	c.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, obj.Close()
}

func (c *oCache) ForEach(f func(id string, obj Object) (isContinue bool)) {
	c.mu.Lock()
	snapshot := make(map[string]Object, len(c.data))
	for id, obj := range c.data {
		snapshot[id] = obj
	}
	c.mu.Unlock()
	for id, obj := range snapshot {
		if !f(id, obj) {
			return
		}
	}
}

func (c *oCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

func (c *oCache) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.closed = true
	objects := make([]Object, 0, len(c.data))
	for _, obj := range c.data {
		objects = append(objects, obj)
	}
	c.data = nil
	c.mu.Unlock()
	for _, obj := range objects {
		if err := obj.Close(); err != nil {
			log.Warn("object close error")
		}
	}
	return nil
}
