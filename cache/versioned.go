package cache

import "fmt"

// Versioned caches one value under a version-suffixed key. Invalidation bumps
// the version counter instead of deleting: readers always compute the current
// key first, so a write racing an invalidation leaves the old version
// unreachable rather than half-updated.
type Versioned struct {
	client     Client
	key        string
	versionKey string
	load       func() (any, error)
}

func NewVersioned(client Client, key string, load func() (any, error)) *Versioned {
	v := &Versioned{
		client:     client,
		key:        key,
		versionKey: key + "_version",
		load:       load,
	}
	if _, ok := client.Get(v.versionKey); !ok {
		client.Set(v.versionKey, int64(1), 0)
	}
	return v
}

func (v *Versioned) currentKey() string {
	version, ok := v.client.Get(v.versionKey)
	n, isInt := version.(int64)
	if !ok || !isInt {
		n = 1
	}
	return fmt.Sprintf("%s_v%d", v.key, n)
}

// Get returns the cached value for the current version, loading and storing
// it on a miss.
func (v *Versioned) Get() (any, error) {
	key := v.currentKey()
	if value, ok := v.client.Get(key); ok {
		return value, nil
	}

	value, err := v.load()
	if err != nil {
		return nil, err
	}
	v.client.Set(key, value, 0)
	return value, nil
}

// Invalidate bumps the version; stale entries simply become unreachable.
func (v *Versioned) Invalidate() {
	v.client.Incr(v.versionKey)
}
