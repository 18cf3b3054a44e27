package classfile

import (
	"fmt"
	"sort"
	"sync"
)

var (
	codecsMu sync.RWMutex
	codecs   = make(map[string]Codec)
)

// Register makes a codec available under its name. It is intended to be
// called from a codec package's init function, the same way database drivers
// register themselves. Register panics if the name is empty or already taken.
func Register(c Codec) {
	codecsMu.Lock()
	defer codecsMu.Unlock()

	name := c.Name()
	if name == "" {
		panic("classfile: Register with empty codec name")
	}
	if _, dup := codecs[name]; dup {
		panic("classfile: Register called twice for codec " + name)
	}
	codecs[name] = c
}

// Lookup returns the codec registered under name.
func Lookup(name string) (Codec, error) {
	codecsMu.RLock()
	defer codecsMu.RUnlock()

	c, ok := codecs[name]
	if !ok {
		return nil, fmt.Errorf("unknown codec %q (registered: %v)", name, namesLocked())
	}
	return c, nil
}

// Names returns the registered codec names in sorted order.
func Names() []string {
	codecsMu.RLock()
	defer codecsMu.RUnlock()
	return namesLocked()
}

func namesLocked() []string {
	names := make([]string, 0, len(codecs))
	for name := range codecs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
