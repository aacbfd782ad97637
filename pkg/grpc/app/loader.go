package app

import (
	"net/url"
	"os"
	"sync"

	"github.com/pkg/errors"
)

// FileLoader loads the contents of a file addressed by URL, such as a TLS
// certificate or key
type FileLoader interface {
	Load(u *url.URL) ([]byte, error)
}

// FileLoaderCtor constructs a FileLoader.
type FileLoaderCtor func() (FileLoader, error)

var loaders = struct {
	sync.RWMutex
	byScheme map[string]FileLoaderCtor
}{
	byScheme: make(map[string]FileLoaderCtor),
}

func init() {
	RegisterFileLoaderCtor("", newLocalFileLoader)
	RegisterFileLoaderCtor("file", newLocalFileLoader)
}

// RegisterFileLoaderCtor registers a FileLoader for the URL scheme. It panics
// if the scheme already has one.
func RegisterFileLoaderCtor(scheme string, ctor FileLoaderCtor) {
	loaders.Lock()
	defer loaders.Unlock()

	if _, exists := loaders.byScheme[scheme]; exists {
		panic("file loader already registered for scheme '" + scheme + "'")
	}
	loaders.byScheme[scheme] = ctor
}

// LoadFile loads the file at fileURL with the loader registered for its
// scheme. Plain paths are read from the local filesystem.
func LoadFile(fileURL string) ([]byte, error) {
	u, err := url.Parse(fileURL)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid file url %s", fileURL)
	}

	loaders.RLock()
	ctor, exists := loaders.byScheme[u.Scheme]
	loaders.RUnlock()
	if !exists {
		return nil, errors.Errorf("no file loader for scheme '%s'", u.Scheme)
	}

	loader, err := ctor()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create loader for %s", fileURL)
	}
	return loader.Load(u)
}

type localFileLoader struct{}

func newLocalFileLoader() (FileLoader, error) {
	return localFileLoader{}, nil
}

func (localFileLoader) Load(u *url.URL) ([]byte, error) {
	path := u.Path
	if len(path) == 0 {
		path = u.Opaque
	}
	if len(path) == 0 {
		return nil, errors.New("empty file path")
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	return contents, nil
}
