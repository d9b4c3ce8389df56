package definition

import (
	"embed"
	"io/fs"
	"sync"
)

//go:embed steps/*.yaml
var embeddedSteps embed.FS

var (
	defaultOnce  sync.Once
	defaultStore *Store
	defaultErr   error
)

// EmbeddedFS returns the bundled flow documents.
func EmbeddedFS() fs.FS {
	sub, err := fs.Sub(embeddedSteps, "steps")
	if err != nil {
		panic(err)
	}
	return sub
}

// Default returns the store parsed from the bundled documents.
func Default() (*Store, error) {
	defaultOnce.Do(func() {
		defaultStore, defaultErr = LoadFS(EmbeddedFS())
	})
	return defaultStore, defaultErr
}
