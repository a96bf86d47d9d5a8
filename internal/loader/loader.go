// Package loader fetches remote datasets. When several loads target the same
// key, the most recently started one wins and older results are discarded.
package loader

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/jengzang/tableviz/internal/logger"
)

// ErrSuperseded is returned by a load whose result was discarded because a
// newer load for the same key started while it was in flight
var ErrSuperseded = errors.New("load superseded by a newer load")

// ErrFetchFailed wraps every error of the fetch step, as opposed to errors
// returned by the commit
var ErrFetchFailed = errors.New("failed to load")

// CommitFunc installs fetched text. It runs under the loader lock and must not
// call back into the Loader.
type CommitFunc func(text string) error

// Loader runs asynchronous dataset loads with last-load-wins semantics
type Loader struct {
	fetcher Fetcher
	group   singleflight.Group
	log     zerolog.Logger

	mu   sync.Mutex
	gens map[string]uint64
}

// New returns a loader using fetcher
func New(fetcher Fetcher) *Loader {
	return &Loader{
		fetcher: fetcher,
		log:     logger.Get("loader"),
		gens:    make(map[string]uint64),
	}
}

// Supersede marks every in-flight load for key as stale and returns the new
// generation
func (l *Loader) Supersede(key string) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.gens[key]++
	return l.gens[key]
}

// Forget drops the generation counter of key, superseding any in-flight load
func (l *Loader) Forget(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.gens, key)
}

// Load fetches url and passes the text to commit, unless a newer Load or
// Supersede for key happened in the meantime, in which case it returns
// ErrSuperseded and commit is not called. Concurrent fetches of the same url
// share one request.
func (l *Loader) Load(ctx context.Context, key, url string, commit CommitFunc) error {
	gen := l.Supersede(key)

	ch := l.group.DoChan(url, func() (interface{}, error) {
		// shared by every caller waiting on url, so no single caller may cancel it
		return l.fetcher.Fetch(context.WithoutCancel(ctx), url)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		l.log.Warn().Err(res.Err).Str("key", key).Str("url", url).Msg("Load failed")
		return fmt.Errorf("%w %s: %w", ErrFetchFailed, url, res.Err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.gens[key] != gen {
		l.log.Debug().Str("key", key).Uint64("generation", gen).Msg("Discarding superseded load")
		return ErrSuperseded
	}
	if err := commit(res.Val.(string)); err != nil {
		return err
	}
	l.log.Info().Str("key", key).Str("url", url).Bool("shared", res.Shared).Msg("Dataset loaded")
	return nil
}
