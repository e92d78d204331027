// Package middleware wraps a ports.RunStore with behaviour applied to every stored
// record: masking sensitive fields and sealing record payloads at rest.
package middleware

import "github.com/aretw0/wayfinder/pkg/ports"

// Middleware allows wrapping a RunStore to add behavior.
type Middleware func(ports.RunStore) ports.RunStore

// Chain applies middlewares so that the first one listed is the outermost.
func Chain(store ports.RunStore, mws ...Middleware) ports.RunStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
