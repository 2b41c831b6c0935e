// Package cache provides a byte cache for upstream API responses.
//
// Cache has an in-memory implementation and a Redis implementation. Loader
// wraps either one as a read-through cache: hits skip the upstream call,
// misses load and store, load errors are never cached, and backend
// failures degrade to a direct load after being passed to an error hook.
package cache
