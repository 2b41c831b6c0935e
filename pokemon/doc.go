// Package pokemon is the sample "api" integration: an HTTP client for
// pokeapi, a read-through response cache and the GET /pokemon/{name} route.
//
// Upstream failures are reported to the "pokemon" health integration.
// Cache backend failures are reported to the optional "redis" integration
// and never fail the request.
package pokemon
