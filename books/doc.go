// Package books is the sample database integration: a POST /book endpoint
// backed by MongoDB whose failures feed the "mongodb" health integration.
package books
