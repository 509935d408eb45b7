// Package interceptors provides the standard middleware attached to operation
// stacks by generated clients.
//
// Each middleware targets one step:
//
//	Initialize:  URLPath, URLHost, IdempotencyToken, Tracing
//	Serialize:   ContentType, Body, Headers, QueryItems
//	Build:       Endpoint, MutateHeaders, ContentMD5, Compression
//	Finalize:    Retry, Signing, ContentLength
//	Deserialize: Logger, Deserialize
//
// Middleware only capture configuration at construction time and are safe to
// share between concurrent executions of the same stack.
package interceptors
