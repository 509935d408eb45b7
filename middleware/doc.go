// Package middleware provides the operation pipeline used by every client
// operation.
//
// An operation is executed by a [Stack] made of five fixed steps:
//
//	Initialize  -> input preparation (path/host templating, idempotency tokens)
//	Serialize   -> typed input to *ports.RequestBuilder
//	Build       -> request mutation (endpoint, headers, checksums)
//	Finalize    -> last-mile completion (retries, signing, content length)
//	Deserialize -> wraps the transport and decodes the response
//
// Each [Step] holds an ordered list of [Middleware] composed onion style: the
// first middleware of the list is the outermost one. Middleware are inserted
// at setup time through the step interception API and the stack is sealed on
// its first execution.
//
// Per-call metadata travels in an [OperationContext] attached to the
// context.Context passed down the chain.
package middleware
