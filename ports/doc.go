// Package ports defines the wire-level boundary between the operation pipeline
// and the transport engines.
//
// A [Transport] is implemented by network engines (HTTP, NATS, WebSocket) and
// called by the last step of an operation stack. The same signature is used on
// the serving side, where adapters expose a Transport as a server endpoint.
package ports
