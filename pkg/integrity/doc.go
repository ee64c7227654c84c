// Package integrity attaches a content digest to structured messages and
// verifies it on receipt, over plain TCP connections.
//
// A message is a JSON envelope:
//
//	{"header":{"type":"transaction","hash":"<sha256 hex>","from":"127.0.0.1"},"body":{...}}
//
// The hash covers the exact body bytes carried on the wire. Messages travel
// as newline-delimited frames and every frame is answered with an Ack frame,
// so one connection can carry any number of messages.
//
// The package also serves a hash oracle: an endpoint that answers every
// chunk of raw bytes it receives with the hex digest of that chunk.
//
// There is no signing key, no peer authentication and no replay
// protection. The digest detects corruption and naive tampering only.
package integrity
