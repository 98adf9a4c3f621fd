// Package handshake defines the cross-window message contract that carries
// the OAuth authorization result from the redirect callback page back to
// the window that initiated the connection.
//
// In a browser the popup posts a Message to its opener via postMessage and
// the opener forwards the code to the finish endpoint. The opener must
// register its listener before opening the popup, accept messages only from
// its own origin, and tear the listener down after the first terminal
// message. Outside a browser the same contract runs over a Listener: a
// one-shot channel guarded by an origin predicate, so tests and non-browser
// clients exercise the identical trust boundary.
package handshake
