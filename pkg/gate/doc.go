// Package gate owns the device session: the one-time authentication
// handshake and the identity the host attaches to the device.
//
// Start launches the handshake exactly once and every later call shares the
// same join handle; Wait blocks until it has completed. The handshake checks
// that the app declares a URI scheme, looks up when the backend last saw the
// device, authenticates, and then either adopts the identity the backend
// returns or pushes the one the host set while the handshake was running.
// Registered hooks run last, before waiters are released.
//
// A failed handshake still completes. HandshakeComplete then reports true
// while HasServerIdentity stays false, and operations that need a session
// should refuse to run.
//
// Identity setters push the new identity to the backend immediately once a
// session exists. Before that they only mark the identity as pending, and
// the handshake pushes it.
package gate
