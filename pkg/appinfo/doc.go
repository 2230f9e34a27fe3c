// Package appinfo supplies the device and app metadata the SDK reports to
// the backend.
//
// The host describes itself through a Source. Static wraps a fixed Metadata
// value and LoadYAML reads one from a file, which is how the CLI and server
// side hosts configure the SDK. When the host has no stable device
// identifier, EnsureDeviceID generates one and keeps it in storage so every
// launch reports the same vendor id.
package appinfo
