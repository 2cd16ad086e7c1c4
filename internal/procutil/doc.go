// Package procutil applies platform process settings to external tool
// invocations: no console window on Windows, and a polite termination signal
// where the platform has one.
package procutil
