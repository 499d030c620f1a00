// Package transport wraps the external ssh and scp binaries used to reach
// the target device.
//
// EnsureTools detects missing binaries once at startup; Client provides
// blocking Upload and Execute operations that fail on non-zero exit status;
// Quote makes interpolated path segments safe for the remote shell.
// Implementing the SSH protocol in-process is deliberately out of scope.
package transport
