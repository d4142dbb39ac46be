// Package server provides the HTTP front end of the job simulator.
//
// This package is internal to jobwatch and handles all HTTP concerns of the
// simulated backend: a single JSON read endpoint at "/status" and graceful
// shutdown via context cancellation, with a 5-second timeout for in-flight
// requests.
//
// The server is started by the "jobwatch simulate" command.
package server
