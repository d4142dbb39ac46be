// Package poller implements the adaptive poll-until-terminal loop behind
// jobwatch.
//
// The main components are:
//
//   - [Client]: HTTP GET wrapper that never returns an error separately
//   - [Source]: one status query, failures normalized into [Sentinel]
//   - [Intervals]: backoff/decay interval selection with jitter
//   - [Loop]: drives Source and Intervals until a terminal status
//
// Users of the jobwatch library should not need to interact with this
// package directly. Configuration is done through the root jobwatch package.
package poller
