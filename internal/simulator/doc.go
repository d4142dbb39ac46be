// Package simulator models a long-running job whose reported state is a
// pure function of elapsed time.
//
// A [Job] never mutates itself: progress and the terminal flip are derived
// from the injected clock on every read, so tests can drive it by advancing
// a fake clock instead of sleeping.
package simulator
