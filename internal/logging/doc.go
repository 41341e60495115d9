// Package logging provides concrete implementations of the dvload.Logger
// interface plus the console styles shared by migration reports.
package logging
