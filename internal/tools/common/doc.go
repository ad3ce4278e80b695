// Package common provides the pieces every tool handler shares: the
// instrumentation wrapper, error results that keep their error kind, and
// extraction of the call target for audit records.
package common
