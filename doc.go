// Package main provides the entry point of the digital profile authentication service.
// It serves the staff and citizen authentication APIs over Fiber, persists principals
// and reset codes through gorm and signs HS256 tokens whose revocations are kept in a
// configurable blacklist.
package main
