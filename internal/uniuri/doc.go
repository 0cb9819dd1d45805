// Package uniuri generates cryptographically secure random strings, used for temporary
// passwords handed out by admin resets and for throwaway secrets.
package uniuri
