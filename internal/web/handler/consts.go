package handler

import "errors"

const (
	// APIPrefix is the prefix of every versioned endpoint.
	APIPrefix = "/api/v1"

	// RootPath is the root path of a route group.
	RootPath = "/"

	// ParamID is the path parameter holding a principal id.
	ParamID = "id"
)

// ErrNilDeps is returned by Init when a collaborator is missing.
var ErrNilDeps = errors.New("handler dependencies are incomplete")
