//go:build noswagger

package httpapi

import (
	"github.com/go-chi/chi/v5"
)

// MountSwagger is a no-op in -tags=noswagger builds.
func MountSwagger(r chi.Router) {}
