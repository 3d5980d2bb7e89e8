package asset

import "errors"

var (
	// ErrDeserialize is returned when an asset type rejects its bytes.
	ErrDeserialize = errors.New("deserialize failed")

	// ErrNotLoaded is returned by Get when the key has no cached object.
	ErrNotLoaded = errors.New("asset not loaded")

	// ErrTypeMismatch is returned when the cached object under a key has a
	// different type than the one requested.
	ErrTypeMismatch = errors.New("asset type mismatch")

	// ErrNoResolver is returned by LoadKey on a manager without a Resolver.
	ErrNoResolver = errors.New("no resolver configured")
)
