// Package cache persists typed values in a ports.BlobStore.
//
// A Cache pairs a key with a Codec. A Writer orders concurrent writes to the
// same key so that a value produced earlier never replaces one produced later.
package cache
