// Package sourcemap reads, writes and chains version 3 source maps.
//
// Stylesheet transforms such as prefixing and minification emit a map from
// their output back to their input. When that input was itself generated (by
// the Less compiler, say), the transform's map must be composed with the map
// of the previous stage so positions keep pointing at the authored sources.
//
// Lookups into the previous map go through github.com/go-sourcemap/sourcemap;
// this package only owns the Base64 VLQ codec for the "mappings" field and the
// composition walk.
package sourcemap
