// Package pipeline implements the stages of the stylesheet render pipeline.
//
// Each stage takes a Stylesheet (generated CSS paired with its source map)
// and returns a new one:
//   - Less compilation via the lessc command line compiler
//   - Vendor prefixing via esbuild, targeting a list of browsers
//   - Minification via esbuild
//   - Source map sanitation (rebasing sources, embedding their content)
//   - Source mapping comment injection
//
// Sequencing, option handling and the error fallback live in the root
// lesspipe package. This separation keeps every stage testable on its own,
// with fakes standing in for the external compiler.
package pipeline
