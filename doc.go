// Package lesspipe compiles Less stylesheets into CSS with a self-contained
// source map, ready to be written next to the output file.
//
// # Quick Start
//
//	r := lesspipe.NewRenderer()
//	res, err := r.Render(ctx, source, lesspipe.Options{
//	    From: "styles/site.less",
//	    To:   "public/site.css",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("public/site.css", []byte(res.CSS), 0o644)
//	os.WriteFile("public/site.css.map", []byte(res.Map), 0o644)
//
// # Rendering Pipeline
//
// Each render runs these stages in order:
//
//  1. Compilation via the lessc command line compiler, with an external map
//  2. Vendor prefixing via esbuild (only when Options.Prefix is set)
//  3. Minification via esbuild (only when Options.Minify is set)
//  4. Map sanitation: sources relative to Options.Base, sourcesContent inlined
//  5. A sourceMappingURL comment pointing at basename(To) + ".map"
//
// Every post-processing stage chains its map onto the previous one, so the
// final map always points back into the Less sources.
//
// # Error Display
//
// With Options.EmbedErrors, a failing render does not return an error.
// It returns a stylesheet that shows the error text in a banner at the top of
// the page, and an empty map:
//
//	res, _ := r.Render(ctx, source, lesspipe.Options{
//	    From:        "site.less",
//	    To:          "site.css",
//	    EmbedErrors: true,
//	})
//
// Invalid options are always returned as errors.
//
// # Configuration
//
// Use functional options to customize the renderer:
//
//	r := lesspipe.NewRenderer(
//	    lesspipe.WithLesscBinary("/usr/local/bin/lessc"),
//	    lesspipe.WithTimeout(time.Minute),
//	    lesspipe.WithLogger(logger),
//	)
//
// # Compiler Requirements
//
// Compilation requires the lessc binary (npm install -g less) on PATH,
// or a path given with WithLesscBinary.
package lesspipe
