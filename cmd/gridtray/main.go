// GridTray generates Gridfinity-style storage trays: an OpenSCAD script, an
// SVG preview and, when OpenSCAD is installed, a binary STL mesh.
//
// Build:
//
//	go build -ldflags "-X main.Version=$(git describe --tags)" -o gridtray ./cmd/gridtray
//
// Serve the web form:
//
//	gridtray serve --config gridtray.yaml
//
// Generate from the command line:
//
//	gridtray generate --cols 2 --rows 1 --cell 42 --wall 2 --height 20 --out out --stl
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
