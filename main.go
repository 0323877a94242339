// The main package for the website-scraper executable.
package main

import (
	"github.com/VikramTiwari/website-scraper/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
