// Command fxhost runs vfxgo effect plugins headlessly: it describes their
// panels, drives them through frames on a recording backend and manages
// their presets.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}
