// Package killswitch decides whether probes must fail without running any
// check. Operators flip it by creating a marker file.
package killswitch

import "os"

// Gate reports whether the kill switch is engaged.
type Gate interface {
	Active() bool
}

// Func adapts a plain function to a Gate.
type Func func() bool

func (f Func) Active() bool {
	return f()
}

// Off is a Gate that is never engaged.
var Off Gate = Func(func() bool { return false })

// File is engaged while a regular file exists at its path.
type File string

func (f File) Active() bool {
	if f == "" {
		return false
	}

	info, err := os.Stat(string(f))
	if err != nil {
		return false
	}

	return info.Mode().IsRegular()
}
