package main

import "github.com/spf13/afero"

// fsys is the filesystem every file access goes through. Tests swap it
// for an in-memory backend.
var fsys = afero.Afero{Fs: afero.NewOsFs()}

func useOsFs() {
	fsys = afero.Afero{Fs: afero.NewOsFs()}
}

func useMemMapFs() {
	fsys = afero.Afero{Fs: afero.NewMemMapFs()}
}
