package detector

import (
	"errors"
	"os"
	"path/filepath"
)

// Model file names.
const (
	FrontalFaceCascade = "haarcascade_frontalface_default.xml"
	PigoFaceFinder     = "facefinder"
)

// ErrCascadeNotFound is returned when no cascade file could be located.
var ErrCascadeNotFound = errors.New("cascade file not found")

// ErrCascadeLoad is returned when a cascade file exists but cannot be parsed.
var ErrCascadeLoad = errors.New("failed to load cascade")

// cascadeDirs lists the directories searched for model files, in order.
// OpenCV installs its Haar cascades under share/opencv4/haarcascades.
func cascadeDirs() []string {
	var execDir string
	if execPath, err := os.Executable(); err == nil {
		execDir = filepath.Dir(execPath)
	}

	return []string{
		"models",
		"data",
		"../models",
		filepath.Join(execDir, "models"),
		filepath.Join(os.Getenv("HOME"), ".skintone/models"),
		"/usr/local/share/opencv4/haarcascades",
		"/usr/share/opencv4/haarcascades",
		"/opt/homebrew/share/opencv4/haarcascades",
		"/usr/share/opencv/haarcascades",
	}
}

// FindCascade resolves a model file. An explicit path is returned as is when
// it exists; otherwise name is searched for in the well-known directories.
func FindCascade(explicit, name string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", errors.Join(ErrCascadeNotFound, err)
		}
		return explicit, nil
	}

	for _, dir := range cascadeDirs() {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			if abs, err := filepath.Abs(path); err == nil {
				return abs, nil
			}
			return path, nil
		}
	}
	return "", ErrCascadeNotFound
}
