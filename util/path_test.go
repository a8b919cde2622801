package util

import (
	"path/filepath"
	"testing"
)

func TestExpandHome(t *testing.T) {
	// Arrange
	t.Setenv("HOME", "/home/mapper")

	// Act & Assert
	path, err := ExpandHome("~/arcgis_project/map.html")
	AssertNil(t, err)
	AssertEqual(t, filepath.Join("/home/mapper", "arcgis_project/map.html"), path)

	path, err = ExpandHome("~")
	AssertNil(t, err)
	AssertEqual(t, "/home/mapper", path)
}

func TestExpandHome_untouchedPaths(t *testing.T) {
	// Act & Assert
	path, err := ExpandHome("/tmp/map.html")
	AssertNil(t, err)
	AssertEqual(t, "/tmp/map.html", path)

	path, err = ExpandHome("relative/~/map.html")
	AssertNil(t, err)
	AssertEqual(t, "relative/~/map.html", path)
}
