package utils

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gosimple/slug"
)

// EnsureUploadDir creates the roster archive directory if it doesn't exist
func EnsureUploadDir() error {
	return os.MkdirAll(filepath.Join("uploads", "rosters"), os.ModePerm)
}

// SaveFile saves the uploaded file to the given destination path
func SaveFile(fileHeader *multipart.FileHeader, destPath string) error {
	dir := filepath.Dir(destPath)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return err
	}

	file, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	dst, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, file)
	return err
}

// RosterArchivePath returns the local archive path for a raw roster file,
// keyed by report date plus a slug of the operator's filename.
func RosterArchivePath(reportDate, originalName string) string {
	base := strings.TrimSuffix(originalName, filepath.Ext(originalName))
	name := fmt.Sprintf("%s-%s.csv", reportDate, slug.Make(base))
	return filepath.Join("uploads", "rosters", name)
}
