package table

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/pierrec/lz4"
)

// unpackArchive decompresses gz, lz4 and zip uploads in memory and returns the
// inner file name with its content. Other files are returned untouched.
func unpackArchive(fileName string, data []byte) (string, []byte, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".zip":
		return unpackZipArchive(data)
	case ".gz":
		return unpackGzipArchive(fileName, data)
	case ".lz4":
		return unpackLZ4Archive(fileName, data)
	}
	return fileName, data, nil
}

// unpackZipArchive extracts the largest file of the archive.
func unpackZipArchive(data []byte) (string, []byte, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", nil, fmt.Errorf("open zip: %w", err)
	}

	var largestFile *zip.File
	var largestSize uint64
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if largestFile == nil || f.UncompressedSize64 > largestSize {
			largestFile = f
			largestSize = f.UncompressedSize64
		}
	}
	if largestFile == nil {
		return "", nil, ErrEmptyFile
	}

	rc, err := largestFile.Open()
	if err != nil {
		return "", nil, fmt.Errorf("open %s in zip: %w", largestFile.Name, err)
	}
	defer rc.Close()
	content, err := io.ReadAll(rc)
	if err != nil {
		return "", nil, fmt.Errorf("read %s in zip: %w", largestFile.Name, err)
	}
	return filepath.Base(largestFile.Name), content, nil
}

func unpackGzipArchive(fileName string, data []byte) (string, []byte, error) {
	gr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return "", nil, fmt.Errorf("open gzip: %w", err)
	}
	defer gr.Close()
	content, err := io.ReadAll(gr)
	if err != nil {
		return "", nil, fmt.Errorf("read gzip: %w", err)
	}
	return strings.TrimSuffix(fileName, filepath.Ext(fileName)), content, nil
}

func unpackLZ4Archive(fileName string, data []byte) (string, []byte, error) {
	content, err := io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
	if err != nil {
		return "", nil, fmt.Errorf("read lz4: %w", err)
	}
	return strings.TrimSuffix(fileName, filepath.Ext(fileName)), content, nil
}
