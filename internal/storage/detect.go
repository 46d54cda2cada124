package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/gabriel-vasile/mimetype"
)

// sniffLength is the number of leading bytes inspected to detect a file type
const sniffLength = 3072

var (
	// ErrEmptyFile is returned for an upload without content
	ErrEmptyFile = errors.New("file is empty")
	// ErrUnsupportedType is returned when the detected type is not accepted
	ErrUnsupportedType = errors.New("unsupported file type")
)

// Accepted content types per kind of upload
var (
	ImageTypes = []string{
		"image/jpeg",
		"image/png",
		"image/gif",
		"image/webp",
	}
	DocumentTypes = []string{
		"application/pdf",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	}
	ArchiveTypes = []string{
		"text/plain",
		"application/zip",
	}
)

// FileType is the detected type of an upload
type FileType struct {
	ContentType string
	Extension   string
}

// Detect checks that data is non-empty and of one of the accepted types
func Detect(data []byte, accepted ...[]string) (FileType, error) {
	if len(data) == 0 {
		return FileType{}, ErrEmptyFile
	}
	mime := mimetype.Detect(data)
	for _, group := range accepted {
		for _, ct := range group {
			if mime.Is(ct) {
				return FileType{ContentType: ct, Extension: mime.Extension()}, nil
			}
		}
	}
	return FileType{}, fmt.Errorf("%w: %s", ErrUnsupportedType, mime.String())
}

// Sniff detects the type of a streamed upload.
//
// The returned reader yields the complete payload including the inspected header bytes.
func Sniff(r io.Reader, accepted ...[]string) (FileType, io.Reader, error) {
	header := make([]byte, sniffLength)
	n, err := io.ReadFull(r, header)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return FileType{}, nil, fmt.Errorf("failed to read upload: %w", err)
	}
	header = header[:n]

	ft, err := Detect(header, accepted...)
	if err != nil {
		return FileType{}, nil, err
	}
	return ft, io.MultiReader(bytes.NewReader(header), r), nil
}
