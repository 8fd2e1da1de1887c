package storage

import (
	"errors"
	"mime"
	"strings"

	"github.com/s3eon/s3store/internal/template"
)

var (
	ErrMissingFileName      = errors.New("missing file name")
	ErrMissingFileExtension = errors.New("missing file extension")
	ErrMalformedFileName    = errors.New("file name and extension are required to build a file path")
)

// preferredExtensions picks one extension for mime types the platform table
// maps to several.
var preferredExtensions = map[string]string{
	"image/jpeg":               "jpg",
	"image/jpg":                "jpg",
	"image/svg+xml":            "svg",
	"image/tiff":               "tiff",
	"text/plain":               "txt",
	"text/html":                "html",
	"application/octet-stream": "bin",
	"video/mpeg":               "mpeg",
	"audio/mpeg":               "mp3",
}

// FileEntity is a file about to be uploaded. Empty fields are absent.
type FileEntity struct {
	Bytes         []byte
	FileName      string
	FileExtension string
	Folder        string
	Mime          string
}

// Sanitize splits "name.ext" into its parts when no extension was given.
func (f *FileEntity) Sanitize() {
	if f.FileExtension != "" {
		return
	}
	i := strings.LastIndexByte(f.FileName, '.')
	if i <= 0 || i == len(f.FileName)-1 {
		return
	}
	f.FileName, f.FileExtension = f.FileName[:i], f.FileName[i+1:]
}

// LoadFileExtensionFromMime fills FileExtension from Mime and reports whether
// an extension is known for it.
func (f *FileEntity) LoadFileExtensionFromMime() bool {
	if f.Mime == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(f.Mime)
	if err != nil {
		return false
	}
	if ext, ok := preferredExtensions[mediaType]; ok {
		f.FileExtension = ext
		return true
	}
	exts, err := mime.ExtensionsByType(mediaType)
	if err != nil || len(exts) == 0 {
		return false
	}
	f.FileExtension = strings.TrimPrefix(exts[0], ".")
	return true
}

// LoadMimeFromFileExtension fills Mime from FileExtension when the platform
// table knows it.
func (f *FileEntity) LoadMimeFromFileExtension() {
	if f.FileExtension == "" {
		return
	}
	t := mime.TypeByExtension("." + strings.ToLower(f.FileExtension))
	if t == "" {
		return
	}
	if mediaType, _, err := mime.ParseMediaType(t); err == nil {
		t = mediaType
	}
	f.Mime = t
}

func (f *FileEntity) Verify() error {
	if f.FileName == "" {
		return ErrMissingFileName
	}
	if f.FileExtension == "" {
		return ErrMissingFileExtension
	}
	return nil
}

func (f *FileEntity) FullFileName() (string, error) {
	if err := f.Verify(); err != nil {
		return "", err
	}
	return f.FileName + "." + f.FileExtension, nil
}

// FilePath returns "<folder>/<name>.<ext>", or "<name>.<ext>" without a
// folder.
func (f *FileEntity) FilePath() (string, error) {
	name, err := f.FullFileName()
	if err != nil {
		return "", errors.Join(ErrMalformedFileName, err)
	}
	if f.Folder == "" {
		return name, nil
	}
	return f.Folder + "/" + name, nil
}

func (f *FileEntity) Attributes() template.Attributes {
	return template.Attributes{
		FileName:      f.FileName,
		FileExtension: f.FileExtension,
		Folder:        f.Folder,
		Mime:          f.Mime,
	}
}
