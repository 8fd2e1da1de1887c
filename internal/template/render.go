package template

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

var (
	ErrFileNameNotProvided      = errors.New("file name not provided")
	ErrFileExtensionNotProvided = errors.New("file extension not provided")
	ErrFolderNotProvided        = errors.New("folder not provided")
	ErrMimeNotProvided          = errors.New("mime type not provided")
	ErrMimeFolderNotProvided    = errors.New("mime folder not provided")
	ErrInvalidEncoding          = errors.New("rendered path is not valid utf-8")
)

// RenderError reports which alias could not be resolved.
type RenderError struct {
	Alias Alias
	Err   error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("failed to render %s: %s", e.Alias, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// Attributes are the upload values a template can reference. Empty fields are
// treated as absent.
type Attributes struct {
	FileName      string
	FileExtension string
	Folder        string
	Mime          string
}

type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

type IDGenerator interface {
	NewID() string
}

type IDGeneratorFunc func() string

func (f IDGeneratorFunc) NewID() string { return f() }

var (
	SystemClock   Clock       = ClockFunc(time.Now)
	UUIDGenerator IDGenerator = IDGeneratorFunc(uuid.NewString)
)

// MimeFolder classifies a mime type into the folder images and other data are
// stored under.
func MimeFolder(mime string) (string, bool) {
	if mime == "" {
		return "", false
	}
	if strings.HasPrefix(strings.ToLower(mime), "image") {
		return "images/original", true
	}
	return "data", true
}

// Render substitutes every alias in t. The clock is read at most once, so all
// date aliases of one path agree with each other.
func (t *Template) Render(attrs Attributes, clock Clock, ids IDGenerator) (string, error) {
	var (
		buf    []byte
		now    time.Time
		hasNow bool
	)

	current := func() time.Time {
		if !hasNow {
			now, hasNow = clock.Now().UTC(), true
		}
		return now
	}

	for _, part := range t.parts {
		if part.Kind == PartLiteral {
			buf = append(buf, part.Literal...)
			continue
		}

		switch part.Alias {
		case AliasFile:
			if attrs.FileName == "" {
				return "", &RenderError{part.Alias, ErrFileNameNotProvided}
			}
			if attrs.FileExtension == "" {
				return "", &RenderError{part.Alias, ErrFileExtensionNotProvided}
			}
			buf = append(buf, attrs.FileName...)
			buf = append(buf, '.')
			buf = append(buf, attrs.FileExtension...)

		case AliasFileName:
			if attrs.FileName == "" {
				return "", &RenderError{part.Alias, ErrFileNameNotProvided}
			}
			buf = append(buf, attrs.FileName...)

		case AliasFileExtension:
			if attrs.FileExtension == "" {
				return "", &RenderError{part.Alias, ErrFileExtensionNotProvided}
			}
			buf = append(buf, attrs.FileExtension...)

		case AliasFolder:
			if attrs.Folder == "" {
				return "", &RenderError{part.Alias, ErrFolderNotProvided}
			}
			buf = append(buf, attrs.Folder...)

		case AliasMime:
			if attrs.Mime == "" {
				return "", &RenderError{part.Alias, ErrMimeNotProvided}
			}
			buf = append(buf, attrs.Mime...)

		case AliasMimeFolder:
			folder, ok := MimeFolder(attrs.Mime)
			if !ok {
				return "", &RenderError{part.Alias, ErrMimeFolderNotProvided}
			}
			buf = append(buf, folder...)

		case AliasDay:
			buf = strconv.AppendInt(buf, int64(current().Day()), 10)

		case AliasMonth:
			buf = strconv.AppendInt(buf, int64(current().Month()), 10)

		case AliasYear:
			buf = strconv.AppendInt(buf, int64(current().Year()), 10)

		case AliasTimestamp:
			buf = current().AppendFormat(buf, "15:04:05")

		case AliasUUID:
			buf = append(buf, ids.NewID()...)
		}
	}

	if !utf8.Valid(buf) {
		return "", ErrInvalidEncoding
	}
	return string(buf), nil
}
