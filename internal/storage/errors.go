// SPDX-License-Identifier: AGPL-3.0-only
package storage

import (
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"

	"github.com/minio/minio-go/v7"
)

var (
	ErrNotFound                    = errors.New("object not found")
	ErrNilFileUpload               = errors.New("file bytes are required for an upload")
	ErrMissingFileExtensionAndType = errors.New("file extension and mime type could not be determined")
	ErrPathMissingForwardSlash     = errors.New("upload path must begin with '/'")
	ErrUnsupportedDriver           = errors.New("unsupported driver")
	ErrMissingDriver               = errors.New("no driver configured")
)

// ResponseError is a non-2xx answer of the object store.
type ResponseError struct {
	StatusCode int
	Code       string
	Message    string
	Body       []byte
	Err        error
}

func newResponseError(statusCode int, body []byte) *ResponseError {
	e := &ResponseError{StatusCode: statusCode, Body: body}

	var xmlErr minio.ErrorResponse
	if len(body) > 0 && xml.Unmarshal(body, &xmlErr) == nil {
		e.Code = xmlErr.Code
		e.Message = xmlErr.Message
	}
	return e
}

func (e *ResponseError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Code != "" {
		return fmt.Sprintf("object store responded %d %s: %s", e.StatusCode, e.Code, msg)
	}
	return fmt.Sprintf("object store responded %d: %s", e.StatusCode, msg)
}

func (e *ResponseError) Unwrap() error {
	return e.Err
}

func (e *ResponseError) Is(target error) bool {
	return target == ErrNotFound && (e.StatusCode == http.StatusNotFound || e.Code == "NoSuchKey")
}
