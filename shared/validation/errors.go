package validation

import "errors"

// ErrPayloadTooLarge is returned when the request body exceeds size limits
var ErrPayloadTooLarge = errors.New("payload too large")

// ErrNoFiles is returned when a multipart upload carries no files
var ErrNoFiles = errors.New("no files in upload")

// ErrNotMultipart is returned when an upload is not multipart/form-data
var ErrNotMultipart = errors.New("request is not multipart/form-data")
