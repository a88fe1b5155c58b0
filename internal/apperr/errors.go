// Package apperr defines the error kinds shared by the media and gallery
// services and their mapping onto HTTP status codes.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind 错误类别
type Kind string

const (
	KindConflict      Kind = "conflict"
	KindNotFound      Kind = "not_found"
	KindDecodeFailed  Kind = "decode_failed"
	KindVariantFailed Kind = "variant_failed"
	KindIOFailed      Kind = "io_failed"
	KindInvalid       Kind = "invalid_input"
)

// Upload pipeline failure codes.
const (
	CodeStorageWriteFailed = "storage_write_failed"
	CodeHashFailed         = "hash_failed"
	CodeRecordConflict     = "record_conflict"
	CodeRecordFailed       = "record_failed"
)

// Gallery failure codes.
const (
	CodeGalleryNotFound       = "gallery_not_found"
	CodeImageNotFound         = "image_not_found"
	CodeImageNotInGallery     = "image_not_in_gallery"
	CodeImageAlreadyInGallery = "image_already_in_gallery"
	CodeSlugTaken             = "slug_taken"
	CodeNoUpdates             = "no_updates"
	CodeImageIDRequired       = "image_id_required"
	CodeValidation            = "validation_error"
)

// Sentinels for errors.Is checks on kind.
var (
	ErrConflict      = &Error{Kind: KindConflict}
	ErrNotFound      = &Error{Kind: KindNotFound}
	ErrDecodeFailed  = &Error{Kind: KindDecodeFailed}
	ErrVariantFailed = &Error{Kind: KindVariantFailed}
	ErrIOFailed      = &Error{Kind: KindIOFailed}
	ErrInvalid       = &Error{Kind: KindInvalid}
)

// Error carries a kind, a stable machine code and the underlying cause.
type Error struct {
	Kind Kind
	Code string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Code
	}
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by kind, and by code when the target sets one.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != "" && t.Kind != e.Kind {
		return false
	}
	if t.Code != "" && t.Code != e.Code {
		return false
	}
	return t.Kind != "" || t.Code != ""
}

// New 创建一个不带底层错误的 *Error
func New(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Msg: msg}
}

// Wrap 包装底层错误，err 为 nil 时返回 nil
func Wrap(kind Kind, code string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Code: code, Err: err}
}

func NotFound(code, msg string) *Error { return New(KindNotFound, code, msg) }

func Conflict(code, msg string) *Error { return New(KindConflict, code, msg) }

func Invalid(code, msg string) *Error { return New(KindInvalid, code, msg) }

// IO wraps a storage or database failure.
func IO(code string, err error) error { return Wrap(KindIOFailed, code, err) }

// KindOf 返回错误链中第一个 *Error 的类别
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// CodeOf 返回错误链中第一个带 code 的 *Error 的 code
func CodeOf(err error) string {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return ""
		}
		if e.Code != "" {
			return e.Code
		}
		err = e.Err
	}
	return ""
}

// HTTPStatus maps an error to the response status used by the API layer.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindInvalid:
		return http.StatusBadRequest
	case KindDecodeFailed:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
