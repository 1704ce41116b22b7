package models

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("video not found")
	ErrInvalidRange = errors.New("requested range not satisfiable")
	ErrNoFile       = errors.New("no video file uploaded")
	ErrValidation   = errors.New("only video files are allowed")
	ErrTooLarge     = errors.New("file too large")
	ErrListFailed   = errors.New("failed to list videos")
	ErrUploadFailed = errors.New("failed to upload video")
	ErrUnauthorized = errors.New("unauthorized")
)

// RangeError несёт длину ресурса, чтобы ответ 416 мог указать Content-Range: bytes */L.
type RangeError struct {
	Length int64
	Err    error
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s: %v", ErrInvalidRange, e.Err)
}

func (e *RangeError) Unwrap() error { return e.Err }

// Is позволяет сравнивать через errors.Is(err, ErrInvalidRange).
func (e *RangeError) Is(target error) bool { return target == ErrInvalidRange }
