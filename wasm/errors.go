package wasm

import "errors"

var (
	ErrInvalidMagicNumber = errors.New("invalid magic number")
	ErrInvalidVersion     = errors.New("invalid version header")
	ErrInvalidByte        = errors.New("invalid byte")
	ErrUnsupportedFeature = errors.New("unsupported feature")
)
