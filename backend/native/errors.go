package native

import "errors"

// Native backend errors.
var (
	// ErrNilHALDevice is returned when allocating without a HAL device.
	ErrNilHALDevice = errors.New("native: HAL device is nil")

	// ErrInvalidTextureSize is returned when buffer dimensions are invalid.
	ErrInvalidTextureSize = errors.New("native: invalid texture size")

	// ErrBufferDestroyed is returned when operating on a released buffer.
	ErrBufferDestroyed = errors.New("native: buffer has been released")
)
