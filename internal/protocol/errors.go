package protocol

import "errors"

var (
	ErrInvalidType     = errors.New("protocol: invalid frame type")
	ErrInvalidChunkCnt = errors.New("protocol: chunk count must be at least 1")
	ErrChunkIdxRange   = errors.New("protocol: chunk index not below chunk count")
	ErrPayloadTooLarge = errors.New("protocol: payload too large")
)
