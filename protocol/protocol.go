// Package protocol implements the framed serial protocol spoken by the
// sensor board: Klipper-style frames carrying VLQ-encoded integers.
//
//	[len][seq][payload...][crc hi][crc lo][0x7E]
//
// len counts the whole frame. The high nibble of seq is always 0x10; the low
// nibble is a rolling sequence number.
package protocol

import "errors"

// Frame geometry
const (
	FrameHeaderSize  = 2
	FrameTrailerSize = 3
	FrameLengthMin   = FrameHeaderSize + FrameTrailerSize
	FrameLengthMax   = 64
	FramePayloadMax  = FrameLengthMax - FrameLengthMin

	SyncByte = 0x7E
	SeqDest  = 0x10
	SeqMask  = 0x0F

	positionLen = 0
	positionSeq = 1
	trailerCRC  = 3
	trailerSync = 1
)

var (
	ErrPayloadTooLarge = errors.New("protocol: payload exceeds frame size")
	ErrShortVLQ        = errors.New("protocol: truncated VLQ")
)
