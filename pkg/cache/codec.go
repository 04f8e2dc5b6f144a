package cache

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Payload markers written as the first byte of every encoded entry.
const (
	markerJSON byte = 'j'
	markerZstd byte = 'z'
)

// minCompressSize is the smallest payload worth compressing.
const minCompressSize = 128

// ErrInvalidEntry indicates a stored payload could not be decoded.
var ErrInvalidEntry = errors.New("invalid cache entry")

// Codec turns entries into Redis payloads: JSON, optionally zstd-compressed.
// Document trees and raw markdown compress well, which keeps shared
// Redis memory small when many repositories are browsed.
type Codec struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewCodec creates a codec. With compress false payloads are plain JSON.
func NewCodec(compress bool) (*Codec, error) {
	if !compress {
		return &Codec{}, nil
	}

	encoder, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &Codec{
		encoder: encoder,
		decoder: decoder,
	}, nil
}

// Compressing reports whether the codec compresses payloads.
func (c *Codec) Compressing() bool {
	return c.encoder != nil
}

// Marshal encodes v.
func (c *Codec) Marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal cache entry: %w", err)
	}

	if c.encoder != nil && len(data) >= minCompressSize {
		compressed := c.encoder.EncodeAll(data, make([]byte, 1, len(data)/2+1))
		if len(compressed)-1 < len(data) {
			compressed[0] = markerZstd
			return compressed, nil
		}
	}

	return append([]byte{markerJSON}, data...), nil
}

// Unmarshal decodes a payload written by any codec into v.
func (c *Codec) Unmarshal(payload []byte, v any) error {
	if len(payload) == 0 {
		return fmt.Errorf("%w: empty payload", ErrInvalidEntry)
	}

	data := payload[1:]
	switch payload[0] {
	case markerJSON:
	case markerZstd:
		decoder := c.decoder
		if decoder == nil {
			// Written by a compressing instance, read by a plain one.
			d, err := zstd.NewReader(nil)
			if err != nil {
				return fmt.Errorf("create zstd decoder: %w", err)
			}
			defer d.Close()
			decoder = d
		}
		decompressed, err := decoder.DecodeAll(data, nil)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidEntry, err)
		}
		data = decompressed
	default:
		return fmt.Errorf("%w: unknown marker %q", ErrInvalidEntry, payload[0])
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}
	return nil
}

// Close releases the zstd encoder and decoder.
func (c *Codec) Close() error {
	if c.encoder != nil {
		c.encoder.Close()
	}
	if c.decoder != nil {
		c.decoder.Close()
	}
	return nil
}
