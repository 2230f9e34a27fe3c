package qrcode

import (
	"encoding/base64"
	"errors"
	"strings"

	skipqrcode "github.com/skip2/go-qrcode"
)

var (
	ErrEmptyContent   = errors.New("qrcode: content cannot be empty")
	ErrEncodingFailed = errors.New("qrcode: failed to encode")
)

// DefaultSize is the image width and height in pixels.
const DefaultSize = 256

// Level is the error recovery level. Higher levels survive more damage
// and produce denser codes.
type Level int

const (
	Low Level = iota
	Medium
	High
	Highest
)

func (l Level) recovery() skipqrcode.RecoveryLevel {
	switch l {
	case Low:
		return skipqrcode.Low
	case High:
		return skipqrcode.High
	case Highest:
		return skipqrcode.Highest
	default:
		return skipqrcode.Medium
	}
}

type options struct {
	size  int
	level Level
}

// Option configures Encode.
type Option func(*options)

// WithSize sets the image size in pixels. Non-positive values keep DefaultSize.
func WithSize(px int) Option {
	return func(o *options) {
		if px > 0 {
			o.size = px
		}
	}
}

// WithLevel sets the error recovery level.
func WithLevel(l Level) Option {
	return func(o *options) {
		o.level = l
	}
}

// Encode renders content as a square PNG.
func Encode(content string, opts ...Option) ([]byte, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	o := options{size: DefaultSize, level: Medium}
	for _, opt := range opts {
		opt(&o)
	}

	png, err := skipqrcode.Encode(content, o.level.recovery(), o.size)
	if err != nil {
		return nil, errors.Join(ErrEncodingFailed, err)
	}
	return png, nil
}

// DataURI embeds png in a data URI usable as an image source.
func DataURI(png []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}
