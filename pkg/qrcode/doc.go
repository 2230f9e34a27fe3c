// Package qrcode renders links as PNG QR codes.
//
//	png, err := qrcode.Encode("https://sqd.link/abc", qrcode.WithSize(512))
//	uri := qrcode.DataURI(png) // data:image/png;base64,...
//
// Rendering is done by github.com/skip2/go-qrcode.
package qrcode
