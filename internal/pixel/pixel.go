// Package pixel holds the tracking beacon image and its response
// contract. The beacon route answers every request with these exact
// bytes and headers so that unknown, recorded, and deduplicated ids are
// indistinguishable on the wire.
package pixel

import (
	"bytes"
	"image"
	"image/png"

	"github.com/labstack/echo/v4"
)

// ContentType is the media type of the beacon image
const ContentType = "image/png"

// PNG is a fully transparent 1x1 PNG, encoded once at startup
var PNG = func() []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 1, 1))); err != nil {
		panic(err)
	}
	return buf.Bytes()
}()

// WriteHeaders sets the cache-busting directives on a beacon response.
// Mail clients and proxies must refetch on every render, otherwise
// repeat opens would never reach the store.
func WriteHeaders(c echo.Context) {
	h := c.Response().Header()
	h.Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	h.Set("Pragma", "no-cache")
	h.Set("Expires", "0")
}
