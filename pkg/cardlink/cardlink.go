// Package cardlink builds the public URLs attached to a card: the viewer
// page a QR scan lands on, and the QR image endpoint on this API.
package cardlink

import (
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// ViewerURL is the claim/viewer page for a card. This is the URL encoded in
// printed QR codes, so it must stay stable across deployments.
func ViewerURL(baseURL, cardID string) string {
	return strings.TrimRight(baseURL, "/") + "/c/" + cardID
}

// QRImageURL points at this API's PNG endpoint for a card's QR code.
func QRImageURL(apiBaseURL, cardID string) string {
	return strings.TrimRight(apiBaseURL, "/") + "/api/cards/" + cardID + "/qr"
}

// QRPNG encodes a URL as a 256px medium-error-correction PNG.
func QRPNG(url string) ([]byte, error) {
	return qrcode.Encode(url, qrcode.Medium, 256)
}
