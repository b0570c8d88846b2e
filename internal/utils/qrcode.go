package utils

import (
	"encoding/base64"

	"github.com/skip2/go-qrcode"
)

// GenerateDeliveryCodeQR encode le code de livraison en QR base64 prêt à
// mettre dans <img src="..."> pour l'afficher à l'écran du vendeur.
func GenerateDeliveryCodeQR(code string) (string, error) {
	png, err := qrcode.Encode(code, qrcode.Medium, 256)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
