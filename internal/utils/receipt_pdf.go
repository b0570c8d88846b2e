package utils

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"campusmarket_back_end/internal/models"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// RenderReceiptPDF imprime le reçu d'une commande en PDF via un Chrome
// headless. La page est embarquée en data URL, aucun frontend requis.
func RenderReceiptPDF(order models.OrderView) ([]byte, error) {
	html := receiptHTML(order)
	dataURL := "data:text/html;base64," + base64.StdEncoding.EncodeToString([]byte(html))

	ctx, cancel := chromedp.NewContext(context.Background())
	defer cancel()

	// timeout pour éviter de bloquer
	ctx, cancel = context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var pdfBuf []byte
	err := chromedp.Run(ctx,
		chromedp.Navigate(dataURL),
		chromedp.WaitVisible("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(8.27).
				WithPaperHeight(11.69).
				Do(ctx)
			if err != nil {
				return err
			}
			pdfBuf = buf
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdfBuf, nil
}

func receiptHTML(order models.OrderView) string {
	status := "En attente de remise"
	if order.IsDelivered {
		status = "Livrée"
	}
	counterpart := ""
	if order.Seller != nil {
		counterpart = fmt.Sprintf("Vendeur : %s %s (%s)", order.Seller.FirstName, order.Seller.LastName, order.Seller.Email)
	} else if order.Buyer != nil {
		counterpart = fmt.Sprintf("Acheteur : %s %s (%s)", order.Buyer.FirstName, order.Buyer.LastName, order.Buyer.Email)
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html lang="fr">
<head><meta charset="UTF-8"><title>Reçu de commande</title></head>
<body style="font-family: Arial, sans-serif; padding: 40px;">
	<h1 style="color: #333;">Reçu de commande</h1>
	<p>Commande <strong>%s</strong> du %s</p>
	<table style="width: 100%%; border-collapse: collapse; margin: 20px 0;">
		<tr style="background-color: #f0f0f0;">
			<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Produit</th>
			<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Catégorie</th>
			<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Quantité</th>
			<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Prix unitaire</th>
			<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Total</th>
		</tr>
		<tr>
			<td style="padding: 10px; border: 1px solid #ddd;">%s</td>
			<td style="padding: 10px; border: 1px solid #ddd;">%s</td>
			<td style="padding: 10px; border: 1px solid #ddd;">%d</td>
			<td style="padding: 10px; border: 1px solid #ddd;">%.2f</td>
			<td style="padding: 10px; border: 1px solid #ddd;">%.2f</td>
		</tr>
	</table>
	<p>%s</p>
	<p>Statut : <strong>%s</strong></p>
</body>
</html>`,
		order.ID.Hex(),
		order.OrderDate.Format("02/01/2006 15:04"),
		order.Product.Name,
		order.Product.Category,
		order.Quantity,
		order.Product.Price,
		order.Product.Price*float64(order.Quantity),
		counterpart,
		status,
	)
}
