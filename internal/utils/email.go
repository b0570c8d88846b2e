package utils

import (
	"fmt"
	"log"
	"os"
	"strings"

	"campusmarket_back_end/internal/workflow"

	"github.com/wneessen/go-mail"
)

// SendDeliveryCodesEmail envoie à l'acheteur les codes de livraison en clair,
// une seule fois, juste après le passage de commande. Sans SMTP configuré
// l'envoi est simplement sauté (les codes restent dans la réponse HTTP).
func SendDeliveryCodesEmail(to string, placed []workflow.PlacedOrder) error {
	host := os.Getenv("SMTP_HOST")
	if host == "" {
		log.Println("⚠️ SMTP_HOST non configuré — email des codes de livraison sauté")
		return nil
	}

	from := os.Getenv("SMTP_FROM")
	if from == "" {
		from = "noreply@campusmarket.example.edu"
	}

	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject("Vos codes de livraison")
	msg.SetBodyString(mail.TypeTextHTML, deliveryCodesHTML(placed))

	client, err := mail.NewClient(host,
		mail.WithPort(587),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(os.Getenv("SMTP_USERNAME")),
		mail.WithPassword(os.Getenv("SMTP_PASSWORD")),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return err
	}

	log.Println("📤 Envoi des codes de livraison à", to)
	return client.DialAndSend(msg)
}

func deliveryCodesHTML(placed []workflow.PlacedOrder) string {
	var rows strings.Builder
	for _, p := range placed {
		rows.WriteString(fmt.Sprintf(`
			<tr>
				<td style="padding: 10px; border: 1px solid #ddd;">%s</td>
				<td style="padding: 10px; border: 1px solid #ddd;">%d</td>
				<td style="padding: 10px; border: 1px solid #ddd; font-weight: bold;">%s</td>
			</tr>`, p.Order.ID.Hex(), p.Order.Quantity, p.Code))
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html lang="fr">
<head><meta charset="UTF-8"><title>Codes de livraison</title></head>
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #333;">Votre commande est enregistrée</h2>
		<p>Bonjour,</p>
		<p>Donnez le code ci-dessous au vendeur au moment de la remise en main propre.
		Chaque code ne sert qu'une fois.</p>
		<table style="width: 100%%; border-collapse: collapse; margin: 20px 0;">
			<thead>
				<tr style="background-color: #f0f0f0;">
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Commande</th>
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Quantité</th>
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Code</th>
				</tr>
			</thead>
			<tbody>%s</tbody>
		</table>
		<p style="color: #777; font-size: 12px;">Si vous perdez un code, le vendeur peut en régénérer un nouveau.</p>
	</div>
</body>
</html>`, rows.String())
}
