package notify

import (
	"context"
	"fmt"
	"strconv"

	"homecook/models"
	"homecook/store"
)

// CookNotifier emails the cook of an order. It only reacts to order.created.
type CookNotifier struct {
	users  store.Users
	mailer Mailer
}

func NewCookNotifier(users store.Users, mailer Mailer) *CookNotifier {
	return &CookNotifier{users: users, mailer: mailer}
}

func (n *CookNotifier) Handle(ctx context.Context, e models.OrderEvent) error {
	if e.Type != "order.created" {
		return nil
	}
	cook, err := n.users.Get(ctx, e.CookID)
	if err != nil {
		return fmt.Errorf("load cook %s: %w", e.CookID, err)
	}
	return n.mailer.Send(ctx, orderCreatedMessage(cook, e))
}

func orderCreatedMessage(cook *models.User, e models.OrderEvent) Message {
	total := strconv.FormatFloat(e.Total, 'f', 2, 64)
	name := cook.Name
	if name == "" {
		name = "Chef"
	}

	subject := fmt.Sprintf("New order %s", e.OrderID)
	html := fmt.Sprintf(`
        <html>
        <body>
            <p>Hello %s,</p>
            <p>You have a new order.</p>
            <ul>
                <li>Order ID: %s</li>
                <li>Items: %d</li>
                <li>Total: %s</li>
            </ul>
            <p>Payment is cash on delivery.</p>
        </body>
        </html>`, name, e.OrderID, e.Items, total)
	text := fmt.Sprintf("Hello %s,\n\nYou have a new order.\n\nOrder ID: %s\nItems: %d\nTotal: %s\n\nPayment is cash on delivery.",
		name, e.OrderID, e.Items, total)

	return Message{To: cook.Email, Subject: subject, HTML: html, Text: text}
}
