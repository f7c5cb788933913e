// Package notify delivers account e-mails: the generated password after
// registration and the confirmation after a password change.
package notify

import (
	"context"
	"fmt"
)

// Subject is used for every account e-mail.
const Subject = "Your Kipling Package Index Account"

// Message is one plain-text e-mail to a single recipient.
type Message struct {
	ToAddress string
	ToName    string
	Subject   string
	Body      string
}

type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

const passwordTemplate = `Hello %s,

Your password for the Kipling Package Index has been changed to: %s.

Cheers,
LabJack
`

const confirmationTemplate = `Hello %s,

Just wanted to confirm that you changed your password for your Kipling Package
Index account.

Cheers,
LabJack
`

// PasswordMessage carries a newly generated plaintext password.
func PasswordMessage(username, email, password string) Message {
	return Message{
		ToAddress: email,
		ToName:    username,
		Subject:   Subject,
		Body:      fmt.Sprintf(passwordTemplate, username, password),
	}
}

// ConfirmationMessage acknowledges a password change. It never contains
// the password.
func ConfirmationMessage(username, email string) Message {
	return Message{
		ToAddress: email,
		ToName:    username,
		Subject:   Subject,
		Body:      fmt.Sprintf(confirmationTemplate, username),
	}
}
