package notify

import (
	"context"
	"fmt"
	"net"
	"net/mail"
	"net/smtp"
	"strings"
)

var sendMail = smtp.SendMail

type SMTPOptions struct {
	Addr        string
	User        string
	Password    string
	FromAddress string
	FromName    string
}

// SMTPNotifier sends through a relay with optional PLAIN auth.
type SMTPNotifier struct {
	opts SMTPOptions
	auth smtp.Auth
}

func NewSMTPNotifier(opts SMTPOptions) *SMTPNotifier {
	n := &SMTPNotifier{opts: opts}
	if opts.User != "" {
		host, _, err := net.SplitHostPort(opts.Addr)
		if err != nil {
			host = opts.Addr
		}
		n.auth = smtp.PlainAuth("", opts.User, opts.Password, host)
	}
	return n
}

func (n *SMTPNotifier) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := sendMail(n.opts.Addr, n.auth, n.opts.FromAddress, []string{msg.ToAddress}, n.render(msg)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.ToAddress, err)
	}
	return nil
}

func (n *SMTPNotifier) render(msg Message) []byte {
	from := mail.Address{Name: n.opts.FromName, Address: n.opts.FromAddress}
	to := mail.Address{Name: msg.ToName, Address: msg.ToAddress}

	var b strings.Builder
	b.WriteString("From: " + from.String() + "\r\n")
	b.WriteString("To: " + to.String() + "\r\n")
	b.WriteString("Subject: " + msg.Subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	return []byte(b.String())
}
