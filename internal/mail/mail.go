package mail

import (
	"context"
	"crypto/tls"
	"net"
	"net/smtp"
	"strings"

	applog "homeshop/internal/log"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers one message. Implementations do not retry.
type Sender interface {
	Send(ctx context.Context, m Message) error
}

// SMTPSender talks plain SMTP (MailHog in development). Auth is used only
// when a user name is configured.
type SMTPSender struct {
	Host     string
	Port     string
	User     string
	Password string
	From     string
}

func (s *SMTPSender) Send(ctx context.Context, m Message) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(s.Host, s.Port))
	if err != nil {
		return err
	}
	// net/smtp has no context support: closing the conn unblocks it
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	c, err := smtp.NewClient(conn, s.Host)
	if err != nil {
		_ = conn.Close()
		return ctxErr(ctx, err)
	}
	defer c.Close()
	if err := s.deliver(c, m); err != nil {
		return ctxErr(ctx, err)
	}
	return c.Quit()
}

func (s *SMTPSender) deliver(c *smtp.Client, m Message) error {
	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: s.Host}); err != nil {
			return err
		}
	}
	if s.User != "" {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(smtp.PlainAuth("", s.User, s.Password, s.Host)); err != nil {
				return err
			}
		}
	}
	to := headerSafe(m.To)
	if err := c.Mail(headerSafe(s.From)); err != nil {
		return err
	}
	if err := c.Rcpt(to); err != nil {
		return err
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	msg := "From: " + headerSafe(s.From) + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + headerSafe(m.Subject) + "\r\n" +
		"MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n" +
		m.Body
	if _, err := w.Write([]byte(msg)); err != nil {
		return err
	}
	return w.Close()
}

// ctxErr prefers the context's error when it caused the failure.
func ctxErr(ctx context.Context, err error) error {
	if cerr := ctx.Err(); cerr != nil {
		return cerr
	}
	return err
}

// headerSafe drops CR and LF so user-supplied values cannot add headers.
func headerSafe(s string) string {
	return strings.NewReplacer("\r", "", "\n", "").Replace(s)
}

// LogSender records messages instead of sending them. Used when no SMTP
// host is configured.
type LogSender struct {
	Log *applog.Logger
}

func (s *LogSender) Send(_ context.Context, m Message) error {
	s.Log.Info(nil, "mail.logged", map[string]any{"to": m.To, "subject": m.Subject})
	return nil
}

// Welcome builds the message sent after a successful registration.
func Welcome(to, firstName, lastName string) Message {
	name := strings.TrimSpace(firstName + " " + lastName)
	return Message{
		To:      to,
		Subject: "Welcome to HomeShop",
		Body: "Hello, " + name + "!\n\n" +
			"Your registration was successful. You can now add appliances to your cart and place orders.\n",
	}
}
