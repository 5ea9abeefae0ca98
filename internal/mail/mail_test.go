package mail_test

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homeshop/internal/mail"
)

// smtpStub accepts one connection. When silent it never answers, like a
// relay that hangs after the TCP handshake.
func smtpStub(t *testing.T, silent bool) (*mail.SMTPSender, <-chan string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	got := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		if silent {
			_, _ = bufio.NewReader(conn).ReadString(0)
			return
		}
		r := bufio.NewReader(conn)
		reply := func(s string) { _, _ = conn.Write([]byte(s + "\r\n")) }
		reply("220 stub ESMTP")
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			verb := strings.ToUpper(strings.Fields(line + " x")[0])
			switch verb {
			case "EHLO", "HELO":
				reply("250 stub")
			case "MAIL", "RCPT":
				reply("250 OK")
			case "DATA":
				reply("354 end with .")
				var data strings.Builder
				for {
					l, err := r.ReadString('\n')
					if err != nil {
						return
					}
					if l == ".\r\n" {
						break
					}
					data.WriteString(l)
				}
				got <- data.String()
				reply("250 queued")
			case "QUIT":
				reply("221 bye")
				return
			default:
				reply("502 not implemented")
			}
		}
	}()

	host, port, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	return &mail.SMTPSender{Host: host, Port: port, From: "shop@homeshop.test"}, got
}

func TestSMTPSenderDelivers(t *testing.T) {
	s, got := smtpStub(t, false)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, s.Send(ctx, mail.Welcome("dana@example.com", "Dana", "Gray")))

	select {
	case data := <-got:
		assert.Contains(t, data, "To: dana@example.com\r\n")
		assert.Contains(t, data, "Subject: Welcome to HomeShop\r\n")
		assert.Contains(t, data, "Hello, Dana Gray!")
	case <-time.After(5 * time.Second):
		t.Fatal("stub received no message")
	}
}

func TestSMTPSenderHonoursDeadline(t *testing.T) {
	s, _ := smtpStub(t, true)
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := s.Send(ctx, mail.Welcome("dana@example.com", "Dana", "Gray"))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestSMTPSenderCanceled(t *testing.T) {
	s, _ := smtpStub(t, true)
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	err := s.Send(ctx, mail.Welcome("dana@example.com", "Dana", "Gray"))
	assert.ErrorIs(t, err, context.Canceled)
}
