// Package mail envía los avisos por correo (backorder, cancelación y recordatorio de citas).
package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"gopkg.in/gomail.v2"

	"github.com/jhoicas/evcenter-api/pkg/config"
	"github.com/jhoicas/evcenter-api/pkg/logger"
)

// Message correo de texto plano.
type Message struct {
	To      []string
	Subject string
	Body    string
}

// Sender entrega un mensaje.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// ErrNoRecipients el mensaje no tiene destinatarios.
var ErrNoRecipients = errors.New("mail: sin destinatarios")

// SMTPSender envía por SMTP. Tras fallos consecutivos abre el circuito y rechaza envíos
// sin intentar conectar hasta que pase el timeout.
type SMTPSender struct {
	cfg     config.SMTPConfig
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker[struct{}]
	log     *logger.Logger
}

const defaultSendTimeout = 30 * time.Second

// NewSMTPSender crea el sender a partir de la configuración SMTP.
func NewSMTPSender(cfg config.SMTPConfig, log *logger.Logger) *SMTPSender {
	log = log.Component("mail")
	breaker := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "smtp",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("cambio de estado del circuito SMTP")
		},
	})
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	return &SMTPSender{
		cfg:     cfg,
		timeout: timeout,
		breaker: breaker,
		log:     log,
	}
}

// Send arma el mensaje y lo entrega dentro de cfg.Timeout o del plazo del contexto, el que venza antes.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return ErrNoRecipients
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", msg.To...)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain; charset=UTF-8", msg.Body)

	_, err := s.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, s.deliver(ctx, m)
	})
	if err != nil {
		return fmt.Errorf("mail: enviar a %s: %w", strings.Join(msg.To, ","), err)
	}
	return nil
}

func (s *SMTPSender) deliver(ctx context.Context, m *gomail.Message) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	// Respaldo por si AfterFunc no llega a correr.
	deadline, _ := ctx.Deadline()
	if err := conn.SetDeadline(deadline.Add(time.Second)); err != nil {
		conn.Close()
		return err
	}
	// Cancelar el contexto corta la sesión en curso.
	raw := conn
	stop := context.AfterFunc(ctx, func() { _ = raw.SetDeadline(time.Now()) })
	defer stop()

	if s.cfg.Port == 465 {
		conn = tls.Client(conn, &tls.Config{ServerName: s.cfg.Host})
	}
	c, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		conn.Close()
		return ctxErr(ctx, err)
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok && s.cfg.Port != 465 {
		if err := c.StartTLS(&tls.Config{ServerName: s.cfg.Host}); err != nil {
			return ctxErr(ctx, err)
		}
	}
	if s.cfg.User != "" {
		if err := c.Auth(smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)); err != nil {
			return ctxErr(ctx, err)
		}
	}

	send := gomail.SendFunc(func(from string, to []string, msg io.WriterTo) error {
		if err := c.Mail(from); err != nil {
			return err
		}
		for _, rcpt := range to {
			if err := c.Rcpt(rcpt); err != nil {
				return err
			}
		}
		w, err := c.Data()
		if err != nil {
			return err
		}
		if _, err := msg.WriteTo(w); err != nil {
			w.Close()
			return err
		}
		return w.Close()
	})
	if err := gomail.Send(send, m); err != nil {
		return ctxErr(ctx, err)
	}
	return ctxErr(ctx, c.Quit())
}

// ctxErr prefiere el error del contexto cuando el deadline cortó la conexión.
func ctxErr(ctx context.Context, err error) error {
	if err != nil && ctx.Err() != nil {
		return fmt.Errorf("%w: %v", ctx.Err(), err)
	}
	return err
}

// LogSender solo registra el mensaje (SMTP sin configurar).
type LogSender struct {
	log *logger.Logger
}

// NewLogSender crea el sender de desarrollo.
func NewLogSender(log *logger.Logger) *LogSender {
	return &LogSender{log: log.Component("mail")}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return ErrNoRecipients
	}
	s.log.Info().Strs("to", msg.To).Str("subject", msg.Subject).Msg("correo no enviado (SMTP sin configurar)")
	s.log.Debug().Str("body", msg.Body).Msg("cuerpo del correo")
	return nil
}

