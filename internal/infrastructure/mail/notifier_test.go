package mail

import (
	"context"
	"errors"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/evcenter-api/internal/domain"
	"github.com/jhoicas/evcenter-api/internal/domain/entity"
	"github.com/jhoicas/evcenter-api/pkg/config"
	"github.com/jhoicas/evcenter-api/pkg/logger"
)

type captureSender struct {
	msgs []Message
}

func (c *captureSender) Send(_ context.Context, m Message) error {
	if len(m.To) == 0 {
		return ErrNoRecipients
	}
	c.msgs = append(c.msgs, m)
	return nil
}

type centers map[string]*entity.ServiceCenter

func (c centers) GetByID(_ context.Context, id string) (*entity.ServiceCenter, error) {
	return c[id], nil
}

func TestNotifier_Backorder(t *testing.T) {
	s := &captureSender{}
	n := NewNotifier(s, centers{"C1": {ID: "C1", Email: "taller@evcenter.local"}}, logger.Nop())
	appt := &entity.Appointment{
		ID:              "A1",
		CustomerName:    "Ana",
		CustomerEmail:   "ana@example.com",
		ServiceCenterID: "C1",
		ScheduledAt:     time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC),
	}

	err := n.SendBackorderNotification(context.Background(), appt, []domain.Shortage{
		{PartID: "BAT-01", Required: 2, Available: 1},
		{PartID: "FIL-07", Required: 1, Available: 0},
	}, 7)
	require.NoError(t, err)
	require.Len(t, s.msgs, 1)

	msg := s.msgs[0]
	assert.Equal(t, []string{"ana@example.com", "taller@evcenter.local"}, msg.To)
	assert.Contains(t, msg.Subject, "A1")
	assert.Contains(t, msg.Body, "Hola Ana")
	assert.Contains(t, msg.Body, "02/04/2026 09:30")
	assert.Contains(t, msg.Body, "- BAT-01: requerido 2, disponible 1")
	assert.Contains(t, msg.Body, "- FIL-07: requerido 1, disponible 0")
	assert.Contains(t, msg.Body, "7 días")
}

func TestNotifier_BackorderSinDestinatarios(t *testing.T) {
	n := NewNotifier(&captureSender{}, nil, logger.Nop())
	err := n.SendBackorderNotification(context.Background(), &entity.Appointment{ID: "A1"}, []domain.Shortage{{PartID: "P1", Required: 1}}, 7)
	assert.ErrorIs(t, err, ErrNoRecipients)
}

func TestNotifier_CancelacionYRecordatorio(t *testing.T) {
	s := &captureSender{}
	n := NewNotifier(s, nil, logger.Nop())
	appt := &entity.Appointment{
		ID:            "A9",
		CustomerEmail: "luis@example.com",
		VehicleModel:  "Model Y",
		VehicleVIN:    "5YJ3E1EA7KF000001",
		ServiceType:   "revisión de batería",
		ScheduledAt:   time.Date(2026, 6, 10, 14, 0, 0, 0, time.UTC),
		CancelReason:  "pago no recibido",
	}

	require.NoError(t, n.SendCancellationNotice(context.Background(), appt))
	require.NoError(t, n.SendReminder(context.Background(), appt))
	require.Len(t, s.msgs, 2)

	assert.Contains(t, s.msgs[0].Body, "Hola cliente")
	assert.Contains(t, s.msgs[0].Body, "Motivo: pago no recibido")
	assert.Contains(t, s.msgs[1].Body, "revisión de batería el 10/06/2026 14:00")
	assert.Contains(t, s.msgs[1].Body, "VIN 5YJ3E1EA7KF000001")
}

func TestSMTPSender_CircuitoSeAbreTrasFallos(t *testing.T) {
	// Puerto cerrado: cada intento falla rápido al conectar.
	s := NewSMTPSender(config.SMTPConfig{Host: "127.0.0.1", Port: 1, From: "no-reply@evcenter.local"}, logger.Nop())
	msg := Message{To: []string{"a@example.com"}, Subject: "x", Body: "y"}

	for i := 0; i < 3; i++ {
		assert.Error(t, s.Send(context.Background(), msg))
	}
	err := s.Send(context.Background(), msg)
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState), "con el circuito abierto no se intenta conectar: %v", err)

	assert.ErrorIs(t, s.Send(context.Background(), Message{}), ErrNoRecipients)
}

// servidor que acepta conexiones y nunca envía el saludo SMTP.
func silentSMTP(t *testing.T) config.SMTPConfig {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	var conns []net.Conn
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			conns = append(conns, c)
		}
	}()
	t.Cleanup(func() {
		ln.Close()
		<-done
		for _, c := range conns {
			c.Close()
		}
	})
	host, port, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	p, err := strconv.Atoi(port)
	require.NoError(t, err)
	return config.SMTPConfig{Host: host, Port: p, From: "no-reply@evcenter.local"}
}

func TestSMTPSender_ServidorMudoRespetaElTimeout(t *testing.T) {
	cfg := silentSMTP(t)
	cfg.Timeout = 200 * time.Millisecond
	s := NewSMTPSender(cfg, logger.Nop())

	start := time.Now()
	err := s.Send(context.Background(), Message{To: []string{"a@example.com"}, Subject: "x", Body: "y"})
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestSMTPSender_CancelarContextoCortaLaSesion(t *testing.T) {
	cfg := silentSMTP(t)
	cfg.Timeout = time.Minute
	s := NewSMTPSender(cfg, logger.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	start := time.Now()
	err := s.Send(ctx, Message{To: []string{"a@example.com"}, Subject: "x", Body: "y"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}
