package mail

import (
	"context"
	"fmt"

	"github.com/jhoicas/evcenter-api/internal/application/ports"
	"github.com/jhoicas/evcenter-api/internal/domain"
	"github.com/jhoicas/evcenter-api/internal/domain/entity"
	"github.com/jhoicas/evcenter-api/pkg/logger"
)

var (
	_ ports.BackorderNotifier   = (*Notifier)(nil)
	_ ports.AppointmentNotifier = (*Notifier)(nil)
)

// CenterReader consulta el centro para copiar los avisos a su correo.
type CenterReader interface {
	GetByID(ctx context.Context, id string) (*entity.ServiceCenter, error)
}

// Notifier arma los avisos y los entrega con el Sender configurado.
type Notifier struct {
	sender  Sender
	centers CenterReader
	tmpl    *renderer
	log     *logger.Logger
}

// NewNotifier crea el notificador. centers puede ser nil.
func NewNotifier(sender Sender, centers CenterReader, log *logger.Logger) *Notifier {
	return &Notifier{sender: sender, centers: centers, tmpl: newRenderer(), log: log.Component("notifier")}
}

// SendBackorderNotification avisa al cliente y al centro qué repuestos faltan.
func (n *Notifier) SendBackorderNotification(ctx context.Context, appt *entity.Appointment, shortages []domain.Shortage, leadTimeDays int) error {
	body, err := render(n.tmpl.backorder, struct {
		Appointment  *entity.Appointment
		Shortages    []domain.Shortage
		LeadTimeDays int
	}{appt, shortages, leadTimeDays})
	if err != nil {
		return err
	}
	return n.send(ctx, appt, fmt.Sprintf("Repuestos pendientes para su cita %s", appt.ID), body)
}

// SendCancellationNotice avisa la cancelación de la cita.
func (n *Notifier) SendCancellationNotice(ctx context.Context, appt *entity.Appointment) error {
	body, err := render(n.tmpl.cancellation, appt)
	if err != nil {
		return err
	}
	return n.send(ctx, appt, fmt.Sprintf("Cita %s cancelada", appt.ID), body)
}

// SendReminder recuerda una cita próxima al cliente.
func (n *Notifier) SendReminder(ctx context.Context, appt *entity.Appointment) error {
	body, err := render(n.tmpl.reminder, appt)
	if err != nil {
		return err
	}
	if appt.CustomerEmail == "" {
		return ErrNoRecipients
	}
	return n.sender.Send(ctx, Message{To: []string{appt.CustomerEmail}, Subject: "Recordatorio de su cita", Body: body})
}

func (n *Notifier) send(ctx context.Context, appt *entity.Appointment, subject, body string) error {
	var to []string
	if appt.CustomerEmail != "" {
		to = append(to, appt.CustomerEmail)
	}
	if n.centers != nil && appt.ServiceCenterID != "" {
		center, err := n.centers.GetByID(ctx, appt.ServiceCenterID)
		if err != nil {
			n.log.Warn().Err(err).Str("service_center_id", appt.ServiceCenterID).Msg("no se pudo consultar el correo del centro")
		} else if center != nil && center.Email != "" {
			to = append(to, center.Email)
		}
	}
	return n.sender.Send(ctx, Message{To: to, Subject: subject, Body: body})
}
