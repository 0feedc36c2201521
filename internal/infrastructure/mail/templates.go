package mail

import (
	"bytes"
	"fmt"
	"text/template"
)

const backorderTmpl = `Hola {{if .Appointment.CustomerName}}{{.Appointment.CustomerName}}{{else}}cliente{{end}},

No hay stock suficiente para la cita {{.Appointment.ID}}{{if not .Appointment.ScheduledAt.IsZero}} programada para el {{.Appointment.ScheduledAt.Format "02/01/2006 15:04"}}{{end}}.

Repuestos pendientes:
{{range .Shortages}}- {{.PartID}}: requerido {{.Required}}, disponible {{.Available}}
{{end}}
Tiempo estimado de reposición: {{.LeadTimeDays}} días.
El centro se comunicará para reprogramar si es necesario.
`

const cancellationTmpl = `Hola {{if .CustomerName}}{{.CustomerName}}{{else}}cliente{{end}},

La cita {{.ID}}{{if .VehicleModel}} para su {{.VehicleModel}}{{end}} fue cancelada.
{{if .CancelReason}}Motivo: {{.CancelReason}}
{{end}}
Puede agendar una nueva cita cuando lo desee.
`

const reminderTmpl = `Hola {{if .CustomerName}}{{.CustomerName}}{{else}}cliente{{end}},

Le recordamos su cita de {{.ServiceType}} el {{.ScheduledAt.Format "02/01/2006 15:04"}}.
{{if .VehicleVIN}}Vehículo: {{.VehicleModel}} (VIN {{.VehicleVIN}})
{{end}}`

// renderer plantillas de texto de los avisos.
type renderer struct {
	backorder    *template.Template
	cancellation *template.Template
	reminder     *template.Template
}

func newRenderer() *renderer {
	return &renderer{
		backorder:    template.Must(template.New("backorder").Parse(backorderTmpl)),
		cancellation: template.Must(template.New("cancellation").Parse(cancellationTmpl)),
		reminder:     template.Must(template.New("reminder").Parse(reminderTmpl)),
	}
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("mail: plantilla %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}
