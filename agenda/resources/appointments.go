package resources

import (
	"context"

	"github.com/pkg/errors"

	"github.com/Termicotra/agendamiento/agenda/client"
	"github.com/Termicotra/agendamiento/agenda/constants"
)

// Appointments adds state transitions to the appointment collection.
type Appointments struct {
	*Resource
}

// Pending lists appointments waiting for confirmation.
func (a *Appointments) Pending(ctx context.Context) ([]client.Record, error) {
	return a.List(ctx, Filters{"estado": constants.AppointmentPending})
}

func (a *Appointments) Complete(ctx context.Context, id string) (client.Record, error) {
	return a.Patch(ctx, id, client.Record{"estado": constants.AppointmentCompleted})
}

func (a *Appointments) Cancel(ctx context.Context, id string) (client.Record, error) {
	return a.Patch(ctx, id, client.Record{"estado": constants.AppointmentCancelled})
}

// Activate confirms a pending appointment. The API expects the whole
// appointment with flat foreign keys, so the record is read back first.
func (a *Appointments) Activate(ctx context.Context, id string) (client.Record, error) {
	current, err := a.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	update := client.Record{
		"paciente_id":    nestedID(current["paciente"], "id_paciente"),
		"profesional_id": nestedID(current["profesional"], "id_profesional"),
		"empleado_id":    nestedID(current["empleado"], "id_empleado"),
		"fecha":          current["fecha"],
		"hora":           current["hora"],
		"motivo":         current["motivo"],
		"fue_notificado": current["fue_notificado"],
		"estado":         constants.AppointmentActive,
	}
	if update["paciente_id"] == nil || update["profesional_id"] == nil {
		return nil, errors.Errorf("appointment %s has no patient or professional", id)
	}
	return a.Update(ctx, id, update)
}

// nestedID reads field from an embedded object. Plain ids pass through.
func nestedID(v interface{}, field string) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		if id, ok := t[field]; ok {
			return id
		}
		return t["id"]
	case nil:
		return nil
	}
	return v
}
