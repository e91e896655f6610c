package resources

import (
	"context"

	"github.com/pkg/errors"

	"github.com/Termicotra/agendamiento/agenda/client"
)

var (
	// ErrNoIdentityDocument means the user profile carries no identity number.
	ErrNoIdentityDocument = errors.New("the user profile has no identity number")
	// ErrNoPatient means no patient matches the identity number of the profile.
	ErrNoPatient = errors.New("no patient is linked to this user")
)

// MyHistory finds the patient matching the identity number of profile and
// returns it with its clinical records.
func (c *Catalog) MyHistory(ctx context.Context, profile client.Record) (client.Record, []client.Record, error) {
	ci := profileCI(profile)
	if ci == "" {
		return nil, nil, ErrNoIdentityDocument
	}

	patients, err := c.Patients.List(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	var patient client.Record
	for _, p := range patients {
		if Scalar(p["ci"]) == ci {
			patient = p
			break
		}
	}
	if patient == nil {
		return nil, nil, ErrNoPatient
	}
	patientID := c.Patients.ID(patient)

	records, err := c.ClinicalRecords.List(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	mine := []client.Record{}
	for _, r := range records {
		if Scalar(nestedID(r["paciente"], "id_paciente")) == patientID {
			mine = append(mine, r)
		}
	}
	return patient, mine, nil
}

func profileCI(profile client.Record) string {
	if data, ok := profile["perfil_data"].(map[string]interface{}); ok {
		if ci := Scalar(data["ci"]); ci != "" {
			return ci
		}
	}
	return Scalar(profile["ci"])
}
