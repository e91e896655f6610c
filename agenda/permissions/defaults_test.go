package permissions

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRoleDefaults(t *testing.T) {
	d, err := LoadRoleDefaults("testdata/roles.toml")
	require.NoError(t, err)
	assert.Len(t, d, 4)
	assert.Contains(t, d[RoleDoctor], Build(MedicalReports, Create))

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	snap, ok := d.Snapshot([]string{RoleReceptionist, RolePatient}, now)
	assert.True(t, ok)
	assert.Equal(t, []string{"dashboard", "historialclinico", "paciente", "turno"}, snap.Modules)
	assert.Equal(t, []string{
		"dashboard.view", "historialclinico.view", "paciente.create",
		"paciente.view", "turno.create", "turno.view",
	}, snap.Permissions)
	assert.Equal(t, now, snap.Timestamp)

	_, ok = d.Snapshot([]string{"desconocido"}, now)
	assert.False(t, ok)
	_, ok = RoleDefaults(nil).Snapshot([]string{RoleDoctor}, now)
	assert.False(t, ok)
}

func TestLoadRoleDefaultsErrors(t *testing.T) {
	_, err := LoadRoleDefaults("testdata/missing.toml")
	assert.Error(t, err)

	_, err = LoadRoleDefaults("testdata/broken.toml")
	assert.Error(t, err)
}
