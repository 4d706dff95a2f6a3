package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveSession_FamilyTakesPrecedence(t *testing.T) {
	s := ResolveSession("abc", "xyz", "42")
	assert.Equal(t, RoleFamily, s.Role)
	assert.Equal(t, "xyz", s.Token)
	assert.Equal(t, "42", s.PatientID)
	assert.True(t, s.Authenticated())
}

func TestResolveSession_AdminAndAnonymous(t *testing.T) {
	admin := ResolveSession("abc", "", "42")
	assert.Equal(t, RoleAdmin, admin.Role)
	assert.Empty(t, admin.PatientID)

	anon := ResolveSession("", "", "42")
	assert.Equal(t, RoleAnonymous, anon.Role)
	assert.False(t, anon.Authenticated())
}

func TestParsePhase(t *testing.T) {
	cases := map[string]SurgeryPhase{
		"preparacion":  PhasePreparation,
		"en_progreso":  PhaseInProgress,
		"finalizada":   PhaseFinished,
		"complicacion": PhaseComplication,
		"Programada":   PhaseUnknown,
		"":             PhaseUnknown,
	}
	for code, want := range cases {
		assert.Equal(t, want, ParsePhase(code), code)
	}
	assert.Equal(t, "Cirugía en Progreso", PhaseInProgress.Label())
	assert.Equal(t, "red", PhaseComplication.Tone())
	assert.Equal(t, "gray", PhaseUnknown.Tone())
	assert.Equal(t, "Estado Desconocido", ParsePhase("x").Label())
}

func TestSurgeryStatus_MissingFieldsRenderPlaceholders(t *testing.T) {
	var s SurgeryStatus
	require.NoError(t, json.Unmarshal([]byte(`{"current_status":"en_progreso"}`), &s))

	assert.Equal(t, PhaseInProgress, s.Phase())
	assert.Equal(t, "---", s.HeartRateText())
	assert.Equal(t, "---/---", s.BloodPressureText())
	assert.Equal(t, "---", s.TemperatureText())
	assert.Equal(t, "---", s.OxygenSaturationText())
	assert.Equal(t, "00:00", s.ElapsedTimeText())
	assert.Equal(t, 0, s.ProgressPercent())
	assert.Empty(t, s.Notifications)
}

func TestSurgeryStatus_CloneIsIndependent(t *testing.T) {
	s := DefaultSurgeryStatus()
	s.Notifications = append(s.Notifications, Notification{Message: "Vitales estables"})

	c := s.Clone()
	c.Notifications[0].Message = "changed"
	assert.Equal(t, "Vitales estables", s.Notifications[0].Message)
	assert.Equal(t, "72", s.HeartRateText())
	assert.Equal(t, "36.5", s.TemperatureText())
}

func TestNotification_Time(t *testing.T) {
	n := Notification{Timestamp: "2025-03-01T10:15:00"}
	ts, ok := n.Time()
	require.True(t, ok)
	assert.Equal(t, 10, ts.Hour())

	n = Notification{Timestamp: "2025-03-01T10:15:00.123Z"}
	_, ok = n.Time()
	assert.True(t, ok)

	_, ok = Notification{Timestamp: "yesterday"}.Time()
	assert.False(t, ok)
}

func TestPatientInfo_DisplayNameAndAge(t *testing.T) {
	var nilPatient *PatientInfo
	assert.Equal(t, "Nombre del Paciente", nilPatient.DisplayName())

	p := &PatientInfo{Nombre: "Ana", Apellido: "Gómez", FechaNacimiento: "1980-06-15"}
	assert.Equal(t, "Ana Gómez", p.DisplayName())

	age, ok := p.Age(time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, 44, age)

	age, ok = p.Age(time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, 45, age)
}
