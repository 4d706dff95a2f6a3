package models

import (
	"strings"
	"time"
)

// PatientInfo 家属端展示的患者基本信息
type PatientInfo struct {
	ID              int    `json:"id"`
	Nombre          string `json:"nombre"`
	Apellido        string `json:"apellido"`
	Cedula          string `json:"cedula,omitempty"`
	FechaNacimiento string `json:"fecha_nacimiento,omitempty"`
	Sexo            string `json:"sexo,omitempty"`
	Telefono        string `json:"telefono,omitempty"`
	EPS             string `json:"eps,omitempty"`
	TipoSangre      string `json:"tipo_sangre,omitempty"`
}

// DisplayName 全名，缺失时使用占位
func (p *PatientInfo) DisplayName() string {
	if p == nil {
		return "Nombre del Paciente"
	}
	name := strings.TrimSpace(p.Nombre + " " + p.Apellido)
	if name == "" {
		return "Nombre del Paciente"
	}
	return name
}

// Age 按出生日期计算年龄，无法解析时返回 false
func (p *PatientInfo) Age(now time.Time) (int, bool) {
	if p == nil || p.FechaNacimiento == "" {
		return 0, false
	}
	birth, err := time.Parse("2006-01-02", p.FechaNacimiento)
	if err != nil {
		return 0, false
	}
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return age, true
}

// FamilyPatientResponse GET /family/patient/{id} 的响应
type FamilyPatientResponse struct {
	Patient       *PatientInfo   `json:"patient"`
	SurgeryStatus *SurgeryStatus `json:"surgery_status"`
}

// Snapshot 状态源产出的一次完整快照
type Snapshot struct {
	PatientID string        `json:"patient_id"`
	Source    string        `json:"source"`
	Patient   *PatientInfo  `json:"patient,omitempty"`
	Status    SurgeryStatus `json:"surgery_status"`
	FetchedAt time.Time     `json:"fetched_at"`
	Seq       uint64        `json:"seq"`
}
