package models

// SurgeryPhase 手术阶段
type SurgeryPhase int

const (
	PhaseUnknown SurgeryPhase = iota
	PhasePreparation
	PhaseInProgress
	PhaseFinished
	PhaseComplication
)

// ParsePhase 将后端状态码映射为阶段，未知值归为 PhaseUnknown
func ParsePhase(code string) SurgeryPhase {
	switch code {
	case "preparacion":
		return PhasePreparation
	case "en_progreso":
		return PhaseInProgress
	case "finalizada":
		return PhaseFinished
	case "complicacion":
		return PhaseComplication
	default:
		return PhaseUnknown
	}
}

// Code 后端状态码
func (p SurgeryPhase) Code() string {
	switch p {
	case PhasePreparation:
		return "preparacion"
	case PhaseInProgress:
		return "en_progreso"
	case PhaseFinished:
		return "finalizada"
	case PhaseComplication:
		return "complicacion"
	default:
		return "desconocido"
	}
}

// Label 面向家属/医护的显示文本
func (p SurgeryPhase) Label() string {
	switch p {
	case PhasePreparation:
		return "En Preparación"
	case PhaseInProgress:
		return "Cirugía en Progreso"
	case PhaseFinished:
		return "Cirugía Finalizada"
	case PhaseComplication:
		return "Complicación Detectada"
	default:
		return "Estado Desconocido"
	}
}

// Tone 状态色调
func (p SurgeryPhase) Tone() string {
	switch p {
	case PhasePreparation:
		return "yellow"
	case PhaseInProgress:
		return "blue"
	case PhaseFinished:
		return "green"
	case PhaseComplication:
		return "red"
	default:
		return "gray"
	}
}

func (p SurgeryPhase) String() string {
	return p.Code()
}
