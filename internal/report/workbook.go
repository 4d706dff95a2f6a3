package report

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"siacom-console/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	StatusSheet        = "Status"
	NotificationsSheet = "Notifications"
)

// NotificationsHeader 通知表表头
var NotificationsHeader = []string{"Timestamp", "Message"}

// BuildStatusWorkbook 把一份快照导出为 Excel：
//   - Status：患者信息与手术状态（字段/值两列）
//   - Notifications：全部通知，最旧的在前
func BuildStatusWorkbook(snap models.Snapshot, now time.Time) ([]byte, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(StatusSheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if _, err := f.NewSheet(NotificationsSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeStatusSheet(f, snap, now, headerStyle); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeNotificationsSheet(f, snap.Status.Notifications, headerStyle); err != nil {
		f.Close()
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write to buffer: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}
	return buf.Bytes(), nil
}

func writeStatusSheet(f *excelize.File, snap models.Snapshot, now time.Time, headerStyle int) error {
	st := snap.Status
	phase := st.Phase()

	rows := [][2]string{
		{"Field", "Value"},
		{"Patient ID", snap.PatientID},
		{"Patient", snap.Patient.DisplayName()},
	}
	if snap.Patient != nil {
		if age, ok := snap.Patient.Age(now); ok {
			rows = append(rows, [2]string{"Age", strconv.Itoa(age)})
		}
		if snap.Patient.TipoSangre != "" {
			rows = append(rows, [2]string{"Blood Type", snap.Patient.TipoSangre})
		}
	}
	rows = append(rows,
		[2]string{"Status", phase.Label()},
		[2]string{"Status Code", st.CurrentStatus},
		[2]string{"Progress (%)", strconv.Itoa(st.ProgressPercent())},
		[2]string{"Elapsed Time", st.ElapsedTimeText()},
		[2]string{"Heart Rate (bpm)", st.HeartRateText()},
		[2]string{"Blood Pressure", st.BloodPressureText()},
		[2]string{"Temperature (°C)", st.TemperatureText()},
		[2]string{"Oxygen Saturation (%)", st.OxygenSaturationText()},
		[2]string{"Source", snap.Source},
		[2]string{"Sequence", strconv.FormatUint(snap.Seq, 10)},
	)
	if !snap.FetchedAt.IsZero() {
		rows = append(rows, [2]string{"Fetched At", snap.FetchedAt.Format("2006-01-02 15:04:05")})
	}

	for i, row := range rows {
		if err := f.SetSheetRow(StatusSheet, fmt.Sprintf("A%d", i+1), &[]any{row[0], row[1]}); err != nil {
			return fmt.Errorf("failed to write status row %d: %w", i+1, err)
		}
	}
	if err := f.SetCellStyle(StatusSheet, "A1", "B1", headerStyle); err != nil {
		return fmt.Errorf("failed to set header style: %w", err)
	}
	if err := f.SetColWidth(StatusSheet, "A", "A", 24); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}
	if err := f.SetColWidth(StatusSheet, "B", "B", 32); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}
	return nil
}

func writeNotificationsSheet(f *excelize.File, notifications []models.Notification, headerStyle int) error {
	if err := f.SetSheetRow(NotificationsSheet, "A1", &NotificationsHeader); err != nil {
		return fmt.Errorf("failed to write notifications header: %w", err)
	}
	if err := f.SetCellStyle(NotificationsSheet, "A1", "B1", headerStyle); err != nil {
		return fmt.Errorf("failed to set header style: %w", err)
	}

	for i, n := range notifications {
		ts := n.Timestamp
		if t, ok := n.Time(); ok {
			ts = t.Format("2006-01-02 15:04:05")
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetSheetRow(NotificationsSheet, cell, &[]any{ts, n.Message}); err != nil {
			return fmt.Errorf("failed to write notification row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(NotificationsSheet, "A", "A", 22); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}
	if err := f.SetColWidth(NotificationsSheet, "B", "B", 40); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}

	// 冻结表头
	if err := f.SetPanes(NotificationsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze panes: %w", err)
	}
	return nil
}
