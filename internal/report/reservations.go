// Package report renders reservation lists as spreadsheets.
package report

import (
	"io"

	"coworking/internal/service"
)

const ReservationsSheet = "Reservations"

var reservationColumns = []string{
	"ID", "Type", "Label", "Instance", "Equipment", "User",
	"Start", "End", "Unit", "Duration", "Status", "Created",
}

func reservationRow(v service.ReservationView) []interface{} {
	var instance interface{} = ""
	if v.InstanceID != 0 {
		instance = v.InstanceID
	}
	return []interface{}{
		v.ID,
		v.ResourceType,
		v.TypeLabel,
		instance,
		v.EquipmentClass,
		v.UserID,
		v.StartDate,
		v.EndDate,
		string(v.DurationUnit),
		v.DurationValue,
		v.Status,
		v.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// WriteReservations writes the rows into a fresh workbook.
func WriteReservations(out io.Writer, views []service.ReservationView) error {
	w := NewExcelizeWriter()
	defer w.Close()
	return writeReservations(w, out, views)
}

func writeReservations(w ExcelWriter, out io.Writer, views []service.ReservationView) error {
	if err := w.AddSheet(ReservationsSheet); err != nil {
		return err
	}
	if err := w.WriteHeader(reservationColumns); err != nil {
		return err
	}
	for _, v := range views {
		if err := w.WriteRow(reservationRow(v)); err != nil {
			return err
		}
	}
	return w.Save(out)
}
