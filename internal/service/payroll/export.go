package payroll

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/service/timesheet"
	"github.com/xuri/excelize/v2"
)

const exportSheet = "Timesheet"

var exportHeaders = []string{
	"Date", "Arrival", "Lunch Out", "Lunch Return", "Departure",
	"Hours Worked", "Expected", "Overtime", "Shortfall", "Off Day",
}

// ExportXLSX implements payroll.PayrollService. A month without a stored period exports
// an empty breakdown.
func (s *PayrollServiceImpl) ExportXLSX(ctx context.Context, req payroll.ExportRequest, w io.Writer) error {
	if err := req.Validate(); err != nil {
		return err
	}

	employeeID, err := s.authorize(ctx, req.EmployeeID)
	if err != nil {
		return err
	}

	emp, err := s.employeeRepo.GetByID(ctx, employeeID)
	if err != nil {
		return err
	}

	start, end, err := payroll.MonthBounds(time.Date(req.Year, time.Month(req.Month), 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		return err
	}

	period, err := s.periodRepo.GetByEmployeePeriod(ctx, employeeID, start, end)
	if err != nil {
		if !errors.Is(err, payroll.ErrPeriodNotFound) {
			return err
		}
		period = payroll.Period{
			EmployeeID:  employeeID,
			PeriodStart: start,
			PeriodEnd:   end,
			HourlyRate:  s.cfg.DefaultHourlyRate,
		}
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(exportSheet)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to remove default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	f.SetCellValue(exportSheet, "A1", "Employee")
	f.SetCellValue(exportSheet, "B1", emp.Name)
	f.SetCellValue(exportSheet, "A2", "Period")
	f.SetCellValue(exportSheet, "B2", fmt.Sprintf("%s to %s", start.Format("2006-01-02"), end.Format("2006-01-02")))

	const headerRow = 4
	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, headerRow)
		f.SetCellValue(exportSheet, cell, h)
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(exportHeaders), headerRow)
	f.SetCellStyle(exportSheet, "A4", lastHeader, headerStyle)

	row := headerRow + 1
	for _, d := range period.Days {
		values := []interface{}{
			d.Date,
			s.clock(d.Arrival),
			s.clock(d.LunchOut),
			s.clock(d.LunchReturn),
			s.clock(d.Departure),
			d.HoursWorked,
			expectedCell(d.ExpectedHours),
			d.OvertimeHours,
			d.ShortfallHours,
			yesNo(d.IsOffDay),
		}
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			f.SetCellValue(exportSheet, cell, v)
		}
		row++
	}

	row++
	totals := [][]interface{}{
		{"Total Hours", timesheet.FormatHours(period.TotalHours)},
		{"Overtime", timesheet.FormatHours(period.TotalOvertimeHours)},
		{"Shortfall", timesheet.FormatHours(period.TotalShortfallHours)},
		{"Hourly Rate", period.HourlyRate.StringFixed(2)},
		{"Fixed Deductions", period.FixedDeductions.StringFixed(2)},
		{"Net Pay", period.NetPay.StringFixed(2)},
	}
	for _, t := range totals {
		f.SetCellValue(exportSheet, fmt.Sprintf("A%d", row), t[0])
		f.SetCellValue(exportSheet, fmt.Sprintf("B%d", row), t[1])
		row++
	}

	f.SetColWidth(exportSheet, "A", "A", 18)
	f.SetColWidth(exportSheet, "B", "J", 14)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func (s *PayrollServiceImpl) clock(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.In(s.cfg.Location).Format("15:04")
}

func expectedCell(h *float64) interface{} {
	if h == nil {
		return ""
	}
	return *h
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
