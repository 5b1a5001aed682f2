// Package vacation maps vacation periods onto calendar days.
// Lookups are linear scans over the in-memory lists; results keep the
// insertion order of the vacation list.
package vacation

import (
	"time"

	"github.com/username/vacation-calendar/internal/models"
	"github.com/username/vacation-calendar/pkg/dateutil"
)

// Covering returns the (vacation, employee) pairs whose range contains date.
// Periods whose employee is not in employees are skipped.
func Covering(date time.Time, vacations []models.VacationPeriod, employees []models.Employee) []models.Coverage {
	var result []models.Coverage
	for _, v := range vacations {
		if !v.Contains(date) {
			continue
		}
		emp, ok := findEmployee(employees, v.EmployeeID)
		if !ok {
			continue
		}
		result = append(result, models.Coverage{Vacation: v, Employee: emp})
	}
	return result
}

// Present returns every period containing date, resolved or not
func Present(date time.Time, vacations []models.VacationPeriod) []models.VacationPeriod {
	var result []models.VacationPeriod
	for _, v := range vacations {
		if v.Contains(date) {
			result = append(result, v)
		}
	}
	return result
}

// CoveredFor reports whether employeeID already has a vacation on date.
// Periods count even when their employee is not loaded.
func CoveredFor(date time.Time, employeeID string, vacations []models.VacationPeriod) bool {
	for _, v := range Present(date, vacations) {
		if v.EmployeeID == employeeID {
			return true
		}
	}
	return false
}

// TotalDays sums the lengths of all vacations of employeeID
func TotalDays(employeeID string, vacations []models.VacationPeriod) int {
	total := 0
	for _, v := range vacations {
		if v.EmployeeID == employeeID {
			total += dateutil.DaysCount(v.StartDate, v.EndDate)
		}
	}
	return total
}

// ForEmployee filters the vacations of one employee, order preserved
func ForEmployee(employeeID string, vacations []models.VacationPeriod) []models.VacationPeriod {
	var result []models.VacationPeriod
	for _, v := range vacations {
		if v.EmployeeID == employeeID {
			result = append(result, v)
		}
	}
	return result
}

func findEmployee(employees []models.Employee, id string) (models.Employee, bool) {
	for _, e := range employees {
		if e.ID == id {
			return e, true
		}
	}
	return models.Employee{}, false
}
