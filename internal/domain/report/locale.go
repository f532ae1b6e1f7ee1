package report

import "time"

// Locale supplies human-readable calendar names for reports so the core
// stays testable without platform locale dependencies.
type Locale struct {
	MonthNames   [12]string
	WeekdayNames [7]string // indexed by time.Weekday, Sunday first
}

// LocaleEN is the default English name table.
var LocaleEN = Locale{
	MonthNames: [12]string{
		"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December",
	},
	WeekdayNames: [7]string{
		"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday",
	},
}

// LocaleES provides Spanish calendar names.
var LocaleES = Locale{
	MonthNames: [12]string{
		"enero", "febrero", "marzo", "abril", "mayo", "junio",
		"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
	},
	WeekdayNames: [7]string{
		"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado",
	},
}

// LocaleByName resolves a configured locale code, defaulting to English.
func LocaleByName(name string) Locale {
	switch name {
	case "es", "es-ES", "es-MX":
		return LocaleES
	default:
		return LocaleEN
	}
}

// MonthName returns the localized name for a month number (1-12).
func (l Locale) MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return l.MonthNames[month-1]
}

// WeekdayName returns the localized name for a weekday.
func (l Locale) WeekdayName(day time.Weekday) string {
	return l.WeekdayNames[int(day)]
}
