package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLocale_MonthName(t *testing.T) {
	assert.Equal(t, "January", LocaleEN.MonthName(1))
	assert.Equal(t, "December", LocaleEN.MonthName(12))
	assert.Equal(t, "enero", LocaleES.MonthName(1))
	assert.Equal(t, "", LocaleEN.MonthName(0))
	assert.Equal(t, "", LocaleEN.MonthName(13))
}

func TestLocale_WeekdayName(t *testing.T) {
	assert.Equal(t, "Sunday", LocaleEN.WeekdayName(time.Sunday))
	assert.Equal(t, "sábado", LocaleES.WeekdayName(time.Saturday))
}

func TestLocaleByName(t *testing.T) {
	assert.Equal(t, LocaleES, LocaleByName("es"))
	assert.Equal(t, LocaleES, LocaleByName("es-MX"))
	assert.Equal(t, LocaleEN, LocaleByName("en"))
	assert.Equal(t, LocaleEN, LocaleByName(""))
}
