package services

import (
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/de"
	"github.com/rickar/cal/v2/es"
	"github.com/rickar/cal/v2/fr"
	"github.com/rickar/cal/v2/gb"
	"github.com/rickar/cal/v2/it"
	"github.com/rickar/cal/v2/pt"
	"github.com/rickar/cal/v2/us"
)

// CalendarService answers business-day questions for due-date
// reminders. Unknown country codes degrade to plain weekday checks.
type CalendarService struct {
	calendars map[string]*cal.BusinessCalendar
}

func NewCalendarService() *CalendarService {
	s := &CalendarService{
		calendars: make(map[string]*cal.BusinessCalendar),
	}
	s.initCalendars()
	return s
}

func (s *CalendarService) initCalendars() {
	s.calendars["US"] = s.createCalendar("United States", us.Holidays...)
	s.calendars["GB"] = s.createCalendar("United Kingdom", gb.Holidays...)
	s.calendars["DE"] = s.createCalendar("Germany", de.Holidays...)
	s.calendars["FR"] = s.createCalendar("France", fr.Holidays...)
	s.calendars["ES"] = s.createCalendar("Spain", es.Holidays...)
	s.calendars["IT"] = s.createCalendar("Italy", it.Holidays...)
	s.calendars["PT"] = s.createCalendar("Portugal", pt.Holidays...)
}

func (s *CalendarService) createCalendar(name string, holidays ...*cal.Holiday) *cal.BusinessCalendar {
	c := cal.NewBusinessCalendar()
	c.Name = name
	c.AddHoliday(holidays...)
	return c
}

// IsWorkday reports whether t is a business day in the given country.
func (s *CalendarService) IsWorkday(t time.Time, countryCode string) bool {
	c, ok := s.calendars[countryCode]
	if !ok {
		return !cal.IsWeekend(t)
	}
	return c.IsWorkday(t)
}

// BusinessDaysUntil counts business days from `from` (exclusive) up to
// and including `to`. Returns 0 when `to` is not after `from`.
func (s *CalendarService) BusinessDaysUntil(from, to time.Time, countryCode string) int {
	days := 0
	d := from.Truncate(24 * time.Hour).Add(24 * time.Hour)
	end := to.Truncate(24 * time.Hour)
	for !d.After(end) {
		if s.IsWorkday(d, countryCode) {
			days++
		}
		d = d.Add(24 * time.Hour)
	}
	return days
}
