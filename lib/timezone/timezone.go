package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		panic(err)
	}
}

// force timezone to be in São Paulo because the retailers we scrape and the
// channels we publish to all run on Brasília time while our servers don't,
// which will cause disturbances when manipulating dates based on
// <time.Time>.Year()/Month()/Day()/Hour()/...
func Now() time.Time {
	return time.Now().In(Location)
}

// DayWindow returns the start of the calendar day containing t and the
// start of the following day, both on Brasília time. Offers count as
// same-day duplicates when their creation time falls inside this window.
func DayWindow(t time.Time) (time.Time, time.Time) {
	local := t.In(Location)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, Location)
	return start, start.AddDate(0, 0, 1)
}
