package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("America/Santiago")
	if err != nil {
		panic(err)
	}
}

// force timezone to be Santiago no matter where the host runs,
// the registry renders dates in Chilean local time and the target
// date filter compares them verbatim
func Now() time.Time {
	return time.Now().In(Location)
}

const DateLayout = "02/01/2006"

// today's date in the day/month/year form the registry displays
func Today() string {
	return Now().Format(DateLayout)
}

func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
