package schema

import "time"

// DateParts are the calendar attributes stored on a dim_date row.
type DateParts struct {
	Year      int
	Quarter   int
	Month     int
	DayOfWeek int
	IsWeekend bool
}

// PartsOf computes the calendar attributes of t. Day of week follows the
// Sunday=0 .. Saturday=6 convention, weekend means Saturday or Sunday.
func PartsOf(t time.Time) DateParts {
	dow := int(t.Weekday())
	return DateParts{
		Year:      t.Year(),
		Quarter:   (int(t.Month())-1)/3 + 1,
		Month:     int(t.Month()),
		DayOfWeek: dow,
		IsWeekend: dow == 0 || dow == 6,
	}
}
