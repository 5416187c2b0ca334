package period

import "weatherday/internal/modules/weather/types"

// Classify buckets a reading hour relative to the day's sunrise and sunset.
//
// Classification is at hour granularity. The sunrise hour itself counts as
// pre-sunrise. The sunset hour counts as post-sunset only when sunset falls
// exactly on the hour; otherwise the whole sunset hour is daytime.
func Classify(hour, sunriseHour, sunsetHour, sunsetMinute int) types.Period {
	if hour <= sunriseHour {
		return types.PreSunrise
	}
	if hour > sunsetHour || (hour == sunsetHour && sunsetMinute == 0) {
		return types.PostSunset
	}
	return types.Day
}

// ClassifyDay is Classify with the boundaries taken from d.
func ClassifyDay(hour int, d types.DayLength) types.Period {
	return Classify(hour, d.SunriseHour, d.SunsetHour, d.SunsetMinute)
}
