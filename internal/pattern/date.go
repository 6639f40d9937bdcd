package pattern

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

type relativeMarker struct {
	terms      []string
	offset     time.Duration
	isDayLevel bool
}

// relativeMarkers are checked before absolute dates, in this order.
var relativeMarkers = []relativeMarker{
	{terms: []string{"yesterday", "เมื่อวาน"}, offset: -24 * time.Hour, isDayLevel: true},
	{terms: []string{"today", "วันนี้"}, offset: 0, isDayLevel: true},
	{terms: []string{"last week", "สัปดาห์ที่แล้ว"}, offset: -7 * 24 * time.Hour},
	{terms: []string{"last month", "เดือนที่แล้ว"}, offset: -30 * 24 * time.Hour},
}

var englishMonths = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// ThaiMonths maps Thai month names and abbreviations to months.
var ThaiMonths = map[string]time.Month{
	"ม.ค.": time.January, "มกราคม": time.January,
	"ก.พ.": time.February, "กุมภาพันธ์": time.February,
	"มี.ค.": time.March, "มีนาคม": time.March,
	"เม.ย.": time.April, "เมษายน": time.April,
	"พ.ค.": time.May, "พฤษภาคม": time.May,
	"มิ.ย.": time.June, "มิถุนายน": time.June,
	"ก.ค.": time.July, "กรกฎาคม": time.July,
	"ส.ค.": time.August, "สิงหาคม": time.August,
	"ก.ย.": time.September, "กันยายน": time.September,
	"ต.ค.": time.October, "ตุลาคม": time.October,
	"พ.ย.": time.November, "พฤศจิกายน": time.November,
	"ธ.ค.": time.December, "ธันวาคม": time.December,
}

var (
	numericDateRe = regexp.MustCompile(`(\d{1,2})[/-](\d{1,2})[/-](\d{2,4})`)
	englishDateRe = regexp.MustCompile(`(?i)(\d{1,2})\s+(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?,?\s+(\d{2,4})`)
	thaiDateRe    = regexp.MustCompile(`(\d{1,2})\s*(ม\.ค\.|ก\.พ\.|มี\.ค\.|เม\.ย\.|พ\.ค\.|มิ\.ย\.|ก\.ค\.|ส\.ค\.|ก\.ย\.|ต\.ค\.|พ\.ย\.|ธ\.ค\.|มกราคม|กุมภาพันธ์|มีนาคม|เมษายน|พฤษภาคม|มิถุนายน|กรกฎาคม|สิงหาคม|กันยายน|ตุลาคม|พฤศจิกายน|ธันวาคม)\s*(\d{2,4})`)
)

type dateMatch struct {
	date     time.Time
	relative bool
	dayLevel bool
}

// findDate resolves relative markers against now, then absolute dates.
// Absolute dates are midnight in now's location. Impossible calendar dates
// such as 31/02 are ignored.
func findDate(text, lang string, now time.Time) (dateMatch, bool) {
	lower := strings.ToLower(text)
	for _, marker := range relativeMarkers {
		for _, term := range marker.terms {
			if strings.Contains(lower, term) {
				return dateMatch{date: now.Add(marker.offset), relative: true, dayLevel: marker.isDayLevel}, true
			}
		}
	}

	if m := numericDateRe.FindAllStringSubmatch(text, -1); m != nil {
		for _, parts := range m {
			day, _ := strconv.Atoi(parts[1])
			month, _ := strconv.Atoi(parts[2])
			if d, ok := buildDate(parts[3], time.Month(month), day, lang, now.Location()); ok {
				return dateMatch{date: d}, true
			}
		}
	}

	if m := englishDateRe.FindStringSubmatch(text); m != nil {
		day, _ := strconv.Atoi(m[1])
		if d, ok := buildDate(m[3], englishMonths[strings.ToLower(m[2])], day, lang, now.Location()); ok {
			return dateMatch{date: d}, true
		}
	}

	if m := thaiDateRe.FindStringSubmatch(text); m != nil {
		day, _ := strconv.Atoi(m[1])
		if d, ok := buildDate(m[3], ThaiMonths[m[2]], day, LanguageThai, now.Location()); ok {
			return dateMatch{date: d}, true
		}
	}

	return dateMatch{}, false
}

func buildDate(yearText string, month time.Month, day int, lang string, loc *time.Location) (time.Time, bool) {
	year, err := strconv.Atoi(yearText)
	if err != nil {
		return time.Time{}, false
	}
	if year < 100 {
		year += 2000
	}
	if lang == LanguageThai && year > 2400 {
		year -= 543
	}
	if month < time.January || month > time.December || day < 1 {
		return time.Time{}, false
	}

	d := time.Date(year, month, day, 0, 0, 0, 0, loc)
	if d.Day() != day || d.Month() != month {
		return time.Time{}, false
	}
	return d, true
}
