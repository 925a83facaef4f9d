package timeutil

import (
	"time"
)

// IST is the Indian Standard Time location (UTC+5:30)
var IST *time.Location

func init() {
	var err error
	IST, err = time.LoadLocation("Asia/Kolkata")
	if err != nil {
		// Fallback: create fixed zone if Asia/Kolkata not available
		IST = time.FixedZone("IST", 5*60*60+30*60)
	}
}

// Now returns the current time in IST
func Now() time.Time {
	return time.Now().In(IST)
}

// FormatIST formats a time in IST using the given layout
func FormatIST(t time.Time, layout string) string {
	return t.In(IST).Format(layout)
}

// Common layouts for IST formatting
const (
	DateLayout      = "2006-01-02"
	DisplayLayout   = "02 Jan 2006, 03:04 PM"
	ReferenceLayout = "20060102150405"  // payment references
	UploadLayout    = "20060102_150405" // upload file names
)
