package codec

import (
	"encoding/binary"
	"fmt"
	"time"
)

// Date is a calendar date with no time-of-day component.
type Date struct {
	Year  int16
	Month uint8
	Day   uint8
}

func NewDate(year int, month, day int) (Date, error) {
	d := Date{Year: int16(year), Month: uint8(month), Day: uint8(day)}
	if err := d.validate(); err != nil {
		return Date{}, err
	}
	return d, nil
}

func (d Date) validate() error {
	if d.Month < 1 || d.Month > 12 {
		return errDecode("Date", fmt.Sprintf("invalid month %d", d.Month))
	}
	maxDay := daysIn(int(d.Month), int(d.Year))
	if d.Day < 1 || int(d.Day) > maxDay {
		return errDecode("Date", fmt.Sprintf("invalid day %d for month %d", d.Day, d.Month))
	}
	return nil
}

func daysIn(month, year int) int {
	t := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC)
	return t.Day()
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

func encodeDate(d Date) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint16(buf[0:2], uint16(d.Year))
	buf[2] = d.Month
	buf[3] = d.Day
	return buf
}

func decodeDate(b []byte) (Date, error) {
	if len(b) != 4 {
		return Date{}, errDecodeLen("Date", 4, len(b))
	}
	d := Date{
		Year:  int16(binary.LittleEndian.Uint16(b[0:2])),
		Month: b[2],
		Day:   b[3],
	}
	if err := d.validate(); err != nil {
		return Date{}, err
	}
	return d, nil
}

// DateTime is a UTC instant with nanosecond precision, encoded
// as nanoseconds since the Unix epoch.
func encodeDateTime(t time.Time) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, uint64(t.UTC().UnixNano()))
	return buf
}

func decodeDateTime(b []byte) (time.Time, error) {
	if len(b) != 8 {
		return time.Time{}, errDecodeLen("DateTime", 8, len(b))
	}
	ns := int64(binary.LittleEndian.Uint64(b))
	return time.Unix(0, ns).UTC(), nil
}
