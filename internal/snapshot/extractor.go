package snapshot

import (
	"fmt"
	"io"
	"strconv"

	"oiflow/internal/archive"
)

// Column names are a contract with the upstream archive publisher.
const (
	colCoin         = "coin"
	colOpenInterest = "open_interest"
	colMarkPx       = "mark_px"
)

// DayTotal is the reduction of one day's archive to a single start-of-day
// aggregate. Instruments counts the distinct instruments that contributed;
// zero means the stream held no usable rows.
type DayTotal struct {
	TotalUSD    float64
	Instruments int
	RowsSkipped int
}

// Empty reports whether no instrument contributed to the total.
func (d DayTotal) Empty() bool {
	return d.Instruments == 0
}

// Extract reduces a day's multi-sweep row stream to a start-of-day snapshot.
//
// The archive does not mark sweep boundaries, so the first occurrence of each
// instrument is taken as its start-of-day state: later occurrences belong to
// later sampling instants and are ignored. Reading stops once the number of
// counted instruments exceeds ceiling, which bounds how much of a large day
// file is consumed; the ceiling must sit above the instrument-universe size
// so no first-sweep row is cut off.
//
// A row whose open-interest or mark-price field does not parse as a number is
// skipped without marking the instrument as counted, so a valid later
// occurrence can still contribute.
func Extract(stream *archive.RowStream, ceiling int) (DayTotal, error) {
	if !stream.HasColumns(colCoin, colOpenInterest, colMarkPx) {
		return DayTotal{}, fmt.Errorf("archive header missing required columns %s, %s, %s",
			colCoin, colOpenInterest, colMarkPx)
	}

	seen := make(map[string]struct{})
	result := DayTotal{}

	for {
		row, err := stream.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return DayTotal{}, err
		}

		coin, ok := row.Field(colCoin)
		if !ok || coin == "" {
			result.RowsSkipped++
			continue
		}
		if _, counted := seen[coin]; !counted {
			oiField, _ := row.Field(colOpenInterest)
			pxField, _ := row.Field(colMarkPx)

			oi, err := strconv.ParseFloat(oiField, 64)
			if err != nil {
				result.RowsSkipped++
				continue
			}
			px, err := strconv.ParseFloat(pxField, 64)
			if err != nil {
				result.RowsSkipped++
				continue
			}

			result.TotalUSD += oi * px
			seen[coin] = struct{}{}
		}

		if len(seen) > ceiling {
			break
		}
	}

	result.Instruments = len(seen)
	return result, nil
}
