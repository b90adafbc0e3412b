package datafeed

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/stratlab/market"
)

// LoadCSV reads daily bars from a CSV file with columns
// date,open,high,low,close,volume. A header row is detected and skipped.
func LoadCSV(path string) (market.History, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var h market.History
	first := true
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(row) == 0 {
			continue
		}
		if first {
			first = false
			if strings.EqualFold(strings.TrimSpace(row[0]), "date") {
				continue
			}
		}

		bar, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		h = append(h, bar)
	}

	return normalize(h)
}

func parseRow(row []string) (market.Bar, error) {
	if len(row) < 5 {
		return market.Bar{}, fmt.Errorf("bad row (need date,open,high,low,close[,volume]): %v", row)
	}

	ds := strings.TrimSpace(row[0])
	date, err := time.Parse("2006-01-02", ds)
	if err != nil {
		if t2, err2 := time.Parse(time.RFC3339, ds); err2 == nil {
			date = t2
		} else {
			return market.Bar{}, fmt.Errorf("bad date %q: %w", row[0], err)
		}
	}

	nums := make([]float64, 0, 5)
	for _, s := range row[1:] {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return market.Bar{}, fmt.Errorf("bad number %q: %w", s, err)
		}
		nums = append(nums, v)
		if len(nums) == 5 {
			break
		}
	}

	bar := market.Bar{
		Date:  date,
		Open:  nums[0],
		High:  nums[1],
		Low:   nums[2],
		Close: nums[3],
	}
	if len(nums) > 4 {
		bar.Volume = nums[4]
	}
	return bar, nil
}

// SaveCSV writes bars in the format LoadCSV reads.
func SaveCSV(path string, h market.History) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"date", "open", "high", "low", "close", "volume"}); err != nil {
		return err
	}
	ff := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	for _, b := range h {
		if err := w.Write([]string{
			b.Date.Format("2006-01-02"),
			ff(b.Open), ff(b.High), ff(b.Low), ff(b.Close), ff(b.Volume),
		}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
