// Package byterange разбирает HTTP-заголовок Range (RFC 7233) для одиночного
// байтового диапазона и переводит его в конкретный интервал [Start, End].
package byterange

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const unitPrefix = "bytes="

// ErrInvalidRange возвращается для диапазонов, которые нельзя удовлетворить.
var ErrInvalidRange = errors.New("invalid range")

// Range: включительный интервал байт внутри ресурса длиной Length.
type Range struct {
	Start   int64
	End     int64
	Length  int64
	Partial bool
}

// Full возвращает диапазон, покрывающий весь ресурс.
func Full(length int64) Range {
	return Range{Start: 0, End: length - 1, Length: length}
}

// ChunkSize: количество байт в диапазоне.
func (r Range) ChunkSize() int64 {
	if r.Length <= 0 {
		return 0
	}
	return r.End - r.Start + 1
}

// ContentRange форматирует значение заголовка Content-Range для ответа 206.
func (r Range) ContentRange() string {
	return fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, r.Length)
}

// Unsatisfied форматирует Content-Range для ответа 416.
func Unsatisfied(length int64) string {
	return fmt.Sprintf("bytes */%d", length)
}

// Resolve переводит значение заголовка Range в интервал для ресурса длиной length.
// Пустая спецификация означает весь ресурс. Из multi-range учитывается только первый диапазон.
func Resolve(spec string, length int64) (Range, error) {
	if length < 0 {
		return Range{}, fmt.Errorf("%w: negative length %d", ErrInvalidRange, length)
	}

	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Full(length), nil
	}

	if !strings.HasPrefix(strings.ToLower(spec), unitPrefix) {
		return Range{}, fmt.Errorf("%w: unsupported unit in %q", ErrInvalidRange, spec)
	}
	spec = spec[len(unitPrefix):]
	if i := strings.IndexByte(spec, ','); i >= 0 {
		spec = spec[:i]
	}

	startStr, endStr, ok := strings.Cut(strings.TrimSpace(spec), "-")
	if !ok {
		return Range{}, fmt.Errorf("%w: missing dash in %q", ErrInvalidRange, spec)
	}
	startStr = strings.TrimSpace(startStr)
	endStr = strings.TrimSpace(endStr)

	if length == 0 {
		return Range{}, fmt.Errorf("%w: empty resource", ErrInvalidRange)
	}

	// bytes=-N: последние N байт.
	if startStr == "" {
		n, err := parseOffset(endStr)
		if err != nil {
			return Range{}, err
		}
		if n == 0 {
			return Range{}, fmt.Errorf("%w: zero suffix length", ErrInvalidRange)
		}
		n = min(n, length)
		return Range{Start: length - n, End: length - 1, Length: length, Partial: true}, nil
	}

	start, err := parseOffset(startStr)
	if err != nil {
		return Range{}, err
	}
	if start >= length {
		return Range{}, fmt.Errorf("%w: start %d beyond length %d", ErrInvalidRange, start, length)
	}

	end := length - 1
	if endStr != "" {
		if end, err = parseOffset(endStr); err != nil {
			return Range{}, err
		}
		if start > end {
			return Range{}, fmt.Errorf("%w: start %d after end %d", ErrInvalidRange, start, end)
		}
		end = min(end, length-1)
	}

	return Range{Start: start, End: end, Length: length, Partial: true}, nil
}

func parseOffset(s string) (int64, error) {
	if s == "" {
		return 0, fmt.Errorf("%w: empty offset", ErrInvalidRange)
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("%w: non-numeric offset %q", ErrInvalidRange, s)
		}
	}
	v, err := strconv.ParseInt(s, 10, 64)
	switch {
	case errors.Is(err, strconv.ErrRange):
		// Больше любого ресурса: конец обрежется до length-1, начало даст 416.
		return math.MaxInt64, nil
	case err != nil:
		return 0, fmt.Errorf("%w: %v", ErrInvalidRange, err)
	}
	return v, nil
}
