package mediaclient

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

const (
	barWidth    = 32
	redrawEvery = 120 * time.Millisecond
)

// progress держит одну строку терминала и перерисовывает её через \r.
// Подключается к потоку как io.Writer через io.TeeReader.
type progress struct {
	mu    sync.Mutex
	out   io.Writer
	label string
	total int64
	done  int64
	drawn time.Time
	width int
	ended bool
}

func newProgress(out io.Writer, label string, total int64) *progress {
	p := &progress{out: out, label: label, total: total}
	p.mu.Lock()
	p.drawLocked("", false)
	p.mu.Unlock()
	return p
}

func (p *progress) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.ended {
		p.done += int64(len(b))
		if time.Since(p.drawn) >= redrawEvery {
			p.drawLocked("", false)
		}
	}
	return len(b), nil
}

// End дорисовывает итог: ✓ при err == nil, иначе ✗ и текст ошибки. Повторные вызовы ничего не делают.
func (p *progress) End(err error) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ended {
		return
	}
	p.ended = true

	suffix := " ✓"
	if err != nil {
		suffix = " ✗ " + err.Error()
	}
	p.drawLocked(suffix, true)
}

func (p *progress) drawLocked(suffix string, last bool) {
	line := p.label + " " + p.status() + suffix
	pad := ""
	// затираем хвост прошлой, более длинной строки
	if n := p.width - len(line); n > 0 {
		pad = strings.Repeat(" ", n)
	}
	p.width = len(line)
	p.drawn = time.Now()

	eol := ""
	if last {
		eol = "\n"
	}
	fmt.Fprintf(p.out, "\r%s%s%s", line, pad, eol)
}

func (p *progress) status() string {
	if p.total <= 0 {
		return humanBytes(p.done) + " transferred"
	}

	pct := min(p.done*100/p.total, 100)
	filled := int(pct * barWidth / 100)
	return fmt.Sprintf("[%s%s] %3d%% %s/%s",
		strings.Repeat("=", filled), strings.Repeat(" ", barWidth-filled),
		pct, humanBytes(p.done), humanBytes(p.total))
}

func humanBytes(v int64) string {
	if v < 1024 {
		return fmt.Sprintf("%d B", v)
	}
	f := float64(v)
	for _, u := range "KMGT" {
		f /= 1024
		if f < 1024 || u == 'T' {
			return fmt.Sprintf("%.1f %cB", f, u)
		}
	}
	return ""
}
