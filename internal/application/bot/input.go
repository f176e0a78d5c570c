package bot

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"strings"
)

// ReadCodes reads one second-factor code per line from r and sends it to
// out. Blank lines are skipped. out is closed when r is exhausted.
func ReadCodes(ctx context.Context, r io.Reader, out chan<- string) {
	defer close(out)

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		code := strings.TrimSpace(sc.Text())
		if code == "" {
			continue
		}
		select {
		case out <- code:
		case <-ctx.Done():
			return
		}
	}
	if err := sc.Err(); err != nil {
		slog.Warn("bot: reading operator input", "err", err)
	}
}
