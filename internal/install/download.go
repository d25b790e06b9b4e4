package install

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/time/rate"

	"locallm/internal/progress"
)

// progressInterval throttles percent updates so a fast download does not
// flood the reporter.
const progressInterval = 250 * time.Millisecond

func (i *Installer) download(ctx context.Context, url, dst string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := i.cfg.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: %s", url, resp.Status)
	}
	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	pw := &percentWriter{
		total:    resp.ContentLength,
		reporter: i.cfg.Reporter,
		last:     -1,
		every:    &rate.Sometimes{Interval: progressInterval},
	}
	_, copyErr := io.Copy(io.MultiWriter(f, pw), resp.Body)
	closeErr := f.Close()
	if copyErr != nil {
		return copyErr
	}
	if closeErr != nil {
		return closeErr
	}
	pw.finish()
	return nil
}

// percentWriter reports whole-percent progress derived from Content-Length.
type percentWriter struct {
	total    int64
	done     int64
	last     int
	reporter progress.Reporter
	every    *rate.Sometimes
}

func (w *percentWriter) Write(p []byte) (int, error) {
	w.done += int64(len(p))
	if w.total <= 0 {
		w.every.Do(func() {
			w.reporter.Report(fmt.Sprintf("%s Downloading engine... %s", progress.TagDownload, humanize.Bytes(uint64(w.done))))
		})
		return len(p), nil
	}
	pct := int(w.done * 100 / w.total)
	if pct > w.last && pct < 100 {
		w.every.Do(func() { w.report(pct) })
	}
	return len(p), nil
}

func (w *percentWriter) report(pct int) {
	w.last = pct
	w.reporter.Report(fmt.Sprintf("%s Downloading engine... %d%% (%s / %s)",
		progress.TagDownload, pct, humanize.Bytes(uint64(w.done)), humanize.Bytes(uint64(w.total))))
}

func (w *percentWriter) finish() {
	if w.total > 0 && w.last < 100 {
		w.report(100)
	}
}
