package install

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/packraft/packraft/pkg/errors"
	"github.com/packraft/packraft/pkg/feed"
	"github.com/packraft/packraft/pkg/host"
	"github.com/packraft/packraft/pkg/httputil"
)

// Download fetches item's archive to targetPath. A local archive is
// copied; an HTTP archive streams through the retrying client to a
// temporary file and renames into place, so targetPath is never left half
// written.
func (o *Orchestrator) Download(ctx context.Context, ses host.Session, item *feed.Item, targetPath string) error {
	ses = host.OrNop(ses)
	switch {
	case item.ArchivePath != "":
		return copyFile(item.ArchivePath, targetPath)
	case item.ContentURL != "":
		return downloadHTTP(ctx, ses, item, targetPath)
	}
	return errors.New(errors.ErrCodeDownloadFailed, "%s has no downloadable content", item.FullName())
}

func downloadHTTP(ctx context.Context, ses host.Session, item *feed.Item, targetPath string) error {
	tmp := filepath.Join(filepath.Dir(targetPath), "."+uuid.NewString()+".part")
	pid := ses.StartProgress("downloading %s", item.FullName())

	err := httputil.Retry(ctx, 3, time.Second, func() error {
		return fetchTo(ctx, item.ContentURL, tmp, func(percent int) {
			ses.Progress(pid, percent, "downloading %s", item.FullName())
		})
	})
	if err != nil {
		os.Remove(tmp)
		ses.CompleteProgress(pid, false)
		return errors.Wrap(errors.ErrCodeDownloadFailed, err, "downloading %s", item.ContentURL)
	}
	if err := os.Rename(tmp, targetPath); err != nil {
		os.Remove(tmp)
		ses.CompleteProgress(pid, false)
		return errors.Wrap(errors.ErrCodeDownloadFailed, err, "moving download into %s", targetPath)
	}
	ses.CompleteProgress(pid, true)
	return nil
}

// fetchTo streams one GET into path, truncating any earlier attempt.
// Server-side failures come back retryable; client-side ones do not.
func fetchTo(ctx context.Context, url, path string, report func(percent int)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return &httputil.RetryableError{Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 500:
		return &httputil.RetryableError{Err: fmt.Errorf("server returned %s", resp.Status)}
	case resp.StatusCode == http.StatusNotFound:
		return errors.New(errors.ErrCodePackageNotFound, "archive not found at %s", url)
	default:
		return errors.New(errors.ErrCodeNetwork, "unexpected status %s from %s", resp.Status, url)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	src := io.Reader(resp.Body)
	if resp.ContentLength > 0 && report != nil {
		src = &progressReader{r: resp.Body, total: resp.ContentLength, report: report}
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		return &httputil.RetryableError{Err: err}
	}
	return f.Close()
}

// progressReader reports whole-percent milestones as bytes flow through.
type progressReader struct {
	r      io.Reader
	total  int64
	read   int64
	last   int
	report func(percent int)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.read += int64(n)
	if percent := int(p.read * 100 / p.total); percent > p.last {
		p.last = percent
		p.report(percent)
	}
	return n, err
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.Wrap(errors.ErrCodeDownloadFailed, err, "opening archive %s", src)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return errors.Wrap(errors.ErrCodeDownloadFailed, err, "creating %s", dst)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return errors.Wrap(errors.ErrCodeDownloadFailed, err, "copying archive to %s", dst)
	}
	if err := out.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeDownloadFailed, err, "finishing %s", dst)
	}
	return nil
}
