package publish

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"net/textproto"
	"path"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dustin/go-humanize"
	"github.com/jlaffaye/ftp"
)

// FTPConfig describes the upload target.
type FTPConfig struct {
	Addr     string // host:port
	User     string
	Password string
	Dir      string // remote directory, created if missing
	Timeout  time.Duration

	// MaxRetries bounds reconnect attempts after the first try.
	MaxRetries uint64
}

type Uploader struct {
	cfg             FTPConfig
	initialInterval time.Duration
}

func NewUploader(cfg FTPConfig) *Uploader {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.User == "" {
		cfg.User = "anonymous"
		if cfg.Password == "" {
			cfg.Password = "anonymous"
		}
	}
	return &Uploader{cfg: cfg, initialInterval: time.Second}
}

// Upload pushes every file to the remote directory. A failed attempt
// reconnects and starts over; authentication failures are not retried.
func (u *Uploader) Upload(ctx context.Context, files Files) error {
	start := time.Now()
	attempt := 0

	operation := func() error {
		attempt++
		err := u.uploadOnce(ctx, files)
		if err == nil {
			return nil
		}
		if isAuthError(err) || ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		log.Printf("publish: ftp attempt %d failed: %v", attempt, err)
		return err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = u.initialInterval
	bo.MaxElapsedTime = 2 * time.Minute
	if err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(bo, u.cfg.MaxRetries), ctx)); err != nil {
		return fmt.Errorf("ftp upload to %s: %w", u.cfg.Addr, err)
	}

	log.Printf("publish: uploaded %d files to ftp://%s%s in %v", len(files), u.cfg.Addr, u.cfg.Dir, time.Since(start).Round(time.Millisecond))
	return nil
}

func (u *Uploader) uploadOnce(ctx context.Context, files Files) error {
	conn, err := ftp.Dial(u.cfg.Addr,
		ftp.DialWithTimeout(u.cfg.Timeout),
		ftp.DialWithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Quit()

	if err := conn.Login(u.cfg.User, u.cfg.Password); err != nil {
		return fmt.Errorf("login: %w", err)
	}

	if u.cfg.Dir != "" {
		if err := conn.ChangeDir(u.cfg.Dir); err != nil {
			if err := conn.MakeDir(u.cfg.Dir); err != nil {
				return fmt.Errorf("make dir %s: %w", u.cfg.Dir, err)
			}
			if err := conn.ChangeDir(u.cfg.Dir); err != nil {
				return fmt.Errorf("change dir %s: %w", u.cfg.Dir, err)
			}
		}
	}

	for _, name := range files.Names() {
		data := files[name]
		tmp := name + ".part"
		if err := conn.Stor(tmp, bytes.NewReader(data)); err != nil {
			return fmt.Errorf("store %s: %w", name, err)
		}
		if err := conn.Rename(tmp, name); err != nil {
			return fmt.Errorf("rename %s: %w", name, err)
		}
		log.Printf("publish: stored %s (%s)", path.Join(u.cfg.Dir, name), humanize.Bytes(uint64(len(data))))
	}
	return nil
}

// isAuthError reports a 530 "not logged in" reply.
func isAuthError(err error) bool {
	var protoErr *textproto.Error
	return errors.As(err, &protoErr) && protoErr.Code == ftp.StatusNotLoggedIn
}
