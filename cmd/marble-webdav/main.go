// Command marble-webdav runs the multi-tenant WebDAV gateway: it
// composes the Blob Store, Hasher, Metadata Store, Tenant Storage,
// Lock Manager and Authenticator into one HTTP server and dispatches
// every request other than /metrics through internal/webdav.Dispatcher.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/alari/marble-next/internal/auth/htpasswdauth"
	"github.com/alari/marble-next/internal/blobstore"
	"github.com/alari/marble-next/internal/hasher"
	"github.com/alari/marble-next/internal/lockmgr"
	"github.com/alari/marble-next/internal/metadatastore"
	"github.com/alari/marble-next/internal/tenantstore"
	"github.com/alari/marble-next/internal/webdav"
)

var (
	app = kingpin.New("marble-webdav", "Multi-tenant WebDAV gateway over content-addressed storage")

	listenAddr        = app.Flag("listen", "Address to listen on").Default(":8080").String()
	blobRoot          = app.Flag("blob-root", "Directory backing the blob store").Default("./data/blobs").String()
	metadataDB        = app.Flag("metadata-db", "Path to the sqlite3 metadata database").Default("./data/metadata.db").String()
	htpasswdFile      = app.Flag("htpasswd-file", "Path to the htpasswd file authenticating tenants").Required().String()
	realm             = app.Flag("realm", "HTTP Basic auth realm").Default("marble").String()
	lockSweepInterval = app.Flag("lock-sweep-interval", "Interval between periodic expired-lock sweeps").Default("1m").Duration()
	metadataCacheSize = app.Flag("metadata-cache-size", "Number of FindByPath results to cache in memory").Default("4096").Int()
)

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, "marble-webdav: creating logger:", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	sugar := logger.Sugar()

	if err := run(sugar); err != nil {
		sugar.Fatalw("exiting", "error", err)
	}
}

func run(log *zap.SugaredLogger) error {
	if err := os.MkdirAll(*blobRoot, 0o700); err != nil {
		return fmt.Errorf("creating blob root: %w", err)
	}

	blobs, err := blobstore.NewFilesystem(*blobRoot)
	if err != nil {
		return fmt.Errorf("opening blob store: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(*metadataDB), 0o700); err != nil {
		return fmt.Errorf("creating metadata db directory: %w", err)
	}

	meta, err := metadatastore.Open(*metadataDB, *metadataCacheSize)
	if err != nil {
		return fmt.Errorf("opening metadata store: %w", err)
	}
	defer meta.Close() //nolint:errcheck

	tenants := tenantstore.New(hasher.New(blobs), meta)
	locks := lockmgr.New()

	authenticator, err := htpasswdauth.New(*htpasswdFile, meta)
	if err != nil {
		return fmt.Errorf("loading htpasswd file: %w", err)
	}

	dispatcher := &webdav.Dispatcher{
		Tenants:      tenants,
		Locks:        locks,
		Auth:         authenticator,
		Log:          log,
		ServerHeader: "marble-webdav",
		Realm:        *realm,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stopSweep := startLockSweeper(ctx, locks, *lockSweepInterval)
	defer stopSweep()

	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.Handler())
	router.PathPrefix("/").Handler(webdav.HTTPHandler(dispatcher))

	server := &http.Server{
		Addr:    *listenAddr,
		Handler: router,
	}

	serveErr := make(chan error, 1)

	go func() {
		log.Infow("listening", "addr", *listenAddr)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("serving: %w", err)
		}
	case <-ctx.Done():
		log.Infow("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
	}

	return nil
}

// startLockSweeper runs Manager.SweepExpired on interval until ctx is
// canceled; lazy sweeping on each lock operation is sufficient for
// correctness, this just bounds how long a stale lock can sit unused
// in the table.
func startLockSweeper(ctx context.Context, locks *lockmgr.Manager, interval time.Duration) func() {
	done := make(chan struct{})

	go func() {
		defer close(done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				locks.SweepExpired()
			}
		}
	}()

	return func() { <-done }
}
