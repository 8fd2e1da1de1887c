package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/s3eon/s3store/internal/config"
	"github.com/s3eon/s3store/internal/policy"
	"github.com/s3eon/s3store/internal/storage"
)

var (
	configFile string
	acl        string
	mimeType   string
	debug      bool
)

func init() {
	flag.StringVar(&configFile, "config", getEnvOrDefault("S3STORE_CONFIG", "s3store.yaml"), "Path to the storage config file")
	flag.StringVar(&acl, "acl", getEnvOrDefault("S3STORE_ACL", ""), "Canned ACL for uploads, overrides the config file")
	flag.StringVar(&mimeType, "mime", getEnvOrDefault("S3STORE_MIME", ""), "Mime type of the uploaded file, derived from its extension when empty")
	flag.BoolVar(&debug, "debug", os.Getenv("S3STORE_DEBUG") != "", "Enable debug logging")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), `Usage: %s [flags] <command>

Commands:
  upload <file> [folder]  upload a file and print its path
  get <path> [out]        download an object to out or stdout
  delete <path>           delete an object
  url <path>              print the public url of an object

Flags:
`, filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

var errUsage = errors.New("invalid arguments")

func main() {
	flag.Parse()

	if debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, flag.Arg(0), flag.Args()[1:]); err != nil {
		if errors.Is(err, errUsage) {
			flag.Usage()
		}
		slog.Default().Error("Command failed", "command", flag.Arg(0), "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, command string, args []string) (err error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	store, err := newStorage(ctx, cfg, registry)
	if err != nil {
		return err
	}

	if file := cfg.MetricsTextfile.Value; file != "" {
		defer func() {
			if werr := prometheus.WriteToTextfile(file, registry); werr != nil {
				err = errors.Join(err, fmt.Errorf("failed to write metrics: %w", werr))
			}
		}()
	}

	switch command {
	case "upload":
		if len(args) < 1 || len(args) > 2 {
			return errUsage
		}
		folder := ""
		if len(args) == 2 {
			folder = args[1]
		}
		return upload(ctx, store, cfg, args[0], folder)

	case "get":
		if len(args) < 1 || len(args) > 2 {
			return errUsage
		}
		b, err := store.Get(ctx, args[0])
		if err != nil {
			return err
		}
		if len(args) == 2 {
			return os.WriteFile(args[1], b, 0o644)
		}
		_, err = os.Stdout.Write(b)
		return err

	case "delete":
		if len(args) != 1 {
			return errUsage
		}
		if err := store.Delete(ctx, args[0]); err != nil {
			return err
		}
		slog.Default().Info("Deleted object", "path", args[0])
		return nil

	case "url":
		if len(args) != 1 {
			return errUsage
		}
		url, err := store.URL(args[0])
		if err != nil {
			return err
		}
		fmt.Println(url)
		return nil

	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, command)
	}
}

func newStorage(ctx context.Context, cfg *config.Storage, registry *prometheus.Registry) (*storage.Storage, error) {
	driver, err := storage.NewDriver(ctx, cfg, storage.WithLogger(slog.Default()))
	if err != nil {
		return nil, fmt.Errorf("failed to create driver: %w", err)
	}

	if file := cfg.Policy.Value; file != "" {
		p, err := policy.Load(ctx, file)
		if err != nil {
			return nil, err
		}
		driver = storage.NewPolicyDriver(driver, p)
	}

	driver, err = storage.NewMetricsDriver(driver, registry)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	return storage.New(driver, cfg.CDNURL.Value), nil
}

func upload(ctx context.Context, store *storage.Storage, cfg *config.Storage, file, folder string) error {
	aclValue := cfg.ACL.Value
	if acl != "" {
		aclValue = acl
	}
	parsedACL, err := storage.ParseACL(aclValue)
	if err != nil {
		return err
	}

	b, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read %q: %w", file, err)
	}

	path, err := store.UploadBytes(ctx, b, storage.FileEntity{
		FileName: filepath.Base(file),
		Folder:   folder,
		Mime:     mimeType,
	}, parsedACL)
	if err != nil {
		return err
	}

	logger := slog.Default().With("path", path, "size", len(b))
	if url, err := store.URL(path); err == nil {
		logger = logger.With("url", url)
	}
	logger.Info("Uploaded file")
	fmt.Println(path)
	return nil
}
