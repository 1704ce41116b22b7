// Command vidupload загружает, перечисляет и скачивает видео с медиасервера.
//
//	vidupload [-server URL] upload FILE...
//	vidupload [-server URL] list
//	vidupload [-server URL] get [-range bytes=0-1023] [-o OUT] FILENAME
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/sir_venger/vidstream/pkg/mediaclient"
)

const defaultServer = "http://localhost:8080"

var errUsage = errors.New("usage: vidupload [-server URL] upload FILE... | list | get [-range R] [-o OUT] FILENAME")

func main() {
	_ = godotenv.Load()

	server := flag.String("server", envOr("VIDEO_SERVER_URL", defaultServer), "media server base URL")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	log := logrus.New()
	log.SetOutput(os.Stderr)
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli := mediaclient.New(*server, mediaclient.WithProgress(os.Stdout))
	log.WithField("server", cli.BaseURL()).Debug("using media server")

	if err := run(ctx, cli, flag.Args()); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		log.WithError(err).Fatal("vidupload")
	}
}

func run(ctx context.Context, cli *mediaclient.HTTPClient, args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	switch args[0] {
	case "upload":
		return upload(ctx, cli, args[1:])
	case "list":
		return list(ctx, cli, os.Stdout)
	case "get":
		return get(ctx, cli, args[1:])
	default:
		return errUsage
	}
}

func upload(ctx context.Context, cli *mediaclient.HTTPClient, files []string) error {
	if len(files) == 0 {
		return errUsage
	}
	for _, path := range files {
		res, err := cli.UploadFile(ctx, path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		fmt.Printf("%s -> %s (%d bytes) %s\n", path, res.Filename, res.Size, res.Path)
	}
	return nil
}

func list(ctx context.Context, cli *mediaclient.HTTPClient, out io.Writer) error {
	videos, err := cli.List(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILENAME\tSIZE\tCREATED")
	for _, v := range videos {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", v.Filename, v.Size, v.CreatedAt.Local().Format(time.DateTime))
	}
	return tw.Flush()
}

func get(ctx context.Context, cli *mediaclient.HTTPClient, args []string) error {
	fs := flag.NewFlagSet("get", flag.ContinueOnError)
	rng := fs.String("range", "", `byte range, e.g. "bytes=0-1048575"`)
	out := fs.String("o", "", "output file (default: FILENAME)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() != 1 {
		return errUsage
	}

	name := fs.Arg(0)
	dst := *out
	if dst == "" {
		dst = name
	}

	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	n, err := cli.Download(ctx, name, *rng, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(dst)
		return err
	}

	fmt.Printf("%s: %d bytes\n", dst, n)
	return nil
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
