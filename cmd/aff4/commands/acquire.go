package commands

import (
	"io"
	"path/filepath"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/forensix/aff4/config"
	"github.com/forensix/aff4/errors"
	"github.com/forensix/aff4/logger"
	"github.com/forensix/aff4/rdf"
	"github.com/forensix/aff4/store"
	"github.com/forensix/aff4/stream"
	"github.com/forensix/aff4/volume"
)

var (
	acquireInput    string
	acquireOutput   string
	acquireTruncate bool
)

// AcquireCmd images an input stream into an AFF4 volume.
var AcquireCmd = &cobra.Command{
	Use:   "acquire -i INPUT -o VOLUME [VOLUMES...]",
	Short: "Image an input stream into an AFF4 volume",
	Long: `acquire — Image an input stream into an AFF4 volume.

The input is read through the resolver (any registered stream type) and
written as a chunked, compressed image inside the output volume. If the
output volume does not exist it is created.

Additional volume paths given as positional arguments are loaded and
their metadata is parsed before the acquisition runs.

Examples:
  aff4 acquire -i /dev/sda -o evidence.aff4
  aff4 acquire -i disk.dd -o out.aff4 --truncate
  aff4 acquire -i part.dd -o out.aff4 prior1.aff4 prior2.aff4`,
	RunE: runAcquireCommand,
}

func init() {
	AcquireCmd.Flags().StringVarP(&acquireInput, "in", "i", "", "File or stream to image")
	AcquireCmd.Flags().StringVarP(&acquireOutput, "out", "o", "", "Output volume to write to")
	AcquireCmd.Flags().BoolVarP(&acquireTruncate, "truncate", "t", false, "Truncate the output volume")
	_ = AcquireCmd.MarkFlagRequired("in")
	_ = AcquireCmd.MarkFlagRequired("out")
}

func runAcquireCommand(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "load configuration")
	}

	resolver, cleanup, err := openResolver(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := cleanup(); err != nil {
			logger.Logger.Warnw("resolver close reported errors", "error", err)
		}
	}()

	if err := preloadVolumes(resolver, args); err != nil {
		return err
	}

	// When an aff4.toml sits in the working directory, watch it so a
	// long-running acquisition picks up suppressed type changes.
	if watcher, err := config.NewWatcher("aff4.toml"); err == nil {
		watcher.OnReload(func(cfg *config.Config) error {
			for _, typeName := range cfg.Store.SuppressedTypes {
				resolver.SuppressType(typeName)
			}
			return nil
		})
		watcher.Start()
		defer watcher.Close()
	}

	outPath, err := filepath.Abs(acquireOutput)
	if err != nil {
		return errors.Wrapf(err, "resolve output path %s", acquireOutput)
	}
	outURN := rdf.URN("dir://" + outPath)

	// We are allowed to write on the output volume.
	if acquireTruncate {
		logger.Logger.Infow("Truncating output volume", "urn", outURN)
		resolver.Set(outURN, store.AttrStreamWriteMode, rdf.NewXSDString(store.WriteModeTruncate))
	} else {
		resolver.Set(outURN, store.AttrStreamWriteMode, rdf.NewXSDString(store.WriteModeAppend))
	}

	written, err := imageStream(resolver, rdf.URN(acquireInput), outURN, cfg)
	if err != nil {
		return err
	}

	pterm.Success.Printf("Acquired %d bytes from %s into %s\n", written, acquireInput, acquireOutput)
	return nil
}

// imageStream copies the input URN into a new image inside the output
// volume, mirroring the classic imager flow: open both ends through the
// resolver, create the image under the volume URN, stream the bytes.
func imageStream(resolver store.DataStore, inputURN, outputURN rdf.URN, cfg *config.Config) (int64, error) {
	input := store.FactoryOpen[stream.Stream](resolver, inputURN)
	if input.IsEmpty() {
		return 0, errors.Wrapf(errors.ErrNotFound, "open input %s", inputURN)
	}

	vol := store.FactoryOpen[*volume.DirectoryVolume](resolver, outputURN)
	if vol.IsEmpty() {
		return 0, errors.Wrapf(errors.ErrInitFailed, "open output volume %s", outputURN)
	}

	// Create a new image in this volume, named after the input path.
	imageURN := outputURN.Append(inputURN.Parse().Path)
	image, err := volume.NewImageStream(resolver, imageURN, outputURN,
		cfg.Imager.ChunkSize, cfg.Imager.Compression)
	if err != nil {
		return 0, err
	}

	// Progress reports are rate limited so fast acquisitions don't
	// drown the terminal.
	progress := rate.NewLimiter(rate.Every(time.Second), 1)

	src := input.Get()
	dst := image.Get()
	buf := make([]byte, cfg.Imager.BufferSize)
	var written int64
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return written, errors.Wrapf(werr, "write image %s", imageURN)
			}
			written += int64(n)
			if progress.Allow() {
				logger.Logger.Infow("acquiring", "urn", imageURN, "bytes", written)
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return written, errors.Wrapf(rerr, "read input %s", inputURN)
		}
	}

	return written, nil
}
