package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"

	"bin2tif/pkg/bin2tif"
	"bin2tif/pkg/logger"
)

type options struct {
	Metadata   string  `short:"m" long:"metadata" description:"Metadata file associated with bin file" value-name:"metadata" required:"true"`
	ZOffset    float64 `short:"z" long:"zoffset" description:"Z-axis offset in meters" value-name:"z-offset" required:"true"`
	OutDir     string  `short:"o" long:"outdir" description:"Output directory" value-name:"outdir" default:"bin2tif_out"`
	Pattern    string  `short:"p" long:"pattern" description:"Bayer pattern of the raw capture" choice:"RGGB" choice:"BGGR" choice:"GRBG" choice:"GBRG" default:"GRBG"`
	Platform   string  `long:"platform" description:"YAML platform calibration profile" value-name:"profile"`
	Preview    bool    `long:"preview" description:"Also write a labelled JPEG quicklook"`
	NoCompress bool    `long:"no-compress" description:"Write uncompressed GeoTIFF strips"`
	Verbose    bool    `short:"v" long:"verbose" description:"Debug logging"`

	Args struct {
		Bin string `positional-arg-name:"BIN file" description:"Raw BIN file to process"`
	} `positional-args:"yes" required:"yes"`
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		if fe, ok := err.(*flags.Error); ok && fe.Type == flags.ErrHelp {
			fmt.Println(fe.Message)
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func parseArgs(args []string) (*options, error) {
	var opts options
	parser := flags.NewParser(&opts, flags.Default&^flags.PrintErrors)
	parser.Usage = "[OPTIONS] BIN-file"
	parser.ShortDescription = "BIN to geoTIFF"
	if _, err := parser.ParseArgs(args); err != nil {
		return nil, err
	}
	return &opts, nil
}

func run(args []string) error {
	opts, err := parseArgs(args)
	if err != nil {
		return err
	}

	level := logger.LogInfo
	if opts.Verbose {
		level = logger.LogDebug
	}
	log := logger.NewZapLogger("bin2tif", level)
	defer log.Close()

	cal := bin2tif.DefaultCalibration()
	if opts.Platform != "" {
		if cal, err = bin2tif.LoadCalibration(opts.Platform); err != nil {
			return err
		}
		log.Infof("Platform profile: %s", cal.Name)
	}

	pattern, err := bin2tif.ParsePattern(opts.Pattern)
	if err != nil {
		return err
	}

	conv := bin2tif.NewConverter(cal, log)
	conv.Pattern = pattern
	conv.Preview = opts.Preview
	conv.Writer = bin2tif.GeoTIFFWriter{Compress: !opts.NoCompress, Software: "bin2tif"}

	log.Infof("Loading: %s", opts.Args.Bin)
	res, err := conv.Convert(context.Background(), bin2tif.Request{
		BinPath:      opts.Args.Bin,
		MetadataPath: opts.Metadata,
		ZOffset:      opts.ZOffset,
		OutDir:       opts.OutDir,
	})
	if err != nil {
		return err
	}

	b := res.BoundingBox
	fmt.Println()
	fmt.Printf("=== bin2tif (%.1fs) ===\n", res.Elapsed.Seconds())
	fmt.Printf("  Raw size:   %d x %d\n", res.Width, res.Height)
	fmt.Printf("  Pattern:    %s\n", pattern)
	fmt.Printf("  Latitude:   %.9f .. %.9f\n", b.South, b.North)
	fmt.Printf("  Longitude:  %.9f .. %.9f\n", b.West, b.East)
	fmt.Printf("  Output:     %s\n", res.OutputPath)
	if res.PreviewPath != "" {
		fmt.Printf("  Preview:    %s\n", res.PreviewPath)
	}
	fmt.Println("==============================")
	return nil
}
