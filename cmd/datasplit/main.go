// Command datasplit regenerates the train/valid partition from a single
// source CSV with a simple random 80/20 split, overwriting any existing
// split. Run it between training iterations to reshuffle the data.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"stellar-feh/internal/common"
	"stellar-feh/internal/dataset"
)

func main() {
	var (
		src      = flag.String("src", "segue.csv", "Source CSV to split")
		outDir   = flag.String("out", "data", "Output directory for train/ and valid/")
		ratio    = flag.Float64("ratio", 0.2, "Fraction of rows assigned to the validation split")
		seed     = flag.Int64("seed", -1, "Split seed; -1 uses the current time")
		logLevel = flag.String("log-level", "info", "Log level: debug, info, warn, error")
	)
	flag.Parse()

	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if *seed < 0 {
		*seed = time.Now().UnixNano()
	}

	frame, err := dataset.ReadCSV(*src)
	if err != nil {
		log.Fatal().Err(err).Str("src", *src).Msg("failed to read source CSV")
	}

	train, valid, err := dataset.Split(frame, *ratio, *seed)
	if err != nil {
		log.Fatal().Err(err).Msg("split failed")
	}

	trainPath := filepath.Join(*outDir, common.TrainSubdir, common.DefaultFilename)
	validPath := filepath.Join(*outDir, common.ValidSubdir, common.DefaultFilename)
	for _, dir := range []string{filepath.Dir(trainPath), filepath.Dir(validPath)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatal().Err(err).Str("dir", dir).Msg("failed to create split directory")
		}
	}
	if err := train.WriteCSV(trainPath); err != nil {
		log.Fatal().Err(err).Msg("failed to write training split")
	}
	if err := valid.WriteCSV(validPath); err != nil {
		log.Fatal().Err(err).Msg("failed to write validation split")
	}

	fmt.Printf("Split %d rows into %s (%d) and %s (%d)\n",
		frame.Len(), trainPath, train.Len(), validPath, valid.Len())
}
