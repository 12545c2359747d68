// Command fehtool drives the metallicity approximation pipeline: it trains a
// random forest on photometric colors, scores it against a held-out split,
// and predicts [Fe/H] for new color tables.
//
//	fehtool train   -data-dir data -save-model
//	fehtool eval    -model load -show -save
//	fehtool predict -in colors.csv -out predicted.csv
//	fehtool history
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"stellar-feh/internal/cfg"
	"stellar-feh/internal/dataset"
	"stellar-feh/internal/history"
	"stellar-feh/internal/ml"
)

func main() {
	// Optional .env overlay, resolved before the config is read.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	settings, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	setupLogging(settings.LogLevel)

	var cmdErr error
	switch os.Args[1] {
	case "train":
		cmdErr = runTrain(settings, os.Args[2:])
	case "eval":
		cmdErr = runEval(settings, os.Args[2:])
	case "predict":
		cmdErr = runPredict(settings, os.Args[2:])
	case "history":
		cmdErr = runHistory(settings)
	default:
		usage()
		os.Exit(2)
	}
	if cmdErr != nil {
		log.Fatal().Err(cmdErr).Str("command", os.Args[1]).Msg("operation failed")
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: fehtool <train|eval|predict|history> [flags]")
}

func setupLogging(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}

func runTrain(settings cfg.Settings, args []string) error {
	fs := flag.NewFlagSet("train", flag.ExitOnError)
	dataDir := fs.String("data-dir", settings.DataDir, "Data directory holding train/<filename>")
	filename := fs.String("filename", settings.Filename, "Training CSV name")
	nEstimators := fs.Int("n-estimators", settings.NEstimators, "Number of trees in the forest")
	randomState := fs.Int64("random-state", settings.RandomState, "Forest random seed")
	iqrFactor := fs.Float64("iqr-factor", settings.IQRFactor, "Outlier interval scale factor")
	numReps := fs.Int("num-reps", settings.NumReps, "Number of outlier filter passes")
	show := fs.Bool("show", settings.Show, "Render the filtering box plot")
	save := fs.Bool("save", settings.Save, "Write figures under figures/")
	saveModel := fs.Bool("save-model", true, "Persist the fitted model in models/")
	dpi := fs.Int("dpi", settings.DPI, "Figure resolution")
	if err := fs.Parse(args); err != nil {
		return err
	}

	opts := ml.DefaultTrainOptions()
	opts.NEstimators = *nEstimators
	opts.RandomState = *randomState
	opts.IQRFactor = *iqrFactor
	opts.Filename = *filename
	opts.NumReps = *numReps
	opts.Show = *show
	opts.Save = *save
	opts.SaveModel = *saveModel
	opts.Colors = settings.Colors
	opts.DPI = *dpi
	opts.Root = settings.Root

	if _, err := ml.Train(*dataDir, opts); err != nil {
		return err
	}

	recordRun(settings, history.Record{
		Op:          "train",
		Timestamp:   time.Now(),
		NEstimators: opts.NEstimators,
		RandomState: opts.RandomState,
		IQRFactor:   opts.IQRFactor,
		NumReps:     opts.NumReps,
		DataDir:     *dataDir,
		Filename:    opts.Filename,
		ModelName:   settings.LoadName,
	})
	return nil
}

func runEval(settings cfg.Settings, args []string) error {
	fs := flag.NewFlagSet("eval", flag.ExitOnError)
	modelRef := fs.String("model", ml.LoadCommand, "Model reference: 'load' reads the stored model")
	dataDir := fs.String("data-dir", settings.DataDir, "Data directory holding valid/<filename>")
	filename := fs.String("filename", settings.Filename, "Validation CSV name")
	loadName := fs.String("load-name", settings.LoadName, "Stored model name")
	iqrFactor := fs.Float64("iqr-factor", settings.IQRFactor, "Outlier interval scale factor")
	numReps := fs.Int("num-reps", settings.NumReps, "Number of outlier filter passes")
	show := fs.Bool("show", settings.Show, "Render truth/prediction diagnostics")
	save := fs.Bool("save", settings.Save, "Write figures under figures/")
	dpi := fs.Int("dpi", settings.DPI, "Figure resolution")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ref, err := ml.RefFromValue(*modelRef)
	if err != nil {
		return err
	}

	opts := ml.DefaultEvalOptions()
	opts.DataDir = *dataDir
	opts.Filename = *filename
	opts.LoadName = *loadName
	opts.IQRFactor = *iqrFactor
	opts.NumReps = *numReps
	opts.Show = *show
	opts.Save = *save
	opts.Colors = settings.Colors
	opts.DPI = *dpi
	opts.Root = settings.Root

	score, err := ml.Eval(ref, opts)
	if err != nil {
		return err
	}

	recordRun(settings, history.Record{
		Op:        "eval",
		Timestamp: time.Now(),
		Score:     score,
		IQRFactor: opts.IQRFactor,
		NumReps:   opts.NumReps,
		DataDir:   opts.DataDir,
		Filename:  opts.Filename,
		ModelName: opts.LoadName,
	})
	return nil
}

func runPredict(settings cfg.Settings, args []string) error {
	fs := flag.NewFlagSet("predict", flag.ExitOnError)
	in := fs.String("in", "", "Input CSV with the four color columns")
	out := fs.String("out", "", "Output CSV with the added feh column")
	modelRef := fs.String("model", ml.LoadCommand, "Model reference: 'load' reads the stored model")
	loadName := fs.String("load-name", settings.LoadName, "Stored model name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" || *out == "" {
		return fmt.Errorf("predict requires -in and -out")
	}

	ref, err := ml.RefFromValue(*modelRef)
	if err != nil {
		return err
	}

	frame, err := dataset.ReadCSV(*in)
	if err != nil {
		return err
	}
	// The CLI owns the frame, so predicting in place avoids a pointless copy.
	predicted, err := ml.Predict(frame, ref, ml.PredictOptions{
		LoadName: *loadName,
		Inplace:  true,
		Root:     settings.Root,
	})
	if err != nil {
		return err
	}
	if err := predicted.WriteCSV(*out); err != nil {
		return err
	}
	fmt.Printf("Wrote %s (%d rows)\n", *out, predicted.Len())
	return nil
}

func runHistory(settings cfg.Settings) error {
	if settings.HistoryPath == "" {
		return fmt.Errorf("run ledger disabled: set %s to enable it", "FEH_HISTORY_PATH")
	}
	ledger, err := history.Open(settings.HistoryPath)
	if err != nil {
		return err
	}
	defer ledger.Close()

	records, err := ledger.List()
	if err != nil {
		return err
	}
	for _, r := range records {
		if r.Op == "eval" {
			fmt.Printf("%s  %-5s  score=%.6f  iqr=%.2f reps=%d  %s/%s\n",
				r.Timestamp.Format(time.RFC3339), r.Op, r.Score, r.IQRFactor, r.NumReps, r.DataDir, r.Filename)
		} else {
			fmt.Printf("%s  %-5s  trees=%d seed=%d  iqr=%.2f reps=%d  %s/%s\n",
				r.Timestamp.Format(time.RFC3339), r.Op, r.NEstimators, r.RandomState, r.IQRFactor, r.NumReps, r.DataDir, r.Filename)
		}
	}
	if len(records) == 0 {
		fmt.Println("No recorded runs")
	}
	return nil
}

// recordRun appends to the run ledger when one is configured. Ledger failures
// are logged, not fatal: the pipeline result is already on disk.
func recordRun(settings cfg.Settings, rec history.Record) {
	if settings.HistoryPath == "" {
		return
	}
	ledger, err := history.Open(settings.HistoryPath)
	if err != nil {
		log.Warn().Err(err).Msg("run ledger unavailable")
		return
	}
	defer ledger.Close()
	if err := ledger.Append(rec); err != nil {
		log.Warn().Err(err).Msg("failed to record run")
	}
}
