package common

// ColorColumns are the four photometric color indices every dataset must carry,
// in the column order the model is trained with: u-g, g-r, r-i, i-z.
var ColorColumns = []string{"ug", "gr", "ri", "iz"}

// TargetColumn is the regression target: logarithmic metallicity [Fe/H].
const TargetColumn = "feh"

// Directory layout relative to the configured root.
const (
	TrainSubdir   = "train"
	ValidSubdir   = "valid"
	ModelsSubdir  = "models"
	FiguresSubdir = "figures"
)

// Environment variable keys
const (
	EnvRoot        = "FEH_ROOT"
	EnvDataDir     = "FEH_DATA_DIR"
	EnvFilename    = "FEH_FILENAME"
	EnvLoadName    = "FEH_LOAD_NAME"
	EnvNEstimators = "FEH_N_ESTIMATORS"
	EnvRandomState = "FEH_RANDOM_STATE"
	EnvIQRFactor   = "FEH_IQR_FACTOR"
	EnvNumReps     = "FEH_NUM_REPS"
	EnvShow        = "FEH_SHOW"
	EnvSave        = "FEH_SAVE"
	EnvSaveModel   = "FEH_SAVE_MODEL"
	EnvColors      = "FEH_COLORS"
	EnvDPI         = "FEH_DPI"
	EnvHistoryPath = "FEH_HISTORY_PATH"
	EnvLogLevel    = "FEH_LOG_LEVEL"
)

// Configuration defaults
const (
	DefaultRoot        = "."
	DefaultDataDir     = "data"
	DefaultFilename    = "data.csv"
	DefaultModelName   = "model.gob"
	DefaultNEstimators = 10
	DefaultRandomState = 0
	DefaultIQRFactor   = 1.5
	DefaultNumReps     = 1
	DefaultDPI         = 300
)

// Validation constants
const (
	MaxNEstimators = 10000
	MaxNumReps     = 1000
	MinDPI         = 50
	MaxDPI         = 1200
)
