package config

// Application info
const (
	AppName    = "navpulse"
	AppVersion = "1.0.0"
)

// Layouts and file suffixes
const (
	DateLayout        = "2006-01-02"
	PreprocessSuffix  = "_preprocess"
	JoinedSuffix      = "_test"
	DefaultDateColumn = "Investor Date"
	DefaultCutoff     = "2024-12-11"

	DefaultIndexWorkbook = "full_OMXS30.xlsx"
	DefaultIndexCSV      = "OMXS30.csv"
)

// Derivation defaults
const (
	DefaultHorizon             = 200
	DefaultWindow              = 30
	DefaultWindowMinPeriods    = 5
	DefaultExpandingMinPeriods = 20
	DefaultRSIPeriod           = 14
	DefaultTradingDays         = 252
	DefaultBenchmarkScale      = 0.01
)

// Mining defaults
const (
	DefaultMinSupport = 0.03
	DefaultMinLift    = 1.0
	DefaultTopN       = 20
	DefaultFromYear   = 2016
	DefaultToYear     = 2024
)

// Chart defaults
const (
	DefaultHistogramBins = 30
	DefaultDPI           = 300
)

// DefaultFundFiles are processed when no file is given on the command line
var DefaultFundFiles = []string{
	"Investor.csv",
	"Industrivarden_vanlig2.csv",
	"Latour.csv",
}
