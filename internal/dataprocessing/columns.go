package dataprocessing

// Column names as they appear in the fund exports
const (
	ColInvestorDate    = "Investor Date"
	ColPrice           = "PRIS"
	ColCalculatedNAV   = "BERÄKNAT_SUBSTANSVÄRDE"
	ColReportedNAV     = "SUBSTANSVÄRDE"
	ColIndexValue      = "Index Value"
	ColBenchmarkReturn = "Avkastning OMXS#="
	ColOMXDate         = "OMX Date"
	ColTradeDate       = "DATUM"
)

// English column names used in every output table
const (
	ColDate            = "DATE"
	ColPriceEN         = "PRICE"
	ColCalculatedNAVEN = "CALCULATED_NAV"
	ColReportedNAVEN   = "REPORTED_NAV"
	ColIndexValueEN    = "INDEX_VALUE"
	ColBenchmarkEN     = "RETURN_OMXS"
)

// ExportDerivedColumns are computed by the data vendor; they are dropped on
// load and recomputed locally.
var ExportDerivedColumns = []string{
	"Rabatt/Premie",
	"Genomsnittsrabatt senaste 100 handelsdagarna",
	"Nuvarande rabatt minus snitt",
	"Avkastning 200 handelsdagar",
	ColOMXDate,
}

// PreprocessExcluded is ExportDerivedColumns plus the reported NAV, which the
// preprocess job does not carry.
var PreprocessExcluded = append(append([]string(nil), ExportDerivedColumns...), ColReportedNAV)

// PreprocessNumeric are the columns normalized by the preprocess job
var PreprocessNumeric = []string{ColPrice, ColCalculatedNAV, ColIndexValue, ColBenchmarkReturn}

// ExploreNumeric are the columns normalized by the exploratory plots job
var ExploreNumeric = []string{ColPrice, ColReportedNAV, ColCalculatedNAV, ColIndexValue, ColBenchmarkReturn}

// RequiredColumns must be present in every fund export; the date column is
// configurable and checked separately.
var RequiredColumns = []string{ColPrice, ColCalculatedNAV, ColBenchmarkReturn}

// EnglishNames maps export names to output names. The date column is mapped
// by the caller since its source name is configurable.
var EnglishNames = map[string]string{
	ColPrice:           ColPriceEN,
	ColCalculatedNAV:   ColCalculatedNAVEN,
	ColReportedNAV:     ColReportedNAVEN,
	ColIndexValue:      ColIndexValueEN,
	ColBenchmarkReturn: ColBenchmarkEN,
}
