package mining

import (
	"context"
	"fmt"
	"log/slog"

	"navpulse/internal/binning"
	"navpulse/internal/config"
	"navpulse/internal/infrastructure"
	"navpulse/internal/series"
)

// Options configures a mining run
type Options struct {
	MinSupport   float64
	Metric       Metric
	MinThreshold float64
	TopN         int
	// LookupFrom => LookupTo is the rule reported on its own
	LookupFrom string
	LookupTo   string
}

// DefaultOptions returns the standard mining options
func DefaultOptions() Options {
	return Options{
		MinSupport:   config.DefaultMinSupport,
		Metric:       MetricLift,
		MinThreshold: config.DefaultMinLift,
		TopN:         config.DefaultTopN,
		LookupFrom:   ItemName(DiscountPrefix, binning.CategoryLow),
		LookupTo:     ItemName(ReturnPrefix, binning.CategoryHigh),
	}
}

// OptionsFromConfig maps the mining section of the configuration
func OptionsFromConfig(cfg config.MiningConfig) (Options, error) {
	m, err := ParseMetric(cfg.Metric)
	if err != nil {
		return Options{}, err
	}
	return Options{
		MinSupport:   cfg.MinSupport,
		Metric:       m,
		MinThreshold: cfg.MinThreshold,
		TopN:         cfg.TopN,
		LookupFrom:   cfg.LookupFrom,
		LookupTo:     cfg.LookupTo,
	}, nil
}

// Result holds everything a mining run produced
type Result struct {
	Transactions  int
	ReturnEdges   binning.Edges
	DiscountEdges binning.Edges
	Itemsets      []Itemset
	// Rules are the cross pairs sorted by lift
	Rules  []Rule
	Top    []Rule
	Lookup Rule
	Found  bool
	Opts   Options
}

// Miner bins two metrics into tertiles and mines rules between them
type Miner struct {
	opts   Options
	logger *slog.Logger
}

// NewMiner creates a miner
func NewMiner(opts Options, logger *slog.Logger) *Miner {
	logger = infrastructure.WithComponent(logger, "miner")
	return &Miner{opts: opts, logger: logger}
}

// Run discretizes returns and discounts, mines frequent itemsets and keeps
// the cross rules between the two variables.
func (m *Miner) Run(ctx context.Context, returns, discounts series.Series) (*Result, error) {
	retCats, retEdges := binning.Tertiles(returns)
	discCats, discEdges := binning.Tertiles(discounts)

	if retEdges.Bins() < 3 || discEdges.Bins() < 3 {
		m.logger.WarnContext(ctx, "tertile bins collapsed",
			slog.Int("return_bins", retEdges.Bins()),
			slog.Int("discount_bins", discEdges.Bins()))
	}

	txs := Transactions(retCats, discCats)
	itemsets, err := FPGrowth(txs, m.opts.MinSupport)
	if err != nil {
		return nil, fmt.Errorf("fp-growth: %w", err)
	}

	all, err := AssociationRules(itemsets, m.opts.Metric, m.opts.MinThreshold)
	if err != nil {
		return nil, fmt.Errorf("association rules: %w", err)
	}

	cross := CrossPairs(all, Items(DiscountPrefix), Items(ReturnPrefix))
	SortByLift(cross)
	lookup, found := Find(cross, m.opts.LookupFrom, m.opts.LookupTo)

	m.logger.InfoContext(ctx, "association rules mined",
		slog.Int("transactions", len(txs)),
		slog.Int("itemsets", len(itemsets)),
		slog.Int("rules", len(all)),
		slog.Int("cross_rules", len(cross)),
		slog.Bool("lookup_found", found))

	return &Result{
		Transactions:  len(txs),
		ReturnEdges:   retEdges,
		DiscountEdges: discEdges,
		Itemsets:      itemsets,
		Rules:         cross,
		Top:           Top(cross, m.opts.TopN),
		Lookup:        lookup,
		Found:         found,
		Opts:          m.opts,
	}, nil
}
