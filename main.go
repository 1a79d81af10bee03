package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hbprosper/jetnet/data"
	"github.com/hbprosper/jetnet/ml"
	"github.com/hbprosper/jetnet/perf"
	"github.com/pkg/errors"
)

// -------- CONFIG -------- //

// Config holds everything the driver does in one run.
type Config struct {
	Weights    string // trained network, required
	Signal     string
	Background string
	Vars       string // variable list; the model's input names if empty

	Bins   int
	Cut    float64
	NTrain int // leading events per class used for training, skipped when testing
	NTest  int // events per class, 0 = all

	Hidden int // > 0: create an untrained network at Weights first

	Emit    string // "cpp", "go" or "" for no code
	Out     string
	Func    string
	Package string
}

func (c *Config) Validate() error {
	if c.Weights == "" {
		return errors.New("missing -weights")
	}
	if (c.Signal == "") != (c.Background == "") {
		return errors.New("-signal and -background go together")
	}
	if c.Bins < 1 {
		return errors.Errorf("-bins must be positive, got %d", c.Bins)
	}
	if c.NTest < 0 || c.NTrain < 0 {
		return errors.Errorf("-ntrain and -ntest must not be negative, got %d and %d", c.NTrain, c.NTest)
	}
	if c.Hidden < 0 {
		return errors.Errorf("-hidden must not be negative, got %d", c.Hidden)
	}
	if c.Hidden > 0 && (c.Signal == "" || c.Vars == "" || c.NTrain == 0) {
		return errors.New("-hidden needs -signal, -background, -vars and -ntrain")
	}
	if c.Emit != "" {
		if _, err := ml.ParseLanguage(c.Emit); err != nil {
			return err
		}
	}
	return nil
}

func parseFlags(args []string, stderr io.Writer) (Config, error) {
	var cfg Config
	fs := flag.NewFlagSet("jetnet", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&cfg.Weights, "weights", "", "trained network weight file")
	fs.StringVar(&cfg.Signal, "signal", "", "signal sample table")
	fs.StringVar(&cfg.Background, "background", "", "background sample table")
	fs.StringVar(&cfg.Vars, "vars", "", "file listing the input variables, one per line")
	fs.IntVar(&cfg.Bins, "bins", 50, "histogram bins")
	fs.Float64Var(&cfg.Cut, "cut", 0.5, "network output cut for the error rate")
	fs.IntVar(&cfg.NTrain, "ntrain", 0, "training events at the top of each sample, skipped when testing")
	fs.IntVar(&cfg.NTest, "ntest", 0, "test events per class (0 = all)")
	fs.IntVar(&cfg.Hidden, "hidden", 0, "create an untrained network with this many hidden nodes at -weights")
	fs.StringVar(&cfg.Emit, "emit", "", "write the network as source code: cpp or go")
	fs.StringVar(&cfg.Out, "out", "", "generated source file")
	fs.StringVar(&cfg.Func, "func", "", "generated function name (default: weight file name)")
	fs.StringVar(&cfg.Package, "pkg", "", "package of generated Go code")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// -------- MAIN -------- //
func main() {
	log.SetFlags(0)
	log.SetPrefix("jetnet: ")

	cfg, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatal(err)
	}
	if err := run(cfg, log.Default()); err != nil {
		log.Fatal(err)
	}
}

func run(cfg Config, logger *log.Logger) error {
	// 0. Create network
	if cfg.Hidden > 0 {
		if err := initNetwork(cfg, logger); err != nil {
			return err
		}
	}

	// 1. Load network
	m, err := ml.Load(cfg.Weights)
	if err != nil {
		return err
	}
	logger.Printf("loaded %s: layers %v, %d weights, %s", cfg.Weights, m.Layers, len(m.Weights), m.Output)

	// 2. Test on labelled samples
	if cfg.Signal != "" {
		res, err := testNetwork(cfg, m, logger)
		if err != nil {
			return err
		}
		report(logger, res)
	}

	// 3. Emit standalone source
	if cfg.Emit != "" {
		path, err := emit(cfg, m)
		if err != nil {
			return err
		}
		logger.Printf("wrote %s", path)
	}
	return nil
}

func testNetwork(cfg Config, m *ml.Model, logger *log.Logger) (*perf.Result, error) {
	vars := m.Names
	if cfg.Vars != "" {
		names, err := data.LoadNames(cfg.Vars)
		if err != nil {
			return nil, err
		}
		if len(names) != m.NumInputs() {
			return nil, errors.Wrapf(ml.ErrBadInputSize, "%s lists %d variables, network has %d inputs", cfg.Vars, len(names), m.NumInputs())
		}
		vars = names
	}

	_, sig, err := loadClass(cfg, cfg.Signal, vars, data.Signal)
	if err != nil {
		return nil, err
	}
	_, bkg, err := loadClass(cfg, cfg.Background, vars, data.Background)
	if err != nil {
		return nil, err
	}

	samples := data.Mix(sig, bkg, cfg.NTest)
	if len(samples) == 0 {
		return nil, errors.Wrapf(perf.ErrNoSamples, "no events after the first %d", cfg.NTrain)
	}
	logger.Printf("testing on %d signal and %d background events", len(samples)/2, len(samples)/2)
	return perf.Test(m, samples, cfg.Cut, cfg.Bins)
}

// loadClass reads one sample table and splits it into training and test events.
func loadClass(cfg Config, path string, vars []string, target float64) (train, test []data.Sample, err error) {
	limit := 0
	if cfg.NTest > 0 {
		limit = cfg.NTrain + cfg.NTest
	}
	tab, err := data.LoadTable(path, limit)
	if err != nil {
		return nil, nil, err
	}
	rows, err := tab.Select(vars)
	if err != nil {
		return nil, nil, errors.Wrap(err, path)
	}
	train, test = data.Split(data.Label(rows, target), cfg.NTrain)
	return train, test, nil
}

// initNetwork writes an untrained network whose normalization comes from the
// training events, ready for an external trainer.
func initNetwork(cfg Config, logger *log.Logger) error {
	if _, err := os.Stat(cfg.Weights); err == nil {
		return errors.Errorf("%s exists, -hidden only creates new networks", cfg.Weights)
	}
	names, err := data.LoadNames(cfg.Vars)
	if err != nil {
		return err
	}
	sig, _, err := loadClass(cfg, cfg.Signal, names, data.Signal)
	if err != nil {
		return err
	}
	bkg, _, err := loadClass(cfg, cfg.Background, names, data.Background)
	if err != nil {
		return err
	}
	train := data.Mix(sig, bkg, 0)

	m, err := ml.NewModel(names, cfg.Hidden, ml.Sigmoid)
	if err != nil {
		return err
	}
	mean, sigma := data.Scale(train)
	if err := m.SetScale(mean, sigma); err != nil {
		return errors.Wrap(err, "no training events")
	}
	if err := ml.Save(cfg.Weights, m); err != nil {
		return err
	}
	logger.Printf("created %s: %d inputs, %d hidden nodes, scaled on %d events", cfg.Weights, len(names), cfg.Hidden, len(train))
	return nil
}

func report(logger *log.Logger, res *perf.Result) {
	logger.Printf("rms error            %.4f", res.RMS)
	logger.Printf("error rate           %.4f", res.ErrorRate)
	logger.Printf("area under ROC       %.4f", res.Area)
	logger.Printf("power                %.4f", res.Power)
	logger.Printf("divergence           %.4f", res.Divergence)
	logger.Printf("symmetric divergence %.4f", res.SymmetricDivergence)
	logger.Printf("divergence (MC)      %.4f", res.DivergenceByMC)
}

func emit(cfg Config, m *ml.Model) (string, error) {
	lang, err := ml.ParseLanguage(cfg.Emit)
	if err != nil {
		return "", err
	}

	fn := cfg.Func
	if fn == "" {
		base := filepath.Base(cfg.Weights)
		fn = strings.TrimSuffix(base, filepath.Ext(base))
	}

	opts := []ml.GenOption{ml.WithLanguage(lang), ml.WithTimestamp(time.Now())}
	if cfg.Package != "" {
		opts = append(opts, ml.WithPackage(cfg.Package))
	}
	titles := []string{fmt.Sprintf("Weights: %s", cfg.Weights)}
	src, err := ml.Generate(m, fn, titles, opts...)
	if err != nil {
		return "", err
	}

	path := cfg.Out
	if path == "" {
		ext := ".cpp"
		if lang == ml.LangGo {
			ext = ".go"
		}
		path = fn + ext
	}
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		return "", errors.Wrap(err, "writing generated code")
	}
	return path, nil
}
