// Package config parses the command-line surface and optional TOML config
// file into an Options value. Grounded field-for-field on
// original_source/src/gaugefixing/apps/program_options/ProgramOptions.hxx
// (every flag below is a direct port of a boost::program_options option in
// that file: same name, same default, same "command line overrides config
// file" precedence). Libraries: github.com/spf13/pflag for flag parsing,
// github.com/BurntSushi/toml for the config file layer.
package config

import (
	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/latticeqcd/gofix/internal/gferr"
	"github.com/latticeqcd/gofix/internal/ioformat"
)

// ReinterpretReal mirrors the source's ReinterpretReal enum: whether a
// loaded file's element width should be taken at face value or promoted/
// demoted to the in-memory float64.
type ReinterpretReal int

const (
	Standard ReinterpretReal = iota
	Float
	Double
)

// Options is the full CLI/config-file surface, one field per flag in
// ProgramOptions.hxx.
type Options struct {
	ConfigFile string

	OutputSAFunctional string
	OutputConf         string
	OutputEnding       string
	SaveEach           bool
	DoSA               bool

	DeviceNumber int

	FType           ioformat.FileType
	FBasename       string
	FEnding         string
	FNumberformat   int
	FStartnumber    int
	FStepnumber     int
	Nconf           int
	FOutputAppendix string

	Reinterpret ReinterpretReal

	HotGaugefield bool

	Seed int64

	GaugeCopies int
	RandomTrafo bool
	Reproject   int

	SASteps        int
	SAMin          float64
	SAMax          float64
	SAMicroupdates int

	OrMaxIter   int
	OrParameter float64
	SrMaxIter   int
	SrParameter float64 // internal/driver uses 1/SrParameter as the SR probability (1 when SrParameter <= 0); SrMaxIter <= 0 skips the SR stage

	Precision      float64
	CheckPrecision int
}

// Default returns the option set with every default value ProgramOptions.hxx
// declares.
func Default() Options {
	return Options{
		FEnding:         ".vogt",
		FNumberformat:   1,
		FStepnumber:     1,
		Nconf:           1,
		FOutputAppendix: "gaugefixed_",
		Reinterpret:     Standard,
		Seed:            1,
		GaugeCopies:     1,
		RandomTrafo:     true,
		Reproject:       100,
		DoSA:            true,
		SASteps:         1000,
		SAMin:           0.01,
		SAMax:           0.4,
		SAMicroupdates:  3,
		OrMaxIter:       1000,
		OrParameter:     1.7,
		SrMaxIter:       1000,
		SrParameter:     1.7,
		Precision:       1e-7,
		CheckPrecision:  100,
		DeviceNumber:    -1,
	}
}

// fileOptions mirrors Options but with every field optional, so a TOML
// config file can leave fields unset without clobbering a flag's default.
type fileOptions struct {
	OutputSAFunctional *string `toml:"output_SA_functional"`
	OutputConf         *string `toml:"output_conf"`
	OutputEnding       *string `toml:"output_ending"`
	SaveEach           *bool   `toml:"save_each"`
	DoSA               *bool   `toml:"doSA"`
	DeviceNumber       *int    `toml:"devicenumber"`
	FType              *string `toml:"ftype"`
	FBasename          *string `toml:"fbasename"`
	FEnding            *string `toml:"fending"`
	FNumberformat      *int    `toml:"fnumberformat"`
	FStartnumber       *int    `toml:"fstartnumber"`
	FStepnumber        *int    `toml:"fstepnumber"`
	Nconf              *int    `toml:"nconf"`
	FOutputAppendix    *string `toml:"fappendix"`
	Reinterpret        *string `toml:"reinterpret"`
	HotGaugefield      *bool   `toml:"hotgaugefield"`
	Seed               *int64  `toml:"seed"`
	GaugeCopies        *int    `toml:"gaugecopies"`
	RandomTrafo        *bool   `toml:"randomtrafo"`
	Reproject          *int    `toml:"reproject"`
	SASteps            *int    `toml:"sasteps"`
	SAMin              *float64 `toml:"samin"`
	SAMax              *float64 `toml:"samax"`
	SAMicroupdates     *int    `toml:"microupdates"`
	OrMaxIter          *int    `toml:"ormaxiter"`
	OrParameter        *float64 `toml:"orparameter"`
	SrMaxIter          *int    `toml:"srmaxiter"`
	SrParameter        *float64 `toml:"srparameter"`
	Precision          *float64 `toml:"precision"`
	CheckPrecision     *int    `toml:"checkprecision"`
}

// Binding holds the live Options value a Binding's flags write into, plus
// the string-typed flags (ftype, reinterpret) that need a validating
// conversion once parsing is done.
type Binding struct {
	opts                         *Options
	ftypeStr, reinterpretStr     string
}

// RegisterFlags defines every ProgramOptions.hxx flag on fs, seeded with
// Default(), and returns the Binding Resolve needs to finish building
// Options after fs.Parse has run. Split out from Parse so a caller that
// needs additional flags of its own (cmd/gaugefix's rank/lattice-size
// flags, which ProgramOptions.hxx has no equivalent for) can add them to
// the same FlagSet before parsing once.
func RegisterFlags(fs *pflag.FlagSet) *Binding {
	opts := Default()
	b := &Binding{opts: &opts}

	fs.StringVar(&opts.OutputSAFunctional, "output_SA_functional", opts.OutputSAFunctional, "output for temperature-functional data")
	fs.StringVar(&opts.OutputConf, "output_conf", opts.OutputConf, "path for output configuration")
	fs.StringVar(&opts.OutputEnding, "output_ending", opts.OutputEnding, "file ending to append to output_conf")
	fs.BoolVar(&opts.SaveEach, "save_each", opts.SaveEach, "save each gauge copy")
	fs.BoolVar(&opts.DoSA, "doSA", opts.DoSA, "enable the simulated-annealing stage")
	fs.IntVarP(&opts.DeviceNumber, "devicenumber", "D", opts.DeviceNumber, "worker pool size hint (-1 = auto)")
	fs.StringVar(&b.ftypeStr, "ftype", "", "PLAIN, HEADERONLY, VOGT, ILDG, QCDSTAG")
	fs.StringVar(&opts.FBasename, "fbasename", opts.FBasename, "file basename")
	fs.StringVar(&opts.FEnding, "fending", opts.FEnding, "file ending to append to basename")
	fs.IntVar(&opts.FNumberformat, "fnumberformat", opts.FNumberformat, "number format for the file index")
	fs.IntVar(&opts.FStartnumber, "fstartnumber", opts.FStartnumber, "file index number to start from")
	fs.IntVar(&opts.FStepnumber, "fstepnumber", opts.FStepnumber, "load every n-th file")
	fs.IntVarP(&opts.Nconf, "nconf", "m", opts.Nconf, "how many files to gauge fix")
	fs.StringVar(&opts.FOutputAppendix, "fappendix", opts.FOutputAppendix, "appendix between input filename and number")
	fs.StringVar(&b.reinterpretStr, "reinterpret", "STANDARD", "STANDARD, FLOAT, or DOUBLE")
	fs.BoolVar(&opts.HotGaugefield, "hotgaugefield", opts.HotGaugefield, "skip load, fill with random SU(3)")
	fs.Int64Var(&opts.Seed, "seed", opts.Seed, "RNG seed")
	fs.IntVar(&opts.GaugeCopies, "gaugecopies", opts.GaugeCopies, "number of gauge copies")
	fs.BoolVar(&opts.RandomTrafo, "randomtrafo", opts.RandomTrafo, "randomize each copy before fixing")
	fs.IntVar(&opts.Reproject, "reproject", opts.Reproject, "reproject every n-th step")
	fs.IntVar(&opts.SASteps, "sasteps", opts.SASteps, "number of SA steps")
	fs.Float64Var(&opts.SAMin, "samin", opts.SAMin, "minimum SA temperature")
	fs.Float64Var(&opts.SAMax, "samax", opts.SAMax, "maximum SA temperature")
	fs.IntVar(&opts.SAMicroupdates, "microupdates", opts.SAMicroupdates, "microcanonical updates per SA temperature")
	fs.IntVar(&opts.OrMaxIter, "ormaxiter", opts.OrMaxIter, "max OR iterations")
	fs.Float64Var(&opts.OrParameter, "orparameter", opts.OrParameter, "OR parameter")
	fs.IntVar(&opts.SrMaxIter, "srmaxiter", opts.SrMaxIter, "max SR iterations")
	fs.Float64Var(&opts.SrParameter, "srparameter", opts.SrParameter, "SR parameter")
	fs.Float64Var(&opts.Precision, "precision", opts.Precision, "OR convergence precision")
	fs.IntVar(&opts.CheckPrecision, "checkprecision", opts.CheckPrecision, "how often to check gauge precision")

	return b
}

// Resolve finishes building Options after fs.Parse has run against a
// FlagSet RegisterFlags returned: it validates the string-typed ftype/
// reinterpret flags, treats fs's first remaining positional argument as a
// TOML config-file path, and applies that file's values to every field
// whose flag was not explicitly set on the command line.
func (b *Binding) Resolve(fs *pflag.FlagSet) (Options, error) {
	opts := *b.opts

	if b.ftypeStr != "" {
		ft, err := parseFileType(b.ftypeStr)
		if err != nil {
			return Options{}, err
		}
		opts.FType = ft
	}
	if b.reinterpretStr != "" {
		rr, err := parseReinterpret(b.reinterpretStr)
		if err != nil {
			return Options{}, err
		}
		opts.Reinterpret = rr
	}

	if positional := fs.Args(); len(positional) > 0 {
		opts.ConfigFile = positional[0]
	}

	if opts.ConfigFile != "" {
		var fo fileOptions
		if _, err := toml.DecodeFile(opts.ConfigFile, &fo); err != nil {
			return Options{}, errors.Wrap(gferr.ErrInvalidOption, "reading config file: "+err.Error())
		}
		if err := mergeFileOptions(&opts, fo, fs); err != nil {
			return Options{}, err
		}
	}

	return opts, validate(opts)
}

// Parse is the standalone entry point: it registers flags on a fresh
// FlagSet, parses args, and resolves Options in one call. cmd/gaugefix
// uses RegisterFlags/Resolve directly instead, so it can add its own
// rank/lattice-size flags to the same FlagSet before parsing.
func Parse(args []string) (Options, error) {
	fs := pflag.NewFlagSet("gaugefix", pflag.ContinueOnError)
	b := RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return Options{}, errors.Wrap(gferr.ErrInvalidOption, err.Error())
	}
	return b.Resolve(fs)
}

func mergeFileOptions(opts *Options, fo fileOptions, fs *pflag.FlagSet) error {
	changed := fs.Changed
	applyString := func(name string, dst *string, v *string) {
		if v != nil && !changed(name) {
			*dst = *v
		}
	}
	applyBool := func(name string, dst *bool, v *bool) {
		if v != nil && !changed(name) {
			*dst = *v
		}
	}
	applyInt := func(name string, dst *int, v *int) {
		if v != nil && !changed(name) {
			*dst = *v
		}
	}
	applyFloat := func(name string, dst *float64, v *float64) {
		if v != nil && !changed(name) {
			*dst = *v
		}
	}

	applyString("output_SA_functional", &opts.OutputSAFunctional, fo.OutputSAFunctional)
	applyString("output_conf", &opts.OutputConf, fo.OutputConf)
	applyString("output_ending", &opts.OutputEnding, fo.OutputEnding)
	applyBool("save_each", &opts.SaveEach, fo.SaveEach)
	applyBool("doSA", &opts.DoSA, fo.DoSA)
	applyInt("devicenumber", &opts.DeviceNumber, fo.DeviceNumber)
	applyString("fbasename", &opts.FBasename, fo.FBasename)
	applyString("fending", &opts.FEnding, fo.FEnding)
	applyInt("fnumberformat", &opts.FNumberformat, fo.FNumberformat)
	applyInt("fstartnumber", &opts.FStartnumber, fo.FStartnumber)
	applyInt("fstepnumber", &opts.FStepnumber, fo.FStepnumber)
	applyInt("nconf", &opts.Nconf, fo.Nconf)
	applyString("fappendix", &opts.FOutputAppendix, fo.FOutputAppendix)
	applyBool("hotgaugefield", &opts.HotGaugefield, fo.HotGaugefield)
	applyBool("randomtrafo", &opts.RandomTrafo, fo.RandomTrafo)
	applyInt("reproject", &opts.Reproject, fo.Reproject)
	applyInt("sasteps", &opts.SASteps, fo.SASteps)
	applyFloat("samin", &opts.SAMin, fo.SAMin)
	applyFloat("samax", &opts.SAMax, fo.SAMax)
	applyInt("microupdates", &opts.SAMicroupdates, fo.SAMicroupdates)
	applyInt("ormaxiter", &opts.OrMaxIter, fo.OrMaxIter)
	applyFloat("orparameter", &opts.OrParameter, fo.OrParameter)
	applyInt("srmaxiter", &opts.SrMaxIter, fo.SrMaxIter)
	applyFloat("srparameter", &opts.SrParameter, fo.SrParameter)
	applyFloat("precision", &opts.Precision, fo.Precision)
	applyInt("checkprecision", &opts.CheckPrecision, fo.CheckPrecision)

	if fo.Seed != nil && !changed("seed") {
		opts.Seed = *fo.Seed
	}
	if fo.GaugeCopies != nil && !changed("gaugecopies") {
		opts.GaugeCopies = *fo.GaugeCopies
	}
	if fo.FType != nil && !changed("ftype") {
		ft, err := parseFileType(*fo.FType)
		if err != nil {
			return err
		}
		opts.FType = ft
	}
	if fo.Reinterpret != nil && !changed("reinterpret") {
		rr, err := parseReinterpret(*fo.Reinterpret)
		if err != nil {
			return err
		}
		opts.Reinterpret = rr
	}
	return nil
}

func parseFileType(s string) (ioformat.FileType, error) {
	switch s {
	case "PLAIN":
		return ioformat.Plain, nil
	case "HEADERONLY":
		return ioformat.Headeronly, nil
	case "VOGT":
		return ioformat.Vogt, nil
	case "ILDG":
		return ioformat.ILDG, nil
	case "QCDSTAG":
		return ioformat.QCDSTAG, nil
	default:
		return 0, errors.Wrap(gferr.ErrInvalidOption, "unknown ftype "+s)
	}
}

func parseReinterpret(s string) (ReinterpretReal, error) {
	switch s {
	case "STANDARD", "":
		return Standard, nil
	case "FLOAT":
		return Float, nil
	case "DOUBLE":
		return Double, nil
	default:
		return 0, errors.Wrap(gferr.ErrInvalidOption, "unknown reinterpret mode "+s)
	}
}

func validate(opts Options) error {
	if opts.GaugeCopies < 1 {
		return errors.Wrap(gferr.ErrInvalidOption, "gaugecopies must be >= 1")
	}
	if opts.Nconf < 1 {
		return errors.Wrap(gferr.ErrInvalidOption, "nconf must be >= 1")
	}
	if opts.SASteps < 1 {
		return errors.Wrap(gferr.ErrInvalidOption, "sasteps must be >= 1")
	}
	return nil
}
