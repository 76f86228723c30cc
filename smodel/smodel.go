/*

Smodel builds parameterized Markov substitution models from pairwise
predicates and prints the resulting rate matrix and transition
probabilities.

The basic usage looks like this:

	smodel --type nucleotide --predicate transition

, this will build an HKY-style model and print its structure, the rate
matrix for the current parameter values and P(t).

To see all the options run:

	smodel --help

*/
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/gonum/matrix/mat64"

	"github.com/op/go-logging"

	bolt "go.etcd.io/bbolt"

	"bitbucket.org/Davydov/smodel/bio"
	"bitbucket.org/Davydov/smodel/calc"
	"bitbucket.org/Davydov/smodel/checkpoint"
	"bitbucket.org/Davydov/smodel/model"
)

// These three variables are set during the compilation.
var githash = ""
var gitbranch = ""
var buildstamp = ""
var version = fmt.Sprintf("branch: %s, revision: %s, build time: %s", gitbranch, githash, buildstamp)

// Logger settings.
var log = logging.MustGetLogger("smodel")
var formatter = logging.MustStringFormatter(`%{message}`)

var (
	app = kingpin.New("smodel", "A tool for building Markov substitution models.").Version(version)

	// model structure
	modelType = app.Flag("type", "model type (nucleotide, dinucleotide, codon or protein)").
			Default("nucleotide").Enum("nucleotide", "dinucleotide", "codon", "protein")
	predicates = app.Flag("predicate", "named predicate (predefined name, expression like R/Y, or name=expression)").
			Strings()
	scales     = app.Flag("scale", "scale rule for reporting (name=expression)").Strings()
	wordLength = app.Flag("word-length", "build a word alphabet of this length").Int()
	mprobModel = app.Flag("mprob", "motif probability model (motif, monomer or monomers)").
			Default("motif").Enum("motif", "monomer", "monomers")
	modelGaps   = app.Flag("model-gaps", "model the gap motif as a state").Bool()
	recodeGaps  = app.Flag("recode-gaps", "treat alignment gaps as an ambiguous state").Bool()
	noScaling   = app.Flag("no-scaling", "do not normalize branch lengths to expected substitutions").Bool()
	equalMprobs = app.Flag("equal-mprobs", "use a flat motif probability prior").Bool()
	aliF        = app.Flag("ali", "FASTA alignment to estimate motif probabilities from").ExistingFile()
	matrixF     = app.Flag("matrix", "empirical protein exchangeability matrix in PAML format").ExistingFile()

	// rate heterogeneity
	nBins        = app.Flag("bins", "number of rate-heterogeneity bins").Default("1").Int()
	distribution = app.Flag("distribution", "bin rate distribution").
			Default("free").Enum("free", "gamma", "gamma-median")
	ordered     = app.Flag("ordered", "ordered parameter names").Strings()
	partitioned = app.Flag("partitioned", "partitioned parameter names").Strings()
	withRate    = app.Flag("rate", "add the per-bin rate multiplier on branch lengths").Bool()
	edges       = app.Flag("edge", "edge names for partitioned parameters").Strings()

	// evaluation
	paramValues = app.Flag("param", "parameter value (name=value)").Strings()
	length      = app.Flag("length", "branch length").Default("1").Float64()

	// io
	checkpointF = app.Flag("checkpoint", "checkpoint file").String()
	outLogF     = app.Flag("log", "write log to a file").String()
	logLevel    = app.Flag("loglevel", "set loglevel "+
		"(CRITICAL, ERROR, WARNING, NOTICE, INFO, DEBUG)").
		Default("NOTICE").Enum("CRITICAL", "ERROR", "WARNING", "NOTICE", "INFO", "DEBUG")
)

// splitRule parses a name=expression argument into a model rule.
func splitRule(s string) model.Rule {
	if i := strings.Index(s, "="); i >= 0 {
		return model.Rule{Name: s[:i], Expr: s[i+1:]}
	}
	return model.Rule{Expr: s}
}

func makeSpec() (spec model.Spec, err error) {
	spec = model.DefaultSpec()
	for _, p := range *predicates {
		spec.Predicates = append(spec.Predicates, splitRule(p))
	}
	for _, s := range *scales {
		spec.Scales = append(spec.Scales, splitRule(s))
	}
	spec.WordLength = *wordLength
	if *mprobModel != "motif" {
		spec.MprobModel = *mprobModel
	}
	spec.ModelGaps = *modelGaps
	spec.RecodeGaps = *recodeGaps
	spec.DoScaling = !*noScaling
	spec.EqualMotifProbs = *equalMprobs
	spec.NBins = *nBins
	spec.OrderedParams = *ordered
	spec.PartitionedParams = *partitioned
	spec.WithRate = *withRate
	spec.Edges = *edges
	switch *distribution {
	case "gamma":
		spec.Distribution = calc.GammaRates{}
	case "gamma-median":
		spec.Distribution = calc.GammaRates{UseMedian: true}
	}
	return spec, nil
}

func makeModel(spec model.Spec) (*model.Model, error) {
	if *matrixF != "" {
		if *modelType != "protein" {
			return nil, fmt.Errorf("empirical matrices are only supported for protein models")
		}
		f, err := os.Open(*matrixF)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		flat, freqs, err := bio.ReadPAMLMatrix(f, 20)
		if err != nil {
			return nil, err
		}
		return model.EmpiricalProtein(mat64.NewDense(20, 20, flat), freqs, spec)
	}
	switch *modelType {
	case "nucleotide":
		return model.Nucleotide(spec)
	case "dinucleotide":
		return model.Dinucleotide(spec)
	case "codon":
		return model.Codon(spec)
	case "protein":
		return model.Protein(false, spec)
	}
	return nil, fmt.Errorf("unknown model type %s", *modelType)
}

func run() error {
	spec, err := makeSpec()
	if err != nil {
		return err
	}
	m, err := makeModel(spec)
	if err != nil {
		return err
	}
	log.Notice(m)
	for _, w := range m.Warnings {
		log.Warningf("warning: %s", w)
	}

	if *aliF != "" {
		f, err := os.Open(*aliF)
		if err != nil {
			return err
		}
		seqs, err := bio.ParseFasta(f)
		f.Close()
		if err != nil {
			return err
		}
		if err := m.EstimateMotifProbs(seqs); err != nil {
			return err
		}
	}

	in := m.NewInstance()

	var db *bolt.DB
	if *checkpointF != "" {
		db, err = bolt.Open(*checkpointF, 0644, nil)
		if err != nil {
			return err
		}
		defer db.Close()
	}
	cio := checkpoint.NewIO(db, []byte("smodel"), 0)
	if snap, err := cio.Load(); err != nil {
		return err
	} else if snap != nil {
		snap.Apply(in.Graph)
	}

	for _, pv := range *paramValues {
		i := strings.Index(pv, "=")
		if i < 0 {
			return fmt.Errorf("cannot parse parameter value %q", pv)
		}
		v, err := strconv.ParseFloat(pv[i+1:], 64)
		if err != nil {
			return err
		}
		leaf := in.Graph.Leaf(pv[:i])
		if leaf == nil {
			return fmt.Errorf("no parameter %q in the graph", pv[:i])
		}
		leaf.Set(v)
	}
	edge := ""
	if len(*edges) > 0 {
		edge = (*edges)[0]
	}
	in.SetLength(edge, *length)

	fmt.Println(m.ASCIIArt())

	for bin := 0; bin < m.NBins(); bin++ {
		q, scale := in.Q("", edge, bin)
		if m.NBins() > 1 {
			fmt.Printf("bin %d\n", bin)
		}
		fmt.Printf("scale: %g\n", scale)
		printMatrix(m.Alphabet().Motifs(), q)
		p, err := in.Psubs("", edge, bin)
		if err != nil {
			return err
		}
		fmt.Printf("P(t=%g)\n", *length)
		printMatrix(m.Alphabet().Motifs(), p)
	}
	if rates := in.BinRates(); rates != nil {
		fmt.Println("bin rates:", rates)
		fmt.Println("bin probs:", in.BinProbs())
	}

	if db != nil {
		return cio.Save(checkpoint.FromGraph(in.Graph, 0, 0, true))
	}
	return nil
}

func printMatrix(motifs []string, m interface {
	At(i, j int) float64
	Dims() (int, int)
}) {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		fmt.Printf("%4s", motifs[i])
		for j := 0; j < c; j++ {
			fmt.Printf(" %8.5f", m.At(i, j))
		}
		fmt.Println()
	}
}

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))

	// logging
	logging.SetFormatter(formatter)

	var backend *logging.LogBackend
	if *outLogF != "" {
		f, err := os.OpenFile(*outLogF, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		backend = logging.NewLogBackend(f, "", 0)
	} else {
		backend = logging.NewLogBackend(os.Stderr, "", 0)
	}
	logging.SetBackend(backend)

	level, err := logging.LogLevel(*logLevel)
	if err != nil {
		log.Fatal(err)
	}
	for _, pkg := range []string{"smodel", "model", "predicate", "checkpoint"} {
		logging.SetLevel(level, pkg)
	}

	if err := run(); err != nil {
		log.Fatal(err)
	}
}
