package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"

	"github.com/davecgh/go-spew/spew"
	"github.com/foomo/tagsoup"
	"github.com/foomo/tagsoup/config"
	"github.com/foomo/tagsoup/extract"
	"github.com/foomo/tagsoup/pipeline"
	"github.com/foomo/tagsoup/record"
	"github.com/foomo/tagsoup/source"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func must(comment string, err error) {
	if err != nil {
		fmt.Println(comment, err)
		os.Exit(1)
	}
}

func main() {
	flagHelp := flag.Bool("help", false, "show help")
	flagConfig := flag.String("config", "", "path/to/config.yaml")
	flagOutput := flag.String("o", "", "output file, - is stdout, overrides the config")
	flagVerbose := flag.Bool("v", false, "verbose logging")
	flagDump := flag.Bool("dump", false, "dump the resolved config")
	flagStructure := flag.Bool("structure", false, "dump the page structure of every input instead of writing records")
	flag.Parse()

	var conf *config.Config
	var errConf error
	if *flagConfig != "" {
		conf, errConf = config.Get(*flagConfig)
	} else {
		conf, errConf = config.Load(nil)
	}
	must("config error:", errConf)
	conf.Inputs = append(conf.Inputs, flag.Args()...)
	if *flagOutput != "" {
		conf.Output = *flagOutput
	}

	if len(conf.Inputs) == 0 || *flagHelp {
		fmt.Println("foomo tagsoup - extract records from html documents into delimited text")
		fmt.Println("usage:", os.Args[0], "[-config path/to/config.yaml] [-o out.csv] [file or url ...]")
		flag.PrintDefaults()
		os.Exit(1)
	}
	if *flagDump {
		spew.Dump(conf)
	}

	logger, errLogger := zap.NewProduction()
	if *flagVerbose {
		logger, errLogger = zap.NewDevelopment()
	}
	must("could not create logger:", errLogger)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fetcherOptions := []source.Option{
		source.WithAgent(conf.Agent),
		source.WithLogger(logger),
	}
	if conf.Robots {
		fetcherOptions = append(fetcherOptions, source.WithRobots())
	}
	fetcher := source.NewFetcher(fetcherOptions...)

	parseOptions := []tagsoup.Option{}
	if conf.Normalize {
		parseOptions = append(parseOptions, tagsoup.WithNormalizedWhitespace())
	}
	if conf.Sanitize {
		parseOptions = append(parseOptions, tagsoup.WithSanitizer(tagsoup.SanitizePolicy()))
	}

	if *flagStructure {
		dumpStructures(ctx, fetcher, conf.Inputs, parseOptions)
		return
	}

	extractor, errExtractor := extract.New(conf.Fields)
	must("invalid fields:", errExtractor)

	var w io.Writer = os.Stdout
	if conf.Output != "" && conf.Output != "-" {
		file, errCreate := os.Create(conf.Output)
		must("could not create output:", errCreate)
		defer file.Close()
		w = file
	}

	pipelineOptions := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithParseOptions(parseOptions...),
	}
	if conf.FailFast {
		pipelineOptions = append(pipelineOptions, pipeline.WithFailFast())
	}
	if conf.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		pipelineOptions = append(pipelineOptions, pipeline.WithRegisterer(reg))
		go func() {
			logger.Info("serving metrics", zap.String("addr", conf.MetricsAddr))
			errServe := http.ListenAndServe(conf.MetricsAddr, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
			logger.Error("metrics server stopped", zap.Error(errServe))
		}()
	}

	p, errPipeline := pipeline.New(
		fetcher,
		extractor,
		record.NewCSVWriter(w, record.WithDelimiter(conf.DelimiterRune())),
		pipelineOptions...,
	)
	must("could not create pipeline:", errPipeline)

	stats, errRun := p.Run(ctx, conf.Inputs)
	logger.Info(
		"done",
		zap.Int("documents", stats.Documents),
		zap.Int("records", stats.Records),
		zap.Int("failed", stats.Failed),
	)
	must("run failed:", errRun)
	if stats.Failed > 0 {
		os.Exit(2)
	}
}

func dumpStructures(ctx context.Context, fetcher *source.Fetcher, inputs []string, parseOptions []tagsoup.Option) {
	for _, input := range inputs {
		m, errFetch := fetcher.Fetch(ctx, input)
		must("could not fetch "+input+":", errFetch)
		doc, errParse := tagsoup.ParseBytes(m.Body, m.ContentType, parseOptions...)
		must("could not parse "+input+":", errParse)
		s, errStructure := extract.ExtractStructure(doc, m.Location)
		if errStructure != nil {
			fmt.Println("structure of", input, "is incomplete:", errStructure)
		}
		fmt.Println(input)
		spew.Dump(s)
	}
}
