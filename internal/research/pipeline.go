package research

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sizzlebop/CLIche/internal/config"
	"github.com/sizzlebop/CLIche/internal/document"
	"github.com/sizzlebop/CLIche/internal/images"
	"github.com/sizzlebop/CLIche/internal/llm"
	"github.com/sizzlebop/CLIche/internal/logging"
	"github.com/sizzlebop/CLIche/internal/search"
)

// Stage names a pipeline phase.
type Stage string

const (
	StagePlanning      Stage = "PLANNING"
	StageSearching     Stage = "SEARCHING"
	StageFetching      Stage = "FETCHING"
	StageChunking      Stage = "CHUNKING"
	StageSynthesizing  Stage = "SYNTHESIZING"
	StagePlacingImages Stage = "PLACING_IMAGES"
	StageWriting       Stage = "WRITING"
	StageDone          Stage = "DONE"
	StageFailed        Stage = "FAILED"
)

// Options configure one pipeline run.
type Options struct {
	Topic        string
	Depth        int
	MaxPages     int
	Mode         Mode
	Engine       search.Engine
	ImageQuery   string // Unsplash search term; empty disables image placement
	ImageCount   int
	Professional bool
	OutputDir    string // defaults to ~/.cliche/files/docs
}

// Result is a completed run.
type Result struct {
	RunID    string
	Stage    Stage // terminal stage: DONE or FAILED
	Document *document.Document
	Path     string
	Sources  int
	Failures []error
	Timings  map[Stage]time.Duration
}

// Pipeline wires the stages together.
type Pipeline struct {
	cfg      *config.Config
	planner  *search.Planner
	fetcher  SourceFetcher
	client   llm.Client
	unsplash *images.Client
	logger   *zap.Logger
}

// NewPipeline assembles a pipeline from its collaborators. unsplash may be
// nil (image sourcing unavailable); logger may be nil.
func NewPipeline(cfg *config.Config, planner *search.Planner, fetcher SourceFetcher, client llm.Client, unsplash *images.Client, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		cfg:      cfg,
		planner:  planner,
		fetcher:  fetcher,
		client:   client,
		unsplash: unsplash,
		logger:   logger,
	}
}

// Run executes search → fetch → chunk/synthesize → place images → write.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Result, error) {
	res := &Result{
		RunID:   uuid.NewString(),
		Timings: make(map[Stage]time.Duration),
	}
	stage := StagePlanning
	stageStart := time.Now()

	advance := func(next Stage) {
		res.Timings[stage] = time.Since(stageStart)
		p.logger.Debug("stage complete",
			zap.String("run_id", res.RunID),
			zap.String("stage", string(stage)),
			zap.Duration("took", res.Timings[stage]),
			zap.String("next", string(next)))
		stage = next
		stageStart = time.Now()
	}
	fail := func(err error) (*Result, error) {
		advance(StageFailed)
		res.Stage = StageFailed
		p.logger.Error("pipeline failed", zap.String("run_id", res.RunID), zap.Error(err))
		return res, err
	}

	if opts.Topic == "" {
		return fail(fmt.Errorf("empty topic"))
	}
	if opts.MaxPages < 1 {
		opts.MaxPages = 5
	}
	if opts.Mode == "" {
		opts.Mode = ModeComprehensive
	}
	logging.CLI("run %s: topic=%q mode=%s depth=%d max_pages=%d", res.RunID, opts.Topic, opts.Mode, opts.Depth, opts.MaxPages)

	// SEARCHING
	advance(StageSearching)
	results, err := p.planner.Search(ctx, opts.Topic, opts.MaxPages*2, opts.Engine)
	if err != nil {
		return fail(err)
	}
	if len(results) > opts.MaxPages {
		results = results[:opts.MaxPages]
	}

	// FETCHING
	advance(StageFetching)
	budgets := BudgetsForDepth(p.cfg.Research, opts.Depth, opts.MaxPages)
	agg := NewAggregator(p.fetcher, budgets, p.cfg.Research.MaxConcurrent)
	corpus := agg.Gather(ctx, results)
	res.Sources = len(corpus.Sources)
	res.Failures = corpus.Failures
	if corpus.Empty() {
		return fail(fmt.Errorf("no sources could be fetched for %q", opts.Topic))
	}

	// CHUNKING + SYNTHESIZING (the synthesizer owns chunking)
	advance(StageChunking)
	synth := NewSynthesizer(p.client)
	synth.SetProfessional(opts.Professional)
	advance(StageSynthesizing)
	doc, err := synth.Synthesize(ctx, opts.Topic, corpus, opts.Mode)
	if err != nil {
		return fail(err)
	}

	// PLACING_IMAGES
	advance(StagePlacingImages)
	if opts.ImageQuery != "" && p.unsplash != nil {
		p.placeImages(ctx, opts, doc)
	}

	// WRITING
	advance(StageWriting)
	outDir := opts.OutputDir
	if outDir == "" {
		outDir, err = config.DocsDir()
		if err != nil {
			return fail(err)
		}
	}
	path, err := doc.Write(outDir, opts.Topic)
	if err != nil {
		return fail(err)
	}

	advance(StageDone)
	res.Stage = StageDone
	res.Document = doc
	res.Path = path
	logging.CLI("run %s: wrote %s (%d sources)", res.RunID, path, res.Sources)
	return res, nil
}

// placeImages sources and inserts images; any failure here degrades to a
// document without images rather than failing the run.
func (p *Pipeline) placeImages(ctx context.Context, opts Options, doc *document.Document) {
	count := opts.ImageCount
	if count < 1 {
		count = 1
	}

	imgs, err := p.unsplash.Search(ctx, opts.ImageQuery, count)
	if err != nil {
		logging.ImagesWarn("image search failed, continuing without images: %v", err)
		return
	}
	if len(imgs) == 0 {
		return
	}

	if dir, err := config.ImagesDir(); err == nil {
		for i, img := range imgs {
			if dl, err := p.unsplash.Download(ctx, img, dir); err == nil {
				imgs[i] = dl
			}
		}
	}

	placer := NewImagePlacer(p.client)
	body, credits := placer.Place(ctx, doc.Body, imgs)
	doc.Body = body
	doc.Credits = append(doc.Credits, credits...)
}
