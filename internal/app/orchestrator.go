package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"bwf-news-parser/internal/checksum"
	"bwf-news-parser/internal/config"
	"bwf-news-parser/internal/discovery"
	"bwf-news-parser/internal/news"
	"bwf-news-parser/internal/normalize"
	"bwf-news-parser/internal/observability"
	"bwf-news-parser/internal/override"
	"bwf-news-parser/internal/scraper"
	"bwf-news-parser/internal/storage"
)

// ContentFetcher загрузка страниц; реализуется fetcher.Fetcher
type ContentFetcher interface {
	FetchContent(ctx context.Context, url string) (string, error)
	FetchAlternate(ctx context.Context, url string) (string, error)
}

type Orchestrator struct {
	cfg        *config.Config
	logger     *observability.Logger
	fetcher    ContentFetcher
	extractor  *scraper.Extractor
	store      storage.Store
	archive    storage.Archive
	discoverer *discovery.Discoverer
	overrides  *override.Table
	metrics    *observability.Metrics
	checksum   *checksum.Generator
	now        func() time.Time
}

type Option func(*Orchestrator)

// WithArchive зеркалировать опубликованный список в БД
func WithArchive(a storage.Archive) Option {
	return func(o *Orchestrator) { o.archive = a }
}

// WithDiscoverer RSS-фолбэк, когда листинги не дали ни одной ссылки
func WithDiscoverer(d *discovery.Discoverer) Option {
	return func(o *Orchestrator) { o.discoverer = d }
}

func WithOverrides(t *override.Table) Option {
	return func(o *Orchestrator) { o.overrides = t }
}

func WithMetrics(m *observability.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithClock для тестов
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

func NewOrchestrator(
	cfg *config.Config,
	logger *observability.Logger,
	f ContentFetcher,
	extractor *scraper.Extractor,
	store storage.Store,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		cfg:       cfg,
		logger:    logger,
		fetcher:   f,
		extractor: extractor,
		store:     store,
		checksum:  checksum.NewGenerator(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.metrics == nil {
		o.metrics = observability.NewMetrics()
	}
	return o
}

type RunStats struct {
	PagesFetched  int
	Candidates    int
	Extracted     int
	Dropped       int
	Fresh         int
	Published     int
	UsedDiscovery bool
	Written       bool
	StoppedReason string
}

// Run один полный прогон: листинги, статьи, агрегация, запись файла.
// Ошибкой возвращается только неудачная запись результата (и отмена контекста).
func (o *Orchestrator) Run(ctx context.Context) (*RunStats, error) {
	started := o.now()
	stats := &RunStats{}

	previous := o.loadPrevious(ctx)
	limit := o.cfg.Listing.MaxItems

	o.logger.Info("Starting run",
		"pages", len(o.cfg.Listing.Pages),
		"previous_items", len(previous),
		"max_items", limit,
	)

	var perPage [][]news.Item
	seen := make(map[string]bool)

	for pageNum, page := range o.cfg.Listing.Pages {
		if ctx.Err() != nil {
			break
		}
		if len(seen) >= limit {
			stats.StoppedReason = fmt.Sprintf("collected %d items after %d pages", len(seen), pageNum)
			break
		}

		candidates, err := o.listPage(ctx, page)
		if err != nil {
			o.logger.Warn("Listing page failed",
				"page", pageNum+1,
				"url", page.URL,
				"error", err.Error(),
			)
			o.metrics.FetchFailures.WithLabelValues("listing").Inc()
			continue
		}

		stats.PagesFetched++
		stats.Candidates += len(candidates)
		o.metrics.PagesFetched.Inc()

		items := o.enrich(ctx, candidates, stats)
		perPage = append(perPage, items)
		for _, item := range items {
			seen[item.Href] = true
		}

		o.logger.Info("Listing page processed",
			"page", pageNum+1,
			"url", page.URL,
			"latest_only", page.LatestOnly,
			"candidates", len(candidates),
			"items", len(items),
			"unique_so_far", len(seen),
		)
	}

	if stats.Candidates == 0 && o.discoverer != nil && ctx.Err() == nil {
		candidates := o.discoverer.Discover(ctx)
		o.logger.Info("Listings yielded no candidates, using discovery", "candidates", len(candidates))
		if len(candidates) > 0 {
			stats.UsedDiscovery = true
			stats.Candidates += len(candidates)
			perPage = append(perPage, o.enrich(ctx, candidates, stats))
		}
	}

	if err := ctx.Err(); err != nil {
		o.metrics.ObserveRun(started, o.now(), false)
		return stats, fmt.Errorf("run cancelled: %w", err)
	}

	for _, items := range perPage {
		stats.Fresh += len(items)
	}

	if stats.Fresh == 0 && len(previous) > 0 {
		o.logger.Warn("No fresh items, keeping previous file",
			"path", o.cfg.Storage.OutputPath,
			"previous_items", len(previous),
		)
		stats.StoppedReason = "no fresh items"
		o.finish(started, true)
		return stats, nil
	}

	result := news.Aggregate(perPage, previous, limit)

	if o.checksum.ListHash(result) == o.checksum.ListHash(previous) {
		o.logger.Info("Published list unchanged")
	}

	doc := news.NewDocument(o.now(), result)
	if err := o.store.Save(ctx, doc); err != nil {
		o.logger.Error("Failed to save output", "path", o.cfg.Storage.OutputPath, "error", err.Error())
		o.finish(started, false)
		return stats, fmt.Errorf("failed to save output: %w", err)
	}
	stats.Written = true
	stats.Published = len(result)
	o.metrics.ItemsPublished.Set(float64(len(result)))

	o.archiveItems(ctx, result)

	o.logger.Info("Run completed",
		"pages_fetched", stats.PagesFetched,
		"candidates", stats.Candidates,
		"extracted", stats.Extracted,
		"dropped", stats.Dropped,
		"fresh", stats.Fresh,
		"published", stats.Published,
		"discovery", stats.UsedDiscovery,
	)

	o.finish(started, true)
	return stats, nil
}

func (o *Orchestrator) finish(started time.Time, ok bool) {
	o.metrics.ObserveRun(started, o.now(), ok)
	if err := o.metrics.WriteTextfile(o.cfg.Observability.MetricsPath); err != nil {
		o.logger.Warn("Failed to write metrics", "error", err.Error())
	}
}

// loadPrevious отсутствующий или битый файл считается пустым
func (o *Orchestrator) loadPrevious(ctx context.Context) []news.Item {
	doc, err := o.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			o.logger.Warn("Previous output unreadable, treating as empty", "error", err.Error())
		}
		return nil
	}
	return doc.Items
}

// listPage ссылки со страницы листинга; при пустом результате на странице
// согласия на cookie пробует альтернативную загрузку
func (o *Orchestrator) listPage(ctx context.Context, page config.ListingPage) ([]scraper.Candidate, error) {
	html, err := o.fetcher.FetchContent(ctx, page.URL)
	if err != nil {
		return nil, err
	}

	candidates, err := o.extractListing(html, page)
	if err != nil {
		return nil, err
	}
	if len(candidates) > 0 || !scraper.IsConsentPage(html) {
		return candidates, nil
	}

	o.logger.Debug("Listing looks like a consent page, trying alternate fetch", "url", page.URL)
	alt, err := o.fetcher.FetchAlternate(ctx, page.URL)
	if err != nil {
		o.logger.Debug("Alternate listing fetch failed", "url", page.URL, "error", err.Error())
		return candidates, nil
	}
	return o.extractListing(alt, page)
}

func (o *Orchestrator) extractListing(html string, page config.ListingPage) ([]scraper.Candidate, error) {
	if page.LatestOnly {
		return o.extractor.ExtractLatestListing(html, page.URL, o.cfg.Listing.CandidatesPerPage)
	}
	return o.extractor.ExtractListing(html, page.URL, o.cfg.Listing.CandidatesPerPage)
}

// enrich обходит статьи пулом; каждая задача пишет только в свой слот
func (o *Orchestrator) enrich(ctx context.Context, candidates []scraper.Candidate, stats *RunStats) []news.Item {
	slots := make([]*news.Item, len(candidates))

	var g errgroup.Group
	g.SetLimit(o.cfg.Listing.Workers)

	for i, c := range candidates {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			if item, ok := o.buildItem(ctx, c); ok {
				slots[i] = &item
			}
			return nil
		})
	}
	_ = g.Wait()

	items := make([]news.Item, 0, len(candidates))
	for _, slot := range slots {
		if slot != nil {
			items = append(items, *slot)
		}
	}
	stats.Extracted += len(items)
	stats.Dropped += len(candidates) - len(items)
	return items
}

// buildItem статья + запасные данные карточки -> новость
func (o *Orchestrator) buildItem(ctx context.Context, c scraper.Candidate) (news.Item, bool) {
	// пул завершает задачи вразнобой; seq позиция карточки на листинге
	log := o.logger.With("url", c.Href, "seq", c.SequenceNum)

	html, err := o.fetcher.FetchContent(ctx, c.Href)
	if err != nil {
		log.Warn("Article fetch failed", "error", err.Error())
		o.metrics.FetchFailures.WithLabelValues("article").Inc()
		o.metrics.ArticlesDropped.WithLabelValues("fetch_failed").Inc()
		return news.Item{}, false
	}

	if scraper.IsConsentPage(html) {
		alt, err := o.fetcher.FetchAlternate(ctx, c.Href)
		switch {
		case err != nil:
			log.Debug("Alternate fetch failed, using original page", "error", err.Error())
		case scraper.IsConsentPage(alt):
			log.Debug("Alternate fetch is also a consent page")
		default:
			html = alt
		}
	}

	art, ok := o.extractor.ExtractArticle(html, c.Href)
	if !ok {
		art = &scraper.Article{}
	}

	title := art.Title
	if title == "" {
		title = scraper.CleanTitle(c.TitleFallback)
	}
	if title == "" {
		log.Debug("Dropping article without title")
		o.metrics.ArticlesDropped.WithLabelValues("no_title").Inc()
		return news.Item{}, false
	}

	preview := art.Preview
	if preview == "" && !normalize.IsBoilerplate(c.PreviewFallback) {
		preview = normalize.TruncatePreview(c.PreviewFallback, o.cfg.Normalize.MaxPreviewChars)
	}
	date := art.Date
	if date == "" {
		date = scraper.NormalizeDate(c.DateFallback)
	}

	item := news.Item{
		Title:   title,
		Href:    c.Href,
		Preview: preview,
		Date:    date,
	}

	item, overridden := o.overrides.Apply(item)
	if overridden {
		o.metrics.OverridesApplied.Inc()
	} else {
		item.Img = scraper.ChooseImage(art.Image, art.Images, c.ImgFallback, o.extractor.IsGenericImage)
	}

	o.metrics.ArticlesExtracted.Inc()
	log.Debug("Article extracted",
		"title", item.Title,
		"date", item.Date,
		"img", item.Img,
		"override", overridden,
	)
	return item, true
}

// archiveItems ошибки БД не влияют на результат прогона
func (o *Orchestrator) archiveItems(ctx context.Context, items []news.Item) {
	if o.archive == nil {
		return
	}

	var inserted, updated, failed int
	for i, item := range items {
		date, _ := news.ParseDate(item.Date)
		isNew, isUpdated, err := o.archive.UpsertItem(ctx, &storage.ArchivedItem{
			CanonicalURL: item.Href,
			Title:        item.Title,
			Text:         item.Preview,
			ImageURL:     item.Img,
			Date:         date,
			SequenceNum:  i,
			CheckSum:     o.checksum.ItemHash(item),
		})
		if err != nil {
			failed++
			o.logger.Warn("Archive upsert failed", "url", item.Href, "error", err.Error())
			continue
		}
		if isNew {
			inserted++
		}
		if isUpdated {
			updated++
		}
	}

	o.logger.Info("Archive updated",
		"inserted", inserted,
		"updated", updated,
		"failed", failed,
	)
}
