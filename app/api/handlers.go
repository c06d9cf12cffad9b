package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/policy-radar/app/article"
	"github.com/lysyi3m/policy-radar/app/database"
	"github.com/lysyi3m/policy-radar/app/tasks"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

type Handler struct {
	runner      tasks.Runner
	scheduler   SchedulerInterface
	catalog     CatalogInterface
	articleRepo database.ArticleRepository
	historyRepo database.FeedHistoryRepository
	sourceRepo  database.SourceRepository
	generator   GeneratorInterface
}

func NewHandler(runner tasks.Runner, scheduler SchedulerInterface, catalog CatalogInterface,
	articleRepo database.ArticleRepository, historyRepo database.FeedHistoryRepository,
	sourceRepo database.SourceRepository, generator GeneratorInterface) *Handler {
	return &Handler{
		runner:      runner,
		scheduler:   scheduler,
		catalog:     catalog,
		articleRepo: articleRepo,
		historyRepo: historyRepo,
		sourceRepo:  sourceRepo,
		generator:   generator,
	}
}

// GetArticles serves the ranked list of the latest run, or the most recently
// stored articles when no run has completed yet.
func (h *Handler) GetArticles(c *gin.Context) {
	articles, runID, err := h.currentArticles(c)
	if err != nil {
		slog.Error("Database error", "operation", "list_articles", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	articles = filterArticles(articles, c.Query("source"), c.Query("category"), c.Query("tag"))
	articles = limitArticles(articles, parseLimit(c.Query("limit")))
	if articles == nil {
		articles = []*article.Article{}
	}

	c.JSON(http.StatusOK, gin.H{
		"run_id":   runID,
		"total":    len(articles),
		"articles": articles,
	})
}

func (h *Handler) GetFeed(c *gin.Context) {
	articles, _, err := h.currentArticles(c)
	if err != nil {
		slog.Error("Database error", "operation", "list_articles", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	articles = limitArticles(articles, parseLimit(c.Query("limit")))

	updated := time.Now().In(time.Local)
	if last := h.runner.Last(); last != nil {
		updated = last.Stats.FinishedAt
	}

	format := c.DefaultQuery("format", FormatRSS)
	output, err := h.generator.Run(articles, format, updated)
	if err != nil {
		slog.Error("Feed generation error", "format", format, "error", err)
		c.Status(http.StatusBadRequest)
		return
	}

	contentType := "application/rss+xml; charset=utf-8"
	switch format {
	case FormatAtom:
		contentType = "application/atom+xml; charset=utf-8"
	case FormatJSON:
		contentType = "application/feed+json; charset=utf-8"
	}

	c.Header("X-Feed-Items", strconv.Itoa(len(articles)))
	c.Header("X-Last-Updated", updated.Format(time.RFC3339))
	c.Data(http.StatusOK, contentType, []byte(output))
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp":       time.Now().In(time.Local).Format(time.RFC3339),
		"run_in_progress": h.runner.Running(),
		"sources":         h.catalog.Count(),
	}

	if count, err := h.articleRepo.Count(c.Request.Context()); err == nil {
		health["stored_articles"] = count
	}

	if last := h.runner.Last(); last != nil {
		health["last_run_id"] = last.Stats.RunID
		health["last_run_at"] = last.Stats.FinishedAt.Format(time.RFC3339)
		health["sources_ok"] = last.Stats.SuccessfulSources
		health["sources_failed"] = last.Stats.FailedSources + last.Stats.AbandonedSources
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	last := h.runner.Last()
	if last == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No completed run yet"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stats":  last.Stats,
		"health": last.Health,
	})
}

func (h *Handler) APIListSources(c *gin.Context) {
	records, err := h.sourceRepo.List(c.Request.Context())
	if err != nil {
		slog.Error("Database error", "operation", "list_sources", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	var health map[string]tasks.FeedHealth
	if last := h.runner.Last(); last != nil {
		health = last.Health
	}

	sources := make([]map[string]interface{}, 0, len(records))
	for _, rec := range records {
		info := map[string]interface{}{
			"name":        rec.Name,
			"url":         rec.URL,
			"category":    rec.Category,
			"format":      rec.Format,
			"fallbacks":   rec.Fallbacks,
			"reliability": rec.Reliability,
			"enabled":     rec.Enabled,
			"updated_at":  rec.UpdatedAt,
		}
		if fh, ok := health[rec.Name]; ok {
			info["last_run"] = fh
		}
		sources = append(sources, info)
	}

	c.JSON(http.StatusOK, gin.H{
		"sources": sources,
		"total":   len(sources),
	})
}

// APIGetSource returns one catalog entry with its outcome in the latest run.
func (h *Handler) APIGetSource(c *gin.Context) {
	src, err := h.catalog.Get(c.Param("name"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Source not found"})
		return
	}

	response := gin.H{
		"source":    src,
		"enabled":   src.IsEnabled(),
		"endpoints": src.Endpoints(),
	}
	if last := h.runner.Last(); last != nil {
		if fh, ok := last.Health[src.Name]; ok {
			response["last_run"] = fh
		}
	}

	c.JSON(http.StatusOK, response)
}

func (h *Handler) APISyncSources(c *gin.Context) {
	if err := h.catalog.Run(); err != nil {
		slog.Error("Error reloading source catalog", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to reload source catalog",
			"details": err.Error(),
		})
		return
	}

	syncTask := tasks.NewSyncSourcesTask(h.catalog.Sources(), h.sourceRepo)
	if err := h.scheduler.EnqueueTask(syncTask); err != nil {
		slog.Error("Error enqueueing sync task", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue sync task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"sources": h.catalog.Count(),
		"task": gin.H{
			"id":   syncTask.ID,
			"type": syncTask.Type,
		},
	})
}

func (h *Handler) APIGetHistory(c *gin.Context) {
	history, err := h.historyRepo.List(c.Request.Context())
	if err != nil {
		slog.Error("Database error", "operation", "list_history", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"history": history,
		"total":   len(history),
	})
}

func (h *Handler) APITriggerRun(c *gin.Context) {
	err := h.scheduler.Trigger()
	if errors.Is(err, tasks.ErrRunInProgress) {
		c.JSON(http.StatusConflict, gin.H{"error": "Run already in progress"})
		return
	}
	if err != nil {
		slog.Error("Error enqueueing pipeline run", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue pipeline run",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "Pipeline run enqueued",
	})
}

// APIExport returns the full result of the latest run as a JSON download.
func (h *Handler) APIExport(c *gin.Context) {
	last := h.runner.Last()
	if last == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No completed run yet"})
		return
	}

	filename := "policy-radar-" + last.Stats.FinishedAt.UTC().Format("20060102-150405") + ".json"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.JSON(http.StatusOK, last)
}

func (h *Handler) currentArticles(c *gin.Context) ([]*article.Article, string, error) {
	if last := h.runner.Last(); last != nil {
		return last.Articles, last.Stats.RunID, nil
	}

	articles, err := h.articleRepo.ListRecent(c.Request.Context(), maxLimit)
	if err != nil {
		return nil, "", err
	}
	return articles, "", nil
}

func filterArticles(articles []*article.Article, sourceName, category, tag string) []*article.Article {
	if sourceName == "" && category == "" && tag == "" {
		return articles
	}

	filtered := make([]*article.Article, 0, len(articles))
	for _, a := range articles {
		if sourceName != "" && !strings.EqualFold(a.Source, sourceName) {
			continue
		}
		if category != "" && !strings.EqualFold(a.Category, category) {
			continue
		}
		if tag != "" && !a.HasTag(tag) {
			continue
		}
		filtered = append(filtered, a)
	}
	return filtered
}

func limitArticles(articles []*article.Article, limit int) []*article.Article {
	if len(articles) > limit {
		return articles[:limit]
	}
	return articles
}

func parseLimit(value string) int {
	limit, err := strconv.Atoi(value)
	if err != nil || limit <= 0 {
		return defaultLimit
	}
	return min(limit, maxLimit)
}
