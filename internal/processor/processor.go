package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/tonehaven/studiogen/internal/common"
	"github.com/tonehaven/studiogen/internal/interfaces"
	"github.com/tonehaven/studiogen/internal/models"
)

// Processor drains the persisted queue. Each cycle recovers stuck items, then
// drains pending batches oldest-first, one batch at a time; the local studio
// is effectively single-tenant per session, so batches are never interleaved.
// The queue store is shared with the web process; status transitions are the
// only coordination between them.
type Processor struct {
	config       *common.ProcessorConfig
	logger       arbor.ILogger
	queue        interfaces.QueueStorage
	orchestrator interfaces.Orchestrator
	notebook     interfaces.NotebookService

	staleAfter   time.Duration
	pollInterval time.Duration

	// sleep is swappable for tests
	sleep func(ctx context.Context, d time.Duration) error
}

// NewProcessor creates a queue processor
func NewProcessor(config *common.ProcessorConfig, queue interfaces.QueueStorage, orchestrator interfaces.Orchestrator, notebook interfaces.NotebookService, logger arbor.ILogger) *Processor {
	return &Processor{
		config:       config,
		logger:       logger,
		queue:        queue,
		orchestrator: orchestrator,
		notebook:     notebook,
		staleAfter:   common.Duration(config.StaleAfter, 10*time.Minute),
		pollInterval: common.Duration(config.PollInterval, 10*time.Second),
		sleep:        sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RunOnce executes one full processing cycle: stuck-item recovery followed by
// a bounded pending drain. Watch mode calls this on a timer.
func (p *Processor) RunOnce(ctx context.Context) error {
	if err := p.recoverStuck(ctx); err != nil {
		return fmt.Errorf("stuck-item recovery failed: %w", err)
	}
	if err := p.drainPending(ctx); err != nil {
		return fmt.Errorf("pending drain failed: %w", err)
	}
	return nil
}

// recoverStuck handles processing items untouched beyond the staleness
// window. An item that never obtained a backend task id never actually
// started and goes back to pending; an item with a task id is reconciled
// against the studio report, which catches completions missed by a crashed or
// timed-out poll loop. Poll errors leave the item for the next cycle.
func (p *Processor) recoverStuck(ctx context.Context) error {
	items, err := p.queue.StaleProcessing(ctx, p.staleAfter)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	p.logger.Info().Int("count", len(items)).Msg("Recovering stuck queue items")

	for _, item := range items {
		if item.TaskID == "" {
			if err := p.queue.UpdateStatus(ctx, item.ID, models.ItemStatusPending, ""); err != nil {
				p.logger.Error().Err(err).Str("item_id", item.ID).Msg("Failed to reset stuck item")
			}
			continue
		}

		status, pollErr := p.notebook.StudioStatus(ctx, item.TaskID)
		if pollErr != nil {
			p.logger.Warn().Err(pollErr).Str("item_id", item.ID).Msg("Studio status poll failed during recovery; leaving item for next cycle")
			continue
		}

		artifact := status.Artifact(item.ContentType)
		if artifact == nil {
			continue
		}

		switch artifact.Status {
		case models.ArtifactCompleted:
			p.logger.Info().Str("item_id", item.ID).Str("url", artifact.URL).Msg("Recovered a missed completion")
			if err := p.queue.FinalizeCompleted(ctx, item.ID, artifact.URL, ""); err != nil {
				p.logger.Error().Err(err).Str("item_id", item.ID).Msg("Failed to finalize recovered item")
			}
		case models.ArtifactFailed:
			if err := p.queue.UpdateStatus(ctx, item.ID, models.ItemStatusFailed, "studio reported the artifact as failed"); err != nil {
				p.logger.Error().Err(err).Str("item_id", item.ID).Msg("Failed to mark recovered item failed")
			}
		}
	}

	return nil
}

// drainPending fetches pending items oldest-first up to the per-cycle bound,
// groups them by batch, and processes each batch sequentially.
func (p *Processor) drainPending(ctx context.Context) error {
	items, err := p.queue.PendingItems(ctx, p.config.MaxBatchSize)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	for _, batch := range groupBatches(items) {
		if err := ctx.Err(); err != nil {
			return err
		}
		p.processBatch(ctx, batch)
	}

	return nil
}

// groupBatches groups items by batch id, preserving oldest-first order both
// across batches and within each batch.
func groupBatches(items []*models.QueueItem) []*models.Batch {
	var batches []*models.Batch
	index := make(map[string]*models.Batch)

	for _, item := range items {
		batch, ok := index[item.BatchID]
		if !ok {
			batch = &models.Batch{BatchID: item.BatchID}
			index[item.BatchID] = batch
			batches = append(batches, batch)
		}
		batch.Items = append(batch.Items, item)
	}

	return batches
}

// processBatch runs one orchestration call for the union of a batch's output
// types. The batch is the unit of failure isolation: an error from the
// orchestration call itself marks every item failed, while per-type failures
// inside a successful call only fail their own items.
func (p *Processor) processBatch(ctx context.Context, batch *models.Batch) {
	p.logger.Info().
		Str("batch_id", batch.BatchID).
		Int("items", len(batch.Items)).
		Msg("Processing queue batch")

	for _, item := range batch.Items {
		if err := p.queue.UpdateStatus(ctx, item.ID, models.ItemStatusProcessing, ""); err != nil {
			p.logger.Error().Err(err).Str("item_id", item.ID).Msg("Failed to mark item processing")
		}
	}

	request := batchRequest(batch)
	results, err := p.orchestrator.GenerateContent(ctx, request, nil)
	if err != nil {
		p.logger.Error().Err(err).Str("batch_id", batch.BatchID).Msg("Batch orchestration failed")
		for _, item := range batch.Items {
			if updateErr := p.queue.UpdateStatus(ctx, item.ID, models.ItemStatusFailed, err.Error()); updateErr != nil {
				p.logger.Error().Err(updateErr).Str("item_id", item.ID).Msg("Failed to mark item failed")
			}
		}
		return
	}

	byType := make(map[models.ContentType]*models.GenerationResult, len(results))
	for i := range results {
		byType[results[i].Type] = &results[i]
	}

	for _, item := range batch.Items {
		result, ok := byType[item.ContentType]
		if !ok {
			p.failItem(ctx, item.ID, fmt.Sprintf("no result produced for output type %q", item.ContentType))
			continue
		}

		switch result.Status {
		case models.GenerationFailed:
			p.failItem(ctx, item.ID, result.Error)
		case models.GenerationCompleted:
			if err := p.queue.FinalizeCompleted(ctx, item.ID, result.URL, inlinePayload(result)); err != nil {
				p.logger.Error().Err(err).Str("item_id", item.ID).Msg("Failed to finalize item")
			}
		case models.GenerationProcessing:
			// Local studio accepted the job; track it to completion
			if err := p.queue.SetTaskID(ctx, item.ID, result.NotebookID); err != nil {
				p.logger.Error().Err(err).Str("item_id", item.ID).Msg("Failed to record task id")
			}
			p.pollArtifact(ctx, item, result.NotebookID)
		default:
			p.failItem(ctx, item.ID, fmt.Sprintf("unexpected result status %q", result.Status))
		}
	}
}

// batchRequest rebuilds one generation request from a batch's items. All
// items in a batch share source content by construction; the question item
// carries its text in Prompt.
func batchRequest(batch *models.Batch) *models.GenerationRequest {
	first := batch.Items[0]
	request := &models.GenerationRequest{
		Title:         first.Title,
		SourceContent: first.SourceContent,
		Language:      first.Language,
	}

	for _, item := range batch.Items {
		if item.ContentType == models.ContentTypeQuestion {
			request.Question = item.Prompt
			continue
		}
		request.Outputs = append(request.Outputs, item.ContentType)
	}

	return request
}

// pollArtifact drives the poll state machine for one accepted studio job.
// Exhausting the attempt ceiling leaves the item processing rather than
// failed: a slow artifact may still complete and will be reconciled by
// stuck-item recovery on a later cycle.
func (p *Processor) pollArtifact(ctx context.Context, item *models.QueueItem, notebookID string) {
	poller := newArtifactPoller(item.ContentType, p.config)

	for {
		if err := p.sleep(ctx, p.pollInterval); err != nil {
			p.logger.Warn().Err(err).Str("item_id", item.ID).Msg("Poll loop cancelled; leaving item processing")
			return
		}

		status, pollErr := p.notebook.StudioStatus(ctx, notebookID)
		var artifact *models.StudioArtifact
		if pollErr != nil {
			p.logger.Warn().Err(pollErr).Str("item_id", item.ID).Msg("Studio status poll failed")
		} else {
			artifact = status.Artifact(item.ContentType)
		}

		step := poller.Observe(artifact, pollErr)
		if err := p.queue.UpdateProgress(ctx, item.ID, step.progress); err != nil {
			p.logger.Error().Err(err).Str("item_id", item.ID).Msg("Failed to update progress")
		}

		switch step.outcome {
		case pollCompleted:
			p.logger.Info().Str("item_id", item.ID).Str("url", step.url).Msg("Studio artifact completed")
			if err := p.queue.FinalizeCompleted(ctx, item.ID, step.url, ""); err != nil {
				p.logger.Error().Err(err).Str("item_id", item.ID).Msg("Failed to finalize item")
			}
			return
		case pollFailed:
			p.failItem(ctx, item.ID, step.message)
			return
		case pollExhausted:
			p.logger.Warn().
				Str("item_id", item.ID).
				Str("type", string(item.ContentType)).
				Msg("Poll ceiling reached without completion; leaving item processing for recovery")
			return
		}
	}
}

func (p *Processor) failItem(ctx context.Context, id, message string) {
	if err := p.queue.UpdateStatus(ctx, id, models.ItemStatusFailed, message); err != nil {
		p.logger.Error().Err(err).Str("item_id", id).Msg("Failed to mark item failed")
	}
}

// inlinePayload extracts the inline content of a completed result for
// persistence. Question answers and cloud podcast scripts are plain text;
// structured cloud payloads are stored as JSON.
func inlinePayload(result *models.GenerationResult) string {
	switch {
	case result.Answer != "":
		return result.Answer
	case result.Script != "":
		return result.Script
	case len(result.Slides) > 0:
		data, err := json.Marshal(result.Slides)
		if err != nil {
			return ""
		}
		return string(data)
	case result.Infographic != nil:
		data, err := json.Marshal(result.Infographic)
		if err != nil {
			return ""
		}
		return string(data)
	}
	return ""
}
