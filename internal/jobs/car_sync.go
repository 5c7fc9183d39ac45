// File: internal/jobs/car_sync.go
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"startdrive_backend/internal/car"
	"startdrive_backend/internal/config"
	platformElasticsearch "startdrive_backend/internal/platform/elasticsearch"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultSyncBatchSize is the number of listings fetched per bulk request.
const DefaultSyncBatchSize = 100

// CarSyncJob periodically reindexes all car listings into Elasticsearch.
// Per-write indexing in the car service is best-effort; this job repairs any
// documents those writes missed.
type CarSyncJob struct {
	carRepo       car.Repository
	esClient      *platformElasticsearch.ESClientWrapper
	logger        *zap.Logger
	cfg           *config.Config
	cronScheduler *cron.Cron
}

// NewCarSyncJob creates a new CarSyncJob.
func NewCarSyncJob(
	carRepo car.Repository,
	esClient *platformElasticsearch.ESClientWrapper,
	logger *zap.Logger,
	cfg *config.Config,
) *CarSyncJob {
	scheduler := cron.New(cron.WithLogger(NewCronLogger(logger.Named("cron"))))

	return &CarSyncJob{
		carRepo:       carRepo,
		esClient:      esClient,
		logger:        logger.Named("CarSyncJob"),
		cfg:           cfg,
		cronScheduler: scheduler,
	}
}

// SetupAndStart schedules and starts the cron job.
func (j *CarSyncJob) SetupAndStart() error {
	jobSpec := j.cfg.CarSyncJobSchedule // e.g., "@hourly", "0 3 * * *"
	if jobSpec == "" {
		j.logger.Warn("Car sync job schedule not defined (CAR_SYNC_JOB_SCHEDULE). Job will not run.")
		return nil
	}
	if j.esClient == nil {
		j.logger.Warn("Elasticsearch is not configured. Car sync job will not run.")
		return nil
	}

	jobID, err := j.cronScheduler.AddFunc(jobSpec, j.runJob)
	if err != nil {
		j.logger.Error("Failed to schedule car sync job", zap.String("spec", jobSpec), zap.Error(err))
		return err
	}

	j.logger.Info("Car sync job scheduled", zap.String("spec", jobSpec), zap.Any("jobID", jobID))
	j.cronScheduler.Start()
	return nil
}

// runJob is the actual work performed by the cron job.
func (j *CarSyncJob) runJob() {
	j.logger.Info("Starting car sync job run...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	synced, failed, err := j.RunOnce(ctx, DefaultSyncBatchSize, "false")
	if err != nil {
		j.logger.Error("Car sync job run failed", zap.Error(err))
	} else {
		j.logger.Info("Car sync job run completed",
			zap.Int("cars_synced", synced),
			zap.Int("cars_failed", failed))
	}
}

// Stop gracefully stops the cron scheduler.
func (j *CarSyncJob) Stop() {
	if j.cronScheduler != nil {
		j.logger.Info("Stopping car sync job scheduler...")
		stopCtx := j.cronScheduler.Stop()
		select {
		case <-stopCtx.Done():
			j.logger.Info("Car sync job scheduler stopped gracefully.")
		case <-time.After(10 * time.Second):
			j.logger.Warn("Car sync job scheduler stop timed out.")
		}
	}
}

// RunOnce walks all listings in batches and bulk-indexes them, returning how
// many documents synced and how many failed. It is also invoked directly by
// the sync-cars CLI command.
func (j *CarSyncJob) RunOnce(ctx context.Context, batchSize int, esRefresh string) (int, int, error) {
	if j.esClient == nil {
		return 0, 0, fmt.Errorf("elasticsearch client is not configured")
	}
	if batchSize <= 0 {
		batchSize = DefaultSyncBatchSize
	}

	offset := 0
	totalSynced := 0
	totalFailed := 0

	for {
		cars, err := j.carRepo.FindBatch(ctx, offset, batchSize)
		if err != nil {
			return totalSynced, totalFailed, fmt.Errorf("failed to fetch batch at offset %d: %w", offset, err)
		}
		if len(cars) == 0 {
			break
		}

		synced, failed, err := j.indexBatch(ctx, cars, esRefresh)
		totalSynced += synced
		totalFailed += failed
		if err != nil {
			j.logger.Error("Bulk request failed for batch",
				zap.Int("offset", offset),
				zap.Error(err))
		}

		offset += len(cars)
	}

	j.logger.Info("Car synchronization finished.",
		zap.Int("total_synced", totalSynced),
		zap.Int("total_failed", totalFailed))

	if totalFailed > 0 {
		return totalSynced, totalFailed, fmt.Errorf("%d cars failed to sync", totalFailed)
	}
	return totalSynced, totalFailed, nil
}

// indexBatch sends one bulk request for the given cars and counts item-level
// outcomes. Bulk can succeed overall while individual documents fail, so the
// response items are always inspected.
func (j *CarSyncJob) indexBatch(ctx context.Context, cars []car.Car, esRefresh string) (int, int, error) {
	var body strings.Builder
	docCount := 0

	for i := range cars {
		c := &cars[i]
		docJSON, err := car.ToDocument(c).Marshal()
		if err != nil {
			j.logger.Error("Failed to convert car to Elasticsearch document",
				zap.String("carID", c.ID.String()),
				zap.Error(err))
			continue
		}
		fmt.Fprintf(&body, `{ "index" : { "_index" : "%s", "_id" : "%s" } }%s`,
			platformElasticsearch.CarsIndexName, c.ID.String(), "\n")
		body.Write(docJSON)
		body.WriteString("\n")
		docCount++
	}

	failed := len(cars) - docCount
	if docCount == 0 {
		return 0, failed, nil
	}

	req := esapi.BulkRequest{
		Body:    strings.NewReader(body.String()),
		Refresh: esRefresh,
	}
	res, err := req.Do(ctx, j.esClient.Client)
	if err != nil {
		return 0, len(cars), err
	}
	defer res.Body.Close()

	var bulkResponse struct {
		Errors bool `json:"errors"`
		Items  []struct {
			Index struct {
				ID     string                 `json:"_id"`
				Status int                    `json:"status"`
				Error  map[string]interface{} `json:"error,omitempty"`
			} `json:"index"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&bulkResponse); err != nil {
		return 0, len(cars), fmt.Errorf("failed to parse bulk response: %w", err)
	}

	synced := 0
	for _, item := range bulkResponse.Items {
		if item.Index.Error != nil {
			j.logger.Error("Failed to index car document",
				zap.String("carID", item.Index.ID),
				zap.Int("status", item.Index.Status),
				zap.Any("error", item.Index.Error))
			failed++
		} else {
			synced++
		}
	}
	return synced, failed, nil
}

// --- Cron Logger Adapter ---

// cronLogger adapts zap.Logger to cron.Logger interface.
type cronLogger struct {
	zl *zap.Logger
}

// NewCronLogger creates a new cronLogger.
func NewCronLogger(zl *zap.Logger) cron.Logger {
	return &cronLogger{zl: zl}
}

// Info logs routine messages from cron.
func (cl *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	cl.zl.Info(msg, cl.parseKeysAndValues(keysAndValues...)...)
}

// Error logs error messages from cron.
func (cl *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := cl.parseKeysAndValues(keysAndValues...)
	fields = append(fields, zap.Error(err))
	cl.zl.Error(msg, fields...)
}

func (cl *cronLogger) parseKeysAndValues(keysAndValues ...interface{}) []zap.Field {
	var fields []zap.Field
	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 < len(keysAndValues) {
			fields = append(fields, zap.Any(fmt.Sprintf("%v", keysAndValues[i]), keysAndValues[i+1]))
		} else {
			fields = append(fields, zap.Any(fmt.Sprintf("%v", keysAndValues[i]), "MISSING_VALUE"))
		}
	}
	return fields
}
