package telemetry

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"
	"github.com/rs/zerolog"
)

// Measurement is the InfluxDB measurement dashboard values are written to.
const Measurement = "drivetrain"

var ErrNoWriter = errors.New("telemetry: influx client not connected and no backup writer")

type InfluxConfig struct {
	URL           string
	Token         string
	Org           string
	Bucket        string
	BackupPath    string
	BatchSize     uint
	FlushInterval uint // ms
}

// Influx publishes dashboard values as InfluxDB points. When the server
// cannot be reached at Connect it appends gzip'd line protocol to
// BackupPath instead, so a session can be imported later.
type Influx struct {
	Client   influxdb2.Client
	Writer   influxdb2_api.WriteAPI
	IsValid  bool
	Config   InfluxConfig
	Logger   zerolog.Logger
	Tags     map[string]string
	Now      func() time.Time
	mu       sync.Mutex
	backup   *gzip.Writer
	backupFd *os.File
}

func NewInflux(cfg InfluxConfig, log zerolog.Logger) *Influx {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 500
	}
	if cfg.FlushInterval == 0 {
		cfg.FlushInterval = 1000
	}
	return &Influx{
		Config: cfg,
		Logger: log.With().Str("component", "influx").Logger(),
		Tags:   map[string]string{},
		Now:    time.Now,
	}
}

// Connect pings the server and falls back to the backup file if it is down.
func (i *Influx) Connect(ctx context.Context) error {
	i.Client = influxdb2.NewClientWithOptions(
		i.Config.URL,
		i.Config.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(i.Config.BatchSize).
			SetFlushInterval(i.Config.FlushInterval),
	)

	running, err := i.Client.Ping(ctx)
	if err != nil || !running {
		i.IsValid = false
		if i.backup == nil {
			i.Logger.Info().Str("backupPath", i.Config.BackupPath).
				Msg("InfluxDB unreachable, writing to backup file")

			file, err := os.OpenFile(i.Config.BackupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
			if err != nil {
				return fmt.Errorf("create backup file: %w", err)
			}
			i.backupFd = file
			i.backup = gzip.NewWriter(file)
		}
		return nil
	}

	i.IsValid = true
	if err := i.ensureBucket(ctx); err != nil {
		return err
	}

	i.Writer = i.Client.WriteAPI(i.Config.Org, i.Config.Bucket)
	go func(errorsCh <-chan error) {
		for writeErr := range errorsCh {
			i.Logger.Error().Err(writeErr).Str("bucket", i.Config.Bucket).
				Msg("Error sending data to InfluxDB")
		}
	}(i.Writer.Errors())

	i.Logger.Info().Str("url", i.Config.URL).Str("bucket", i.Config.Bucket).Msg("InfluxDB client initialized")
	return nil
}

func (i *Influx) ensureBucket(ctx context.Context) error {
	orgs := i.Client.OrganizationsAPI()
	org, err := orgs.FindOrganizationByName(ctx, i.Config.Org)
	if err != nil {
		i.Logger.Info().Str("org", i.Config.Org).Msg("Organization not found, creating")
		org, err = orgs.CreateOrganizationWithName(ctx, i.Config.Org)
		if err != nil {
			return fmt.Errorf("create organization %s: %w", i.Config.Org, err)
		}
	}

	if _, err := i.Client.BucketsAPI().FindBucketByName(ctx, i.Config.Bucket); err == nil {
		return nil
	}

	i.Logger.Info().Str("bucket", i.Config.Bucket).Msg("Bucket not found, creating")
	rule := domain.RetentionRuleTypeExpire
	_, err = i.Client.BucketsAPI().CreateBucketWithName(ctx, org, i.Config.Bucket, domain.RetentionRule{
		Type:         &rule,
		EverySeconds: 60 * 60 * 24 * 30,
	})
	if err != nil {
		return fmt.Errorf("create bucket %s: %w", i.Config.Bucket, err)
	}
	return nil
}

// WritePoint sends point to the server or the backup file.
func (i *Influx) WritePoint(point *influxdb2_write.Point) error {
	if i.IsValid {
		i.Writer.WritePoint(point)
		return nil
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	if i.backup == nil {
		return ErrNoWriter
	}
	line := influxdb2_write.PointToLineProtocol(point, time.Nanosecond)
	if _, err := i.backup.Write([]byte(line + "\n")); err != nil {
		return fmt.Errorf("write influx backup: %w", err)
	}
	return nil
}

func (i *Influx) put(key string, value any) {
	tags := make(map[string]string, len(i.Tags)+1)
	for k, v := range i.Tags {
		tags[k] = v
	}
	tags["key"] = key

	p := influxdb2_write.NewPoint(Measurement, tags, map[string]any{"value": value}, i.Now())
	if err := i.WritePoint(p); err != nil {
		i.Logger.Warn().Err(err).Str("key", key).Msg("Dropped telemetry point")
	}
}

func (i *Influx) PutNumber(key string, value float64) { i.put(key, value) }
func (i *Influx) PutString(key string, value string)  { i.put(key, value) }
func (i *Influx) PutBoolean(key string, value bool)   { i.put(key, value) }

// Close flushes pending writes and releases the backup file.
func (i *Influx) Close() error {
	if i.Writer != nil {
		i.Writer.Flush()
	}
	if i.Client != nil {
		i.Client.Close()
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	if i.backup == nil {
		return nil
	}
	err := errors.Join(i.backup.Close(), i.backupFd.Close())
	i.backup = nil
	i.backupFd = nil
	return err
}
