// Package stats writes per-run import/sync counters to influx so silent
// per-row drops stay visible somewhere.
package stats

import (
	"fmt"
	"time"

	influx "github.com/influxdata/influxdb/client/v2"

	"github.com/hearthledger/hearth/internal/config"
)

const measurement = "ingest_runs"

type RunStats struct {
	Source          string
	BatchID         string
	ParsedRows      int
	DroppedRows     int
	ImportedRows    int
	SkippedRows     int
	DuplicateCount  int
	TransferCount   int
	SuggestionCount int
}

func createInfluxClient() (influx.Client, error) {
	secrets := config.CurrentInfluxSecrets()

	return influx.NewHTTPClient(influx.HTTPConfig{
		Addr:     secrets.InfluxEndpoint,
		Username: secrets.InfluxUsername,
		Password: secrets.InfluxPassword,
	})
}

// Write records one run's counters. Influx being down is not worth failing
// an import over, so callers treat the returned error as log-only.
func Write(run RunStats) error {
	if config.CurrentInfluxSecrets().InfluxEndpoint == "" {
		return nil
	}

	influxClient, err := createInfluxClient()
	if err != nil {
		return fmt.Errorf("Error creating InfluxDB Client: %s", err.Error())
	}
	defer influxClient.Close()

	bp, err := influx.NewBatchPoints(influx.BatchPointsConfig{
		Database:  config.CurrentImportConfig().StatsDatabase,
		Precision: "s",
	})
	if err != nil {
		return fmt.Errorf("Error creating InfluxDB point batch: %s", err.Error())
	}

	tags := map[string]string{
		"source":   run.Source,
		"batch_id": run.BatchID,
	}

	fields := map[string]interface{}{
		"parsed":      run.ParsedRows,
		"dropped":     run.DroppedRows,
		"imported":    run.ImportedRows,
		"skipped":     run.SkippedRows,
		"duplicates":  run.DuplicateCount,
		"transfers":   run.TransferCount,
		"suggestions": run.SuggestionCount,
	}

	pt, err := influx.NewPoint(measurement, tags, fields, time.Now())
	if err != nil {
		return err
	}

	bp.AddPoint(pt)

	return influxClient.Write(bp)
}
