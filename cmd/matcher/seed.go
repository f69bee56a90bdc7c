package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/knachinen/darkmaptour-webscraping/app/services"
	"github.com/knachinen/darkmaptour-webscraping/internal/gazetteer"
	"github.com/knachinen/darkmaptour-webscraping/internal/search"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type seedTargets struct {
	mongoURL, mongoDB  string
	meiliURL, meiliKey string
	meiliIndex         string
	sqlitePath         string
	postgresDSN        string
	table              string
	dryRun             bool
}

func runSeed(ctx context.Context, w io.Writer, gaz *gazetteer.Gazetteer, t seedTargets) error {
	fmt.Fprintf(w, "Gazetteer %s: %d records (%s)\n", gazetteerPath, gaz.Len(), gaz.Version())

	var (
		store services.GazetteerStore
		index services.GazetteerIndex
	)

	if t.mongoURL != "" && !t.dryRun {
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(t.mongoURL))
		if err != nil {
			return fmt.Errorf("không thể kết nối MongoDB: %w", err)
		}
		defer client.Disconnect(context.Background())
		store = services.NewGazetteerRepository(client.Database(t.mongoDB), logger)
	}

	if t.meiliURL != "" && !t.dryRun {
		searcher, err := search.NewGazetteerSearcher(search.SearchConfig{
			Host:          t.meiliURL,
			APIKey:        t.meiliKey,
			IndexName:     t.meiliIndex,
			Timeout:       30 * time.Second,
			MaxCandidates: 20,
		}, logger)
		if err != nil {
			return fmt.Errorf("không thể kết nối Meilisearch: %w", err)
		}
		index = searcher
	}

	admin := services.NewAdminService(nil, store, index, nil, "", logger)
	validation := admin.ValidateGazetteer(gaz.Records())
	for _, warn := range validation.Warnings {
		fmt.Fprintln(w, "warning:", warn)
	}
	if !validation.Passed {
		for _, e := range validation.Errors {
			fmt.Fprintln(w, "error:", e)
		}
		return services.ErrInvalidGazetteer
	}
	if t.dryRun {
		fmt.Fprintln(w, "Validation passed")
		return nil
	}

	if store != nil || index != nil {
		result, err := admin.SeedGazetteer(ctx, gaz, index != nil, false)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Seeded %d records (indexes built: %d) in %dms\n",
			result.RecordsProcessed, result.IndexesBuilt, result.ProcessingTimeMs)
	}

	for driver, dsn := range map[string]string{
		gazetteer.DriverSQLite:   t.sqlitePath,
		gazetteer.DriverPostgres: t.postgresDSN,
	} {
		if dsn == "" {
			continue
		}
		if err := writeSQL(ctx, driver, dsn, t.table, gaz); err != nil {
			return err
		}
		fmt.Fprintf(w, "Wrote %d records to %s table %q\n", gaz.Len(), driver, t.table)
	}
	return nil
}

func writeSQL(ctx context.Context, driver, dsn, table string, gaz *gazetteer.Gazetteer) error {
	db, err := gazetteer.OpenSQL(ctx, driver, dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	logger.Info("Writing gazetteer", zap.String("driver", driver), zap.String("table", table), zap.Int("records", gaz.Len()))
	return gazetteer.WriteSQL(ctx, db, driver, table, gaz.Records())
}
