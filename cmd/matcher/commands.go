package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/knachinen/darkmaptour-webscraping/app/config"
	"github.com/knachinen/darkmaptour-webscraping/app/models"
	"github.com/knachinen/darkmaptour-webscraping/app/requests"
	"github.com/knachinen/darkmaptour-webscraping/app/services"
	"github.com/knachinen/darkmaptour-webscraping/helpers/utils"
	"github.com/knachinen/darkmaptour-webscraping/internal/extractor"
	"github.com/knachinen/darkmaptour-webscraping/internal/gazetteer"
	"github.com/knachinen/darkmaptour-webscraping/internal/geocoder"
	"github.com/knachinen/darkmaptour-webscraping/internal/matcher"
	"github.com/spf13/cobra"
)

type serviceOptions struct {
	llm      bool
	geocode  bool
	batchCfg services.BatchConfig
}

// newAddressService nạp config, gazetteer và dựng AddressService với cache in-memory
func newAddressService(ctx context.Context, so serviceOptions) (*services.AddressService, error) {
	appCfg, err := config.Load(configPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		appCfg = config.Default()
	}

	gaz, err := gazetteer.LoadFile(ctx, gazetteerPath)
	if err != nil {
		return nil, fmt.Errorf("load gazetteer %s: %w", gazetteerPath, err)
	}
	m, err := matcher.New(gaz, appCfg.Matcher.ToMatcherConfig(), logger)
	if err != nil {
		return nil, err
	}

	var ext extractor.Extractor
	if so.llm {
		cfg := extractor.DefaultConfig()
		cfg.BaseURL = envOr("LLM_BASE_URL", cfg.BaseURL)
		cfg.APIKey = envOr("LLM_API_KEY", cfg.APIKey)
		cfg.Model = envOr("LLM_MODEL", cfg.Model)
		ext = extractor.NewLLMExtractor(cfg, logger)
	}

	var geo geocoder.Geocoder
	if so.geocode {
		cfg := geocoder.DefaultNominatimConfig()
		cfg.BaseURL = envOr("NOMINATIM_URL", cfg.BaseURL)
		cfg.UserAgent = envOr("NOMINATIM_USER_AGENT", cfg.UserAgent)
		nominatim, err := geocoder.NewNominatim(cfg, logger)
		if err != nil {
			return nil, err
		}
		geo = nominatim
	}

	batchCfg := so.batchCfg
	if batchCfg.Workers == 0 {
		batchCfg.Workers = appCfg.Batch.Workers
	}
	if batchCfg.CheckpointEvery == 0 {
		batchCfg.CheckpointEvery = appCfg.Batch.CheckpointEvery
	}
	if batchCfg.CheckpointDir == "" {
		batchCfg.CheckpointDir = appCfg.Batch.CheckpointDir
	}

	cache := services.NewCacheService(0)
	return services.NewAddressService(m, cache, ext, geo, batchCfg, logger), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	return enc.Encode(v)
}

func createMatchCmd() *cobra.Command {
	var geocode bool
	cmd := &cobra.Command{
		Use:   "match [query...]",
		Short: "Match one address query against the gazetteer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := newAddressService(ctx, serviceOptions{geocode: geocode})
			if err != nil {
				return err
			}
			result, _, err := svc.MatchAddress(ctx, strings.Join(args, " "), requests.MatchOptions{Geocode: geocode})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().BoolVar(&geocode, "geocode", false, "geocode the matched address with Nominatim")
	return cmd
}

func createProcessCmd() *cobra.Command {
	var geocode bool
	cmd := &cobra.Command{
		Use:   "process [file]",
		Short: "Extract and match the address of one article (file or - for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var (
				raw []byte
				err error
			)
			if args[0] == "-" {
				raw, err = io.ReadAll(cmd.InOrStdin())
			} else {
				raw, err = os.ReadFile(args[0])
			}
			if err != nil {
				return err
			}

			svc, err := newAddressService(ctx, serviceOptions{llm: true, geocode: geocode})
			if err != nil {
				return err
			}
			result, err := svc.ProcessText(ctx, string(raw), requests.MatchOptions{Geocode: geocode})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().BoolVar(&geocode, "geocode", false, "geocode the matched address with Nominatim")
	return cmd
}

func createBatchCmd() *cobra.Command {
	var (
		in, out, resume string
		queries         bool
		geocode         bool
		start, end      int
		batchCfg        services.BatchConfig
	)
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Process a JSON file of articles (or queries) with checkpointing",
		Long: `Input is a JSON array of strings or of objects with a "content" field.
Results are written to --out in input order; accumulated results are checkpointed
to --checkpoint-dir every --checkpoint-every items and whenever an item fails.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			items, err := readItems(in)
			if err != nil {
				return err
			}

			kind := services.JobKindTexts
			if queries {
				kind = services.JobKindQueries
			}

			var done []*models.ProcessResult
			if resume != "" {
				if done, err = services.LoadCheckpoint(resume); err != nil {
					return err
				}
			}
			pending, err := pendingItems(items, start, end, done)
			if err != nil {
				return err
			}

			svc, err := newAddressService(ctx, serviceOptions{llm: kind == services.JobKindTexts, geocode: geocode, batchCfg: batchCfg})
			if err != nil {
				return err
			}

			var cp *services.Checkpointer
			if batchCfg.CheckpointDir != "" {
				name := fmt.Sprintf("temp_results_checkpoint__%s_%s.json", time.Now().Format("20060102_150405"), utils.GenerateShortID())
				cp = services.NewCheckpointer(filepath.Join(batchCfg.CheckpointDir, name))
			}

			began := time.Now()
			var results []*models.ProcessResult
			if len(pending) > 0 {
				results, err = svc.RunBatchItems(ctx, kind, pending, requests.MatchOptions{Geocode: geocode}, cp,
					func(processed, failed, total int) {
						fmt.Fprintf(cmd.ErrOrStderr(), "\rProcessing: %d/%d (failed %d)", processed, total, failed)
					})
				fmt.Fprintln(cmd.ErrOrStderr())
			}
			merged := mergeResults(done, results)
			if werr := writeResults(out, merged); werr != nil {
				return werr
			}
			if err != nil {
				return err
			}

			matched := 0
			for _, r := range merged {
				if r.Status == models.StatusMatched {
					matched++
				}
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Done: %d results (%d matched) in %s -> %s\n",
				len(merged), matched, time.Since(began).Round(time.Millisecond), out)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&in, "in", "", "input JSON file")
	f.StringVar(&out, "out", "results.json", "output JSON file")
	f.StringVar(&resume, "resume", "", "checkpoint file whose results are kept and skipped")
	f.BoolVar(&queries, "queries", false, "input items are address queries, not articles")
	f.BoolVar(&geocode, "geocode", false, "geocode matched addresses with Nominatim")
	f.IntVar(&start, "start", 0, "first item index (inclusive)")
	f.IntVar(&end, "end", -1, "last item index (exclusive), -1 for all")
	f.IntVar(&batchCfg.Workers, "workers", 4, "number of concurrent workers")
	f.IntVar(&batchCfg.CheckpointEvery, "checkpoint-every", 10, "checkpoint after this many processed items")
	f.StringVar(&batchCfg.CheckpointDir, "checkpoint-dir", "tmp", "checkpoint directory, empty to disable")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}

// readItems đọc mảng JSON gồm string hoặc object có trường "content"
func readItems(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, fmt.Errorf("%s: expected a JSON array: %w", path, err)
	}

	items := make([]string, len(elems))
	for i, e := range elems {
		var s string
		if err := json.Unmarshal(e, &s); err == nil {
			items[i] = s
			continue
		}
		var obj struct {
			Content *string `json:"content"`
		}
		if err := json.Unmarshal(e, &obj); err != nil || obj.Content == nil {
			return nil, fmt.Errorf("%s: item %d is neither a string nor an object with content", path, i)
		}
		items[i] = *obj.Content
	}
	return items, nil
}

// pendingItems trả về các item trong [start, end) chưa có kết quả trong checkpoint
func pendingItems(items []string, start, end int, done []*models.ProcessResult) ([]services.BatchItem, error) {
	if end < 0 || end > len(items) {
		end = len(items)
	}
	if start < 0 || start > end {
		return nil, fmt.Errorf("invalid range [%d, %d) for %d items", start, end, len(items))
	}

	seen := make(map[int]bool, len(done))
	for _, r := range done {
		seen[r.Index] = true
	}
	pending := make([]services.BatchItem, 0, end-start)
	for i := start; i < end; i++ {
		if !seen[i] {
			pending = append(pending, services.BatchItem{Index: i, Text: items[i]})
		}
	}
	return pending, nil
}

// mergeResults gộp kết quả checkpoint với kết quả mới, sắp theo Index
func mergeResults(done, fresh []*models.ProcessResult) []*models.ProcessResult {
	merged := make([]*models.ProcessResult, 0, len(done)+len(fresh))
	merged = append(merged, done...)
	for _, r := range fresh {
		if r != nil {
			merged = append(merged, r)
		}
	}
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Index < merged[j].Index })
	return merged
}

func writeResults(path string, results []*models.ProcessResult) error {
	return services.NewCheckpointer(path).Save(results)
}

func createSeedCmd() *cobra.Command {
	var (
		mongoURL, mongoDB string
		meiliURL, meiliKey string
		meiliIndex         string
		sqlitePath         string
		postgresDSN        string
		table              string
		dryRun             bool
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Validate the gazetteer and write it to MongoDB, Meilisearch, SQLite or PostgreSQL",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			gaz, err := gazetteer.LoadFile(ctx, gazetteerPath)
			if err != nil {
				return err
			}
			return runSeed(ctx, cmd.OutOrStdout(), gaz, seedTargets{
				mongoURL: mongoURL, mongoDB: mongoDB,
				meiliURL: meiliURL, meiliKey: meiliKey, meiliIndex: meiliIndex,
				sqlitePath: sqlitePath, postgresDSN: postgresDSN, table: table,
				dryRun: dryRun,
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&mongoURL, "mongo-url", os.Getenv("MONGO_URL"), "MongoDB URI")
	f.StringVar(&mongoDB, "mongo-db", "address_matcher", "MongoDB database")
	f.StringVar(&meiliURL, "meili-url", os.Getenv("MEILISEARCH_URL"), "Meilisearch URL")
	f.StringVar(&meiliKey, "meili-key", os.Getenv("MEILISEARCH_MASTER_KEY"), "Meilisearch API key")
	f.StringVar(&meiliIndex, "meili-index", "gazetteer", "Meilisearch index")
	f.StringVar(&sqlitePath, "sqlite", "", "SQLite file to write")
	f.StringVar(&postgresDSN, "postgres", os.Getenv("DATABASE_URL"), "PostgreSQL DSN to write")
	f.StringVar(&table, "table", gazetteer.DefaultTable, "SQL table name")
	f.BoolVar(&dryRun, "dry-run", false, "only validate")
	return cmd
}
