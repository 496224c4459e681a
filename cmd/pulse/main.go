// Package main is the Pulse CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/arbelos/pulse/internal/cache"
	"github.com/arbelos/pulse/internal/config"
	"github.com/arbelos/pulse/internal/index"
	"github.com/arbelos/pulse/internal/ingest"
	"github.com/arbelos/pulse/internal/models"
	"github.com/arbelos/pulse/internal/search"
	"github.com/arbelos/pulse/internal/sentiment"
	"github.com/arbelos/pulse/internal/server"
	"github.com/arbelos/pulse/internal/storage"
	"github.com/arbelos/pulse/internal/watcher"
	"github.com/arbelos/pulse/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/pulse/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used, so "pulse server" from the project dir uses the project config.
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "rank":
		runRank()
	case "ingest":
		runIngest()
	case "delete":
		runDelete()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("pulse version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (cache hits, retries, spool files, etc.)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger, debugMode)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	var spool *watcher.Watcher
	if len(cfg.Watch.Directories) > 0 {
		idx := components.Indexer
		watchOpts := []watcher.WatcherOption{}
		if debugMode {
			watchOpts = append(watchOpts, watcher.WithLogger(logger))
		}
		spool = watcher.NewWatcher(cfg.Watch.Directories, func(path string) {
			n, err := idx.IngestFile(context.Background(), path)
			if err != nil {
				logger.Warn("spool ingest failed", zap.String("path", path), zap.Error(err))
				return
			}
			logger.Info("spool file ingested", zap.String("path", path), zap.Int("posts", n))
		}, watchOpts...)
		if err := spool.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start spool watcher", zap.Error(err))
		}
		spool.SyncExistingFiles()
	}

	srv := server.NewServer(
		components.Engine,
		components.Indexer,
		components.Storage,
		&cfg.Server,
		logger,
	)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	if spool != nil {
		spool.Stop()
	}
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// buildTerms joins positional args and splits them on whitespace, so
// "pulse rank go generics" and `pulse rank "go generics"` query the same terms.
func buildTerms(args []string) []string {
	return strings.Fields(strings.Join(args, " "))
}

func runRank() {
	fs := flag.NewFlagSet("rank", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", `server URL (empty = direct storage when server is not running)`)
	pageSize := fs.Int("page-size", models.DefaultPageSize, "results per page")
	offset := fs.Int("offset", 0, "zero-based offset into the ranked list")
	author := fs.String("author", "", "restrict to one author")
	lang := fs.String("lang", "", "restrict to one language")
	phrase := fs.Bool("phrase", false, "match the terms as a phrase")
	since := fs.String("since", "", "lower time bound, RFC 3339")
	until := fs.String("until", "", "upper time bound, RFC 3339 (exclusive)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	req := &models.RankingRequest{
		Terms:    buildTerms(fs.Args()),
		Phrase:   *phrase,
		Author:   *author,
		Lang:     *lang,
		PageSize: *pageSize,
		Offset:   *offset,
	}
	if *since != "" {
		t, err := time.Parse(time.RFC3339, *since)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid -since value: %v\n", err)
			os.Exit(1)
		}
		req.Since = &t
	}
	if *until != "" {
		t, err := time.Parse(time.RFC3339, *until)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid -until value: %v\n", err)
			os.Exit(1)
		}
		req.Until = &t
	}

	var response *models.RankedResponse
	if *serverURL != "" {
		resp, err := rankViaHTTP(*serverURL, req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Rank failed: %v\n", err)
			os.Exit(1)
		}
		response = resp
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		logger, err := utils.NewLogger(cfg.Debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		components, err := initializeComponents(cfg, logger, cfg.Debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
			os.Exit(1)
		}
		defer components.Close()
		response, err = components.Engine.Rank(context.Background(), req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Rank failed: %v\n", err)
			os.Exit(1)
		}
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(response); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		writeRankedText(os.Stdout, response)
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func writeRankedText(w io.Writer, resp *models.RankedResponse) {
	fmt.Fprintf(w, "%d candidate(s), page offset %d, %d ms\n\n", resp.Total, resp.Offset, resp.QueryTime)
	for _, r := range resp.Results {
		fmt.Fprintf(w, "%3d. [%.4f] %s (@%s)\n", r.Rank, r.Score, r.Post.ID, r.Post.Author)
		fmt.Fprintf(w, "     %s\n", utils.Truncate(r.Post.Text, 120))
		parts := make([]string, 0, len(r.Breakdown))
		for _, fc := range r.Breakdown {
			parts = append(parts, fmt.Sprintf("%s %.3f", fc.Feature, fc.Contribution))
		}
		fmt.Fprintf(w, "     %s\n", strings.Join(parts, "  "))
	}
}

func rankViaHTTP(serverURL string, req *models.RankingRequest) (*models.RankedResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/rank", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var response models.RankedResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: pulse ingest [flags] <posts-file>")
		fmt.Println("The file holds a JSON array (.json) or one post per line (.ndjson).")
		os.Exit(1)
	}
	path := fs.Arg(0)

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, cfg.Debug)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	n, err := components.Indexer.IngestFile(context.Background(), path)
	if err != nil {
		fmt.Printf("Ingest failed after %d post(s): %v\n", n, err)
		os.Exit(1)
	}
	fmt.Printf("Ingested %d post(s) from %s\n", n, path)
}

func runDelete() {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: pulse delete [flags] <post-id>")
		os.Exit(1)
	}
	postID := fs.Arg(0)

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, cfg.Debug)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	if err := components.Indexer.DeletePost(context.Background(), postID); err != nil {
		fmt.Printf("Deletion failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Post deleted: %s\n", postID)
}

// statusResponse is the shape of GET /status.
type statusResponse struct {
	Posts      int    `json:"posts"`
	Indexed    uint64 `json:"indexed"`
	Generation uint64 `json:"generation"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", `server URL (empty = direct storage)`)
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var status statusResponse
	if *serverURL != "" {
		res, err := statusViaHTTP(*serverURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		status = *res
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		logger, err := utils.NewLogger(cfg.Debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		components, err := initializeComponents(cfg, logger, cfg.Debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
			os.Exit(1)
		}
		defer components.Close()
		postCount, err := components.Storage.CountPosts(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Count posts failed: %v\n", err)
			os.Exit(1)
		}
		docs, generation, err := components.Engine.Status()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Index status failed: %v\n", err)
			os.Exit(1)
		}
		status = statusResponse{Posts: postCount, Indexed: docs, Generation: generation}
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		fmt.Printf("posts:      %d   # posts in canonical storage\n", status.Posts)
		fmt.Printf("indexed:    %d   # posts in the inverted index\n", status.Indexed)
		fmt.Printf("generation: %d   # index generation (bumps on every mutation)\n", status.Generation)
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func statusViaHTTP(serverURL string) (*statusResponse, error) {
	resp, err := http.Get(serverURL + "/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var s statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &s, nil
}

// Components holds initialized services.
type Components struct {
	Storage   storage.Storage
	Store     index.Store
	Sentiment sentiment.Scorer
	Cache     *cache.ResultCache
	Engine    *search.Engine
	Indexer   *ingest.Indexer
}

func (c *Components) Close() {
	if c.Cache != nil {
		_ = c.Cache.Close()
	}
	if c.Sentiment != nil {
		_ = c.Sentiment.Close()
	}
	if c.Store != nil {
		_ = c.Store.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger, debug bool) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	idxStore, err := index.NewBleveStore(cfg.Storage.IndexPath)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize index: %w", err)
	}

	scorer, err := sentiment.New(&cfg.Sentiment)
	if err != nil {
		// A missing model should not take ranking down; the lexicon scorer
		// covers the sentiment signal until the model is fixed.
		logger.Warn("sentiment scorer init failed, falling back to lexicon",
			zap.String("mode", cfg.Sentiment.Mode),
			zap.Error(err))
		fallback := cfg.Sentiment
		fallback.Mode = "lexicon"
		scorer, err = sentiment.New(&fallback)
		if err != nil {
			_ = idxStore.Close()
			_ = store.Close()
			return nil, fmt.Errorf("failed to initialize sentiment scorer: %w", err)
		}
	}

	var resultCache *cache.ResultCache
	if cfg.Cache.Enabled {
		var backend cache.Store
		switch cfg.Cache.Backend {
		case "redis":
			backend, err = cache.NewRedisStore(context.Background(), &cfg.Cache)
			if err != nil {
				logger.Warn("redis cache unavailable, falling back to memory", zap.Error(err))
				backend = cache.NewMemoryStore()
			}
		default:
			backend = cache.NewMemoryStore()
		}
		resultCache = cache.New(backend, cfg.Cache.TTL.Std(), logger)
	}

	engine := search.NewEngine(idxStore, store, scorer, cfg, resultCache, logger)

	idxOpts := []ingest.IndexerOption{}
	if debug {
		idxOpts = append(idxOpts, ingest.WithLogger(logger))
	}
	idx := ingest.NewIndexer(store, idxStore, idxOpts...)

	return &Components{
		Storage:   store,
		Store:     idxStore,
		Sentiment: scorer,
		Cache:     resultCache,
		Engine:    engine,
		Indexer:   idx,
	}, nil
}

func printUsage() {
	fmt.Println(`pulse - Social post ranking and retrieval service

Usage:
  pulse server [flags]            Start the HTTP server
  pulse rank [flags] <terms>      Rank posts for the given topic terms
  pulse ingest [flags] <file>     Ingest posts from a JSON/NDJSON file
  pulse delete [flags] <id>       Delete a post
  pulse status [flags]            Show storage/index status
  pulse version                   Show version
  pulse help                      Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/pulse/config.yaml)
  --debug            Enable debug logging (cache hits, retries, spool files, etc.)

Rank Flags:
  --config string    Config file path (for direct storage mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") for direct storage.
  --page-size int    Results per page (default: 10)
  --offset int       Zero-based offset into the ranked list
  --author string    Restrict to posts by one author
  --lang string      Restrict to posts in one language
  --phrase           Match the terms as a phrase
  --since string     Lower time bound, RFC 3339
  --until string     Upper time bound, RFC 3339 (exclusive)
  --output string    Output format: text or json (default: text)

Ingest Flags:
  --config string    Config file path

Status Flags:
  --config string    Config file path (for direct storage mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") for direct storage.
  --output string    Output format: text or json (default: text)

Examples:
  pulse server
  pulse rank go generics
  pulse rank --author alice --page-size 20 release
  pulse rank --since 2026-01-01T00:00:00Z --until 2026-02-01T00:00:00Z launch
  pulse ingest posts.ndjson
  pulse delete post-123
  pulse status --output json`)
}
