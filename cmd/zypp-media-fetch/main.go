// Command zypp-media-fetch is a thin CLI driving the media core: it loads
// a repo definition, attaches to its mirrors, fetches one path, and prints
// the resulting local file.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/bzeller/zypp-media-go/internal/config"
	"github.com/bzeller/zypp-media-go/internal/zlog"
	"github.com/bzeller/zypp-media-go/media"
	"github.com/bzeller/zypp-media-go/media/httpdriver"
	"github.com/bzeller/zypp-media-go/repoinfo"
	"github.com/rs/zerolog/log"
	flag "github.com/spf13/pflag"
)

func usage() {
	fmt.Printf(`zypp-media-fetch - fetch a single file through the media access layer.

Usage: zypp-media-fetch [options] <medium-relative-path>

Valid options:
`)
	flag.PrintDefaults()
}

func main() {
	zlog.Init()

	configPath := flag.StringP("config-file", "f", config.DefaultConfigPath(),
		"A YAML-formatted configuration file.")
	repoFile := flag.StringP("repo-file", "r", "", "Path to a single .repo file to read mirrors from.")
	repoDir := flag.StringP("repo-dir", "d", "", "Directory of .repo files to read mirrors from.")
	alias := flag.StringP("alias", "a", "", "Repo alias to use when repo-dir/repo-file defines more than one.")
	cacheDir := flag.StringP("cache-dir", "c", "", "Override the configured scratch/cache directory.")
	logLevel := flag.StringP("log", "l", "", "Logging level: "+joinLevels())
	help := flag.BoolP("help", "h", false, "Displays this help message.")
	flag.Usage = usage
	flag.Parse()

	if *help {
		flag.Usage()
		os.Exit(0)
	}

	cfg := config.LoadConfig(*configPath)
	if *cacheDir != "" {
		cfg.CacheDir = *cacheDir
	}
	if *repoDir != "" {
		cfg.RepoDir = *repoDir
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	zlog.SetLevel(cfg.LogLevel)

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	relPath := flag.Arg(0)

	repo, err := resolveRepo(*repoFile, cfg.RepoDir, *alias)
	if err != nil {
		log.Fatal().Err(err).Msg("could not resolve repository definition")
	}
	if len(repo.BaseURLs) == 0 {
		log.Fatal().Str("alias", repo.Alias).Msg("repository has no baseurl entries")
	}

	if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
		log.Fatal().Err(err).Str("dir", cfg.CacheDir).Msg("could not create cache directory")
	}

	mgr := httpdriver.NewManager(nil, cfg.CacheDir)
	defer mgr.Shutdown()

	ctx := context.Background()
	spec := media.MediaSpec{Label: repo.Name}
	medium, err := mgr.Attach(ctx, repo.BaseURLs, spec)
	if err != nil {
		log.Fatal().Err(err).Str("alias", repo.Alias).Msg("attach failed")
	}
	defer medium.Close()

	path, err := mgr.Fetch(ctx, medium, relPath, media.FileSpec{})
	if err != nil {
		log.Fatal().Err(err).Str("path", relPath).Msg("fetch failed")
	}
	fmt.Println(path)
}

func resolveRepo(repoFile, repoDir, alias string) (repoinfo.RepoInfo, error) {
	var (
		repos []repoinfo.RepoInfo
		err   error
	)
	switch {
	case repoFile != "":
		repos, err = repoinfo.ParseRepoFile(repoFile)
	case repoDir != "":
		repos, err = repoinfo.LoadRepoDir(repoDir)
	default:
		return repoinfo.RepoInfo{}, fmt.Errorf("one of --repo-file or --repo-dir is required")
	}
	if err != nil {
		return repoinfo.RepoInfo{}, err
	}

	if alias != "" {
		for _, r := range repos {
			if r.Alias == alias {
				return r, nil
			}
		}
		return repoinfo.RepoInfo{}, fmt.Errorf("no repo with alias %q found", alias)
	}
	if len(repos) != 1 {
		return repoinfo.RepoInfo{}, fmt.Errorf("found %d repos, pass --alias to disambiguate", len(repos))
	}
	return repos[0], nil
}

func joinLevels() string {
	levels := zlog.Levels()
	out := levels[0]
	for _, l := range levels[1:] {
		out += ", " + l
	}
	return out
}
