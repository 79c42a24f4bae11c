// Package repoinfo decodes INI-style ".repo" files into RepoInfo values.
// This is explicitly a collaborator of the media core, not part of it
// (spec.md §1): callers parse repo files here, then assemble MediaSpec and
// mirror URLs before calling media.Manager.Attach.
package repoinfo

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/bzeller/zypp-media-go/media"
	"github.com/rs/zerolog/log"
	"gopkg.in/ini.v1"
)

// RepoType is the recognized repository backend, matching the synonym
// table of the original zypp .repo format.
type RepoType int

const (
	TypeNone RepoType = iota
	TypeRpmMd
	TypeYast2
	TypePlainDir
)

func (t RepoType) String() string {
	switch t {
	case TypeRpmMd:
		return "rpm-md"
	case TypeYast2:
		return "yast2"
	case TypePlainDir:
		return "plaindir"
	default:
		return "none"
	}
}

// parseRepoType accepts the case-insensitive synonyms spec.md §6 and
// original_source/zypp-rs/src/repoinfo.rs define.
func parseRepoType(s string) (RepoType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rpm-md", "rpm", "rpmmd", "repomd", "yum", "up2date":
		return TypeRpmMd, nil
	case "yast2", "yast", "susetags":
		return TypeYast2, nil
	case "plaindir":
		return TypePlainDir, nil
	case "none", "":
		return TypeNone, nil
	default:
		return TypeNone, fmt.Errorf("unrecognized repo type %q", s)
	}
}

// RepoInfo is a single [alias] section of a .repo file.
type RepoInfo struct {
	Alias       string
	Type        RepoType
	Name        string
	RawGPGCheck media.Tribool
	BaseURLs    []*url.URL
	Enabled     bool
}

func parseTribool(s string) media.Tribool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes":
		return media.True
	case "0", "false", "no":
		return media.False
	default:
		return media.Indeterminate
	}
}

// knownKeys is used to detect and log unrecognized keys per spec.md §6
// ("Unknown keys are logged and ignored").
var knownKeys = map[string]struct{}{
	"type": {}, "name": {}, "enabled": {}, "raw_gpg_check": {}, "baseurl": {},
	"gpgcheck": {}, "autorefresh": {}, "keeppackages": {},
}

// ParseRepoFile decodes path as an INI-style .repo file, returning one
// RepoInfo per section.
func ParseRepoFile(path string) ([]RepoInfo, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{AllowShadows: true}, path)
	if err != nil {
		return nil, fmt.Errorf("parsing repo file %s: %w", path, err)
	}
	return decode(cfg)
}

// ParseRepoData is like ParseRepoFile but reads from an in-memory buffer,
// primarily useful for tests.
func ParseRepoData(data []byte) ([]RepoInfo, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{AllowShadows: true}, data)
	if err != nil {
		return nil, fmt.Errorf("parsing repo data: %w", err)
	}
	return decode(cfg)
}

func decode(cfg *ini.File) ([]RepoInfo, error) {
	var infos []RepoInfo
	for _, section := range cfg.Sections() {
		if section.Name() == ini.DefaultSection {
			continue
		}

		for _, key := range section.Keys() {
			if _, known := knownKeys[strings.ToLower(key.Name())]; !known {
				log.Warn().Str("repo", section.Name()).Str("key", key.Name()).
					Msg("ignoring unrecognized repo file key")
			}
		}

		repoType, err := parseRepoType(section.Key("type").String())
		if err != nil {
			log.Warn().Str("repo", section.Name()).Err(err).Msg("unrecognized repo type, defaulting to none")
		}

		info := RepoInfo{
			Alias:       section.Name(),
			Type:        repoType,
			Name:        section.Key("name").MustString(section.Name()),
			RawGPGCheck: parseTribool(section.Key("raw_gpg_check").String()),
			Enabled:     section.Key("enabled").MustBool(true),
		}

		for _, raw := range splitMultiValue(section.Key("baseurl").String()) {
			u, err := url.Parse(raw)
			if err != nil {
				log.Warn().Str("repo", section.Name()).Str("baseurl", raw).Err(err).
					Msg("skipping malformed baseurl")
				continue
			}
			info.BaseURLs = append(info.BaseURLs, u)
		}

		infos = append(infos, info)
	}
	return infos, nil
}

// splitMultiValue splits a baseurl value on embedded newlines. Multiple
// mirrors are written as an ini.v1 triple-quoted block value, one URL per
// line.
func splitMultiValue(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
