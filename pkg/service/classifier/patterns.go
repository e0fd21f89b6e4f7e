package classifier

import (
	"os"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/cerberus/pkg/domain/types"
)

// PatternTable maps each classifiable access tag to its keyword patterns.
// Keywords are matched case-insensitively as substrings.
type PatternTable map[types.AccessTag][]string

// DefaultPatternTable returns the built-in keyword table
func DefaultPatternTable() PatternTable {
	return PatternTable{
		types.TagHROnly: {
			"employee benefits", "hiring policy", "performance review",
			"leave policy", "payroll", "recruitment", "code of conduct",
			"employee handbook",
		},
		types.TagITOnly: {
			"server", "database", "api", "network", "firewall",
			"cybersecurity", "vpn", "infrastructure", "backend",
			"devops", "source code",
		},
		types.TagFinanceOnly: {
			"budget", "invoice", "financial statement", "balance sheet",
			"ledger", "payables", "receivables", "audit",
			"profit and loss", "tax",
		},
		types.TagGeneralAccess: {
			"announcement", "notice", "schedule", "event", "update",
			"welcome", "guide", "handbook", "policy",
		},
	}
}

// patternConfig is the TOML file representation of a pattern table
type patternConfig struct {
	Patterns []patternEntry `toml:"pattern"`
}

type patternEntry struct {
	Tag      string   `toml:"tag"`
	Keywords []string `toml:"keywords"`
}

// Validate checks that the entry names a known tag and has keywords
func (p *patternEntry) Validate() error {
	if _, err := types.ParseAccessTag(p.Tag); err != nil {
		return goerr.Wrap(err, "invalid pattern tag")
	}
	if len(p.Keywords) == 0 {
		return goerr.New("pattern keywords are required", goerr.V("tag", p.Tag))
	}
	for _, kw := range p.Keywords {
		if strings.TrimSpace(kw) == "" {
			return goerr.New("empty pattern keyword", goerr.V("tag", p.Tag))
		}
	}
	return nil
}

// LoadPatternTable loads a keyword table from a TOML file
func LoadPatternTable(path string) (PatternTable, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read pattern config", goerr.V("path", path))
	}

	var cfg patternConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, goerr.Wrap(err, "failed to parse pattern config", goerr.V("path", path))
	}

	if len(cfg.Patterns) == 0 {
		return nil, goerr.New("pattern config has no entries", goerr.V("path", path))
	}

	table := make(PatternTable, len(cfg.Patterns))
	for _, entry := range cfg.Patterns {
		if err := entry.Validate(); err != nil {
			return nil, goerr.Wrap(err, "invalid pattern entry", goerr.V("path", path))
		}
		tag := types.AccessTag(entry.Tag)
		if _, exists := table[tag]; exists {
			return nil, goerr.New("duplicate pattern tag", goerr.V("tag", entry.Tag))
		}
		table[tag] = entry.Keywords
	}

	return table, nil
}
