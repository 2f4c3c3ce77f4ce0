package schema

import (
	"fmt"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/hupe1980/segmend/codec"
)

// Compression names the chunk codec of raw forward indexes.
type Compression string

const (
	// CompressionNone stores chunks uncompressed.
	CompressionNone Compression = "none"
	// CompressionLZ4 compresses chunks with LZ4 block compression.
	CompressionLZ4 Compression = "lz4"
	// CompressionZstd compresses chunks with Zstandard.
	CompressionZstd Compression = "zstd"
)

// DefaultDocsPerChunk is the raw forward index chunk size used when the
// config leaves it unset.
const DefaultDocsPerChunk = 1000

// IndexingConfig is the loader-side configuration consulted during
// reconciliation.
type IndexingConfig struct {
	// TextIndexColumns are written as RAW forward indexes without a dictionary.
	TextIndexColumns []string `json:"textIndexColumns" toml:"text_index_columns"`
	// NullHandlingEnabled writes a null value vector for null defaults.
	NullHandlingEnabled bool `json:"nullHandlingEnabled" toml:"null_handling_enabled"`
	// RawCompression is the chunk codec of raw forward indexes. Default lz4.
	RawCompression Compression `json:"rawCompression" toml:"raw_compression"`
	// DocsPerChunk is the number of rows per raw chunk. Default 1000.
	DocsPerChunk int `json:"docsPerChunk" toml:"docs_per_chunk"`
}

// DefaultIndexingConfig returns a config with no text-index columns.
func DefaultIndexingConfig() IndexingConfig {
	return IndexingConfig{
		RawCompression: CompressionLZ4,
		DocsPerChunk:   DefaultDocsPerChunk,
	}
}

// IsTextIndexed reports whether column is enrolled in text indexing.
func (c IndexingConfig) IsTextIndexed(column string) bool {
	return slices.Contains(c.TextIndexColumns, column)
}

// WithDefaults fills unset fields.
func (c IndexingConfig) WithDefaults() IndexingConfig {
	if c.RawCompression == "" {
		c.RawCompression = CompressionLZ4
	}
	if c.DocsPerChunk <= 0 {
		c.DocsPerChunk = DefaultDocsPerChunk
	}
	return c
}

// Validate checks the config after defaults are applied.
func (c IndexingConfig) Validate() error {
	c = c.WithDefaults()
	switch Compression(strings.ToLower(string(c.RawCompression))) {
	case CompressionNone, CompressionLZ4, CompressionZstd:
	default:
		return fmt.Errorf("unknown raw compression %q", c.RawCompression)
	}
	seen := make(map[string]struct{}, len(c.TextIndexColumns))
	for _, col := range c.TextIndexColumns {
		if col == "" {
			return fmt.Errorf("empty text index column name")
		}
		if _, dup := seen[col]; dup {
			return fmt.Errorf("text index column %q listed twice", col)
		}
		seen[col] = struct{}{}
	}
	return nil
}

// ParseIndexingConfigTOML decodes a TOML config. Unknown keys are rejected.
func ParseIndexingConfigTOML(data string) (IndexingConfig, error) {
	var c IndexingConfig
	md, err := toml.Decode(data, &c)
	if err != nil {
		return IndexingConfig{}, fmt.Errorf("decode indexing config: %w", err)
	}
	return finishTOML(c, md)
}

// LoadIndexingConfig reads a TOML config file.
func LoadIndexingConfig(path string) (IndexingConfig, error) {
	var c IndexingConfig
	md, err := toml.DecodeFile(path, &c)
	if err != nil {
		return IndexingConfig{}, fmt.Errorf("decode indexing config %s: %w", path, err)
	}
	return finishTOML(c, md)
}

func finishTOML(c IndexingConfig, md toml.MetaData) (IndexingConfig, error) {
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return IndexingConfig{}, fmt.Errorf("unknown indexing config keys: %s", strings.Join(keys, ", "))
	}
	return finish(c)
}

// ParseIndexingConfigJSON decodes a JSON config.
func ParseIndexingConfigJSON(data []byte) (IndexingConfig, error) {
	var c IndexingConfig
	if err := codec.Default.Unmarshal(data, &c); err != nil {
		return IndexingConfig{}, fmt.Errorf("decode indexing config: %w", err)
	}
	return finish(c)
}

func finish(c IndexingConfig) (IndexingConfig, error) {
	c = c.WithDefaults()
	c.RawCompression = Compression(strings.ToLower(string(c.RawCompression)))
	if err := c.Validate(); err != nil {
		return IndexingConfig{}, err
	}
	return c, nil
}
