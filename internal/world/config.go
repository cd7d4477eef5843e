package world

import "strings"

const (
	DefaultSeed            = "arena"
	DefaultMapScale        = 14400.0
	DefaultMaxPlayers      = 10
	DefaultLargeMaxPlayers = 80
	DefaultMapPingTimeMS   = 2200
	DefaultSpawnCheckMS    = 1000
)

// Config captures the world dimensions, caps and static spawn counts.
type Config struct {
	Seed           string  `yaml:"seed" json:"seed"`
	MapScale       float64 `yaml:"mapScale" json:"mapScale"`
	RiverWidth     float64 `yaml:"riverWidth" json:"riverWidth"`
	SnowBiomeTop   float64 `yaml:"snowBiomeTop" json:"snowBiomeTop"`
	MaxPlayers     int     `yaml:"maxPlayers" json:"maxPlayers"`
	MaxPlayersHard int     `yaml:"maxPlayersHard" json:"maxPlayersHard"`
	MapPingTimeMS  float64 `yaml:"mapPingTimeMs" json:"mapPingTimeMs"`
	SpawnCheckMS   float64 `yaml:"spawnCheckMs" json:"spawnCheckMs"`

	AreaCount     int       `yaml:"areaCount" json:"areaCount"`
	TreesPerArea  int       `yaml:"treesPerArea" json:"treesPerArea"`
	BushesPerArea int       `yaml:"bushesPerArea" json:"bushesPerArea"`
	TotalRocks    int       `yaml:"totalRocks" json:"totalRocks"`
	GoldOres      int       `yaml:"goldOres" json:"goldOres"`
	TreeScales    []float64 `yaml:"treeScales" json:"treeScales"`
	BushScales    []float64 `yaml:"bushScales" json:"bushScales"`
	RockScales    []float64 `yaml:"rockScales" json:"rockScales"`

	// Animals disables the animal population entirely when false.
	Animals bool `yaml:"animals" json:"animals"`
	// MapCellSize is the edge length of one static terrain cell.
	MapCellSize float64 `yaml:"mapCellSize" json:"mapCellSize"`
}

// DefaultConfig mirrors the stock arena settings.
func DefaultConfig() Config {
	return Config{
		Seed:           DefaultSeed,
		MapScale:       DefaultMapScale,
		RiverWidth:     724,
		SnowBiomeTop:   2400,
		MaxPlayers:     DefaultMaxPlayers,
		MaxPlayersHard: DefaultMaxPlayers + 10,
		MapPingTimeMS:  DefaultMapPingTimeMS,
		SpawnCheckMS:   DefaultSpawnCheckMS,
		AreaCount:      7,
		TreesPerArea:   30,
		BushesPerArea:  12,
		TotalRocks:     120,
		GoldOres:       7,
		TreeScales:     []float64{150, 160, 165, 175},
		BushScales:     []float64{80, 85, 95},
		RockScales:     []float64{80, 85, 90},
		Animals:        true,
		MapCellSize:    1440,
	}
}

func (cfg Config) normalized() Config {
	normalized := cfg
	normalized.Seed = strings.TrimSpace(normalized.Seed)
	if normalized.Seed == "" {
		normalized.Seed = DefaultSeed
	}
	if normalized.MapScale <= 0 {
		normalized.MapScale = DefaultMapScale
	}
	if normalized.MaxPlayers <= 0 {
		normalized.MaxPlayers = DefaultMaxPlayers
	}
	if normalized.MaxPlayersHard < normalized.MaxPlayers {
		normalized.MaxPlayersHard = normalized.MaxPlayers + 10
	}
	if normalized.MapPingTimeMS < 0 {
		normalized.MapPingTimeMS = DefaultMapPingTimeMS
	}
	if normalized.SpawnCheckMS <= 0 {
		normalized.SpawnCheckMS = DefaultSpawnCheckMS
	}
	for _, count := range []*int{
		&normalized.AreaCount, &normalized.TreesPerArea, &normalized.BushesPerArea,
		&normalized.TotalRocks, &normalized.GoldOres,
	} {
		if *count < 0 {
			*count = 0
		}
	}
	if len(normalized.TreeScales) == 0 {
		normalized.TreeScales = []float64{150}
	}
	if len(normalized.BushScales) == 0 {
		normalized.BushScales = []float64{80}
	}
	if len(normalized.RockScales) == 0 {
		normalized.RockScales = []float64{80}
	}
	if normalized.MapCellSize <= 0 {
		normalized.MapCellSize = normalized.MapScale / 10
	}
	return normalized
}

// Normalized exposes the defaults applied during construction.
func (cfg Config) Normalized() Config {
	return cfg.normalized()
}
