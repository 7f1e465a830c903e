package config

const (
	defaultRoot          = "."
	defaultDatasetName   = "Plant Village Orange"
	defaultSupercategory = "plant"
	defaultDatasetYear   = 2025
	defaultReportLimit   = 10
	defaultLogFormat     = "console"
	defaultLogLevel      = "info"
	defaultSourceSubdir  = "without_augmentation"
)

var (
	defaultImageExtensions = []string{".jpg", ".jpeg", ".png"}
	defaultCategories      = []string{"oranges", "backgrounds"}
	defaultSplits          = []string{"train", "val", "test"}
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			Root: defaultRoot,
		},
		Dataset: Dataset{
			Name:            defaultDatasetName,
			Supercategory:   defaultSupercategory,
			Year:            defaultDatasetYear,
			ImageExtensions: append([]string(nil), defaultImageExtensions...),
		},
		Sources: defaultSources(),
		Convert: Convert{
			Categories: append([]string(nil), defaultCategories...),
			Splits:     append([]string(nil), defaultSplits...),
		},
		FixSplits: FixSplits{
			Splits:      append([]string(nil), defaultSplits...),
			ReportLimit: defaultReportLimit,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Run: Run{
			Strict: false,
		},
	}
}

func defaultSources() []Source {
	return []Source{
		{
			Category:      "oranges",
			Dir:           "Orange___Haunglongbing_(Citrus_greening)",
			Subdir:        defaultSourceSubdir,
			SplitPatterns: []string{"CREC_HLB", "UF.Citrus_HLB", "image ("},
		},
		{
			Category: "backgrounds",
			Dir:      "Background_without_leaves",
			Subdir:   defaultSourceSubdir,
		},
	}
}
