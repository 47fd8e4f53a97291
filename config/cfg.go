package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"

	"stdpipe/common"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TemplateFieldName string

	ServiceConfig struct {
		BaseURL        string              `yaml:"base_url" validate:"required,url"`
		Token          SecretString        `yaml:"token"`
		ModelVersion   common.ModelVersion `yaml:"model_version" validate:"required"`
		IsOCR          bool                `yaml:"is_ocr"`
		EnableFormula  bool                `yaml:"enable_formula"`
		PollInterval   time.Duration       `yaml:"poll_interval" validate:"gt=0"`
		RequestTimeout time.Duration       `yaml:"request_timeout" validate:"gt=0"`
		// empty - direct connection, "env" - use environment, anything else - proxy URL
		Proxy string `yaml:"proxy"`
	}

	DownloadConfig struct {
		Retries        int           `yaml:"retries" validate:"min=1"`
		ConnectTimeout time.Duration `yaml:"connect_timeout" validate:"gt=0"`
		ReadTimeout    time.Duration `yaml:"read_timeout" validate:"gt=0"`
		VerifySSL      bool          `yaml:"verify_ssl"`
	}

	BatchConfig struct {
		OutputRoot string `yaml:"output_root" sanitize:"path_clean" validate:"required"`
		Recursive  bool   `yaml:"recursive"`
		KeepZip    bool   `yaml:"keep_zip"`
	}

	ExtractConfig struct {
		TitleBandTop    float64  `yaml:"title_band_top" validate:"gte=0"`
		TitleBandBottom float64  `yaml:"title_band_bottom" validate:"gtfield=TitleBandTop"`
		StdNoMaxTop     float64  `yaml:"std_no_max_top" validate:"gt=0"`
		StdNoPrefixes   []string `yaml:"std_no_prefixes" validate:"min=1,dive,required"`
	}

	TOCConfig struct {
		ExcludeKeywords []string `yaml:"exclude_keywords" validate:"dive,required"`
		MaxDepth        int      `yaml:"max_depth" validate:"min=1"`
	}

	NamingConfig struct {
		OutputNameTemplate string `yaml:"output_name_template"`
		Transliterate      bool   `yaml:"transliterate"`
	}

	ExportConfig struct {
		TOCFileName     string `yaml:"toc_file_name" validate:"required"`
		ImagesFileName  string `yaml:"images_file_name" validate:"required"`
		EmbedImages     bool   `yaml:"embed_images"`
		ThumbnailWidth  int    `yaml:"thumbnail_width" validate:"min=16"`
		ThumbnailHeight int    `yaml:"thumbnail_height" validate:"min=16"`
	}

	JournalConfig struct {
		Path string `yaml:"path,omitempty" validate:"omitempty,filepath"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Service   ServiceConfig  `yaml:"service"`
		Download  DownloadConfig `yaml:"download"`
		Batch     BatchConfig    `yaml:"batch"`
		Extract   ExtractConfig  `yaml:"extract"`
		TOC       TOCConfig      `yaml:"toc"`
		Naming    NamingConfig   `yaml:"naming"`
		Export    ExportConfig   `yaml:"export"`
		Journal   JournalConfig  `yaml:"journal"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

const (
	// NOTE: must match yaml field name above, alternative is to use struct
	// field name and reflection which I want to avoid for now
	OutputNameTemplateFieldName TemplateFieldName = "output_name_template"
)

var requiredOptions = append([]func(*gencfg.ProcessingOptions){},
	gencfg.WithDoNotExpandField(string(OutputNameTemplateFieldName)),
)

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		// sanitize and validate what has been loaded
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, err
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration tamplate to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, append(requiredOptions, options...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	// overwrite cfg values with values from the file
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl, requiredOptions...)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}
