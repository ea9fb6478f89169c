package config

import (
	"errors"
	"os"
	"unicode/utf8"

	"github.com/foomo/tagsoup/extract"
	"github.com/foomo/tagsoup/source"
	yaml "gopkg.in/yaml.v3"
)

type Config struct {
	Inputs      []string        `yaml:"inputs"`
	Output      string          `yaml:"output"`
	Delimiter   string          `yaml:"delimiter"`
	Agent       string          `yaml:"agent"`
	Robots      bool            `yaml:"robots"`
	Normalize   bool            `yaml:"normalize"`
	Sanitize    bool            `yaml:"sanitize"`
	FailFast    bool            `yaml:"failfast"`
	MetricsAddr string          `yaml:"metricsaddr"`
	Fields      []extract.Field `yaml:"fields"`
}

// DelimiterRune of the output, the config must have been validated
func (c *Config) DelimiterRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Delimiter)
	return r
}

func Get(filename string) (conf *Config, err error) {
	yamlBytes, errRead := os.ReadFile(filename)
	if errRead != nil {
		return nil, errRead
	}
	return Load(yamlBytes)
}

func Load(yamlBytes []byte) (conf *Config, err error) {
	conf = &Config{
		Delimiter: ",",
		Agent:     source.DefaultAgent,
	}
	errUnmarshal := yaml.Unmarshal(yamlBytes, conf)
	if errUnmarshal != nil {
		return nil, errUnmarshal
	}
	if len(conf.Fields) == 0 {
		conf.Fields = extract.DefaultFields()
	}
	if utf8.RuneCountInString(conf.Delimiter) != 1 {
		return nil, errors.New("delimiter must be exactly one character, got " + conf.Delimiter)
	}
	switch conf.DelimiterRune() {
	case 0, '"', '\r', '\n', utf8.RuneError:
		return nil, errors.New("invalid delimiter " + conf.Delimiter)
	}
	return conf, nil
}
