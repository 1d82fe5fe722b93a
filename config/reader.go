package config

import (
	"io"

	"github.com/a8m/envsubst"
	"github.com/pkg/errors"
	"github.com/yosuke-furukawa/json5/encoding/json5"
)

// Read reads a config from the given file. Environment variables referenced as $VAR or ${VAR}
// are substituted before decoding, and the file may use JSON5 syntax.
func Read(filePath string) (*Chain, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read config %q", filePath)
	}
	return decode(filePath, buf)
}

// FromReader reads a config from the given reader and specifies
// where, if applicable, the file the reader originated from.
func FromReader(originalPath string, r io.Reader) (*Chain, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	buf, err := envsubst.Bytes(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot substitute environment in %q", originalPath)
	}
	return decode(originalPath, buf)
}

func decode(originalPath string, buf []byte) (*Chain, error) {
	var cfg Chain
	if err := json5.Unmarshal(buf, &cfg); err != nil {
		return nil, errors.Wrapf(err, "cannot parse config %q", originalPath)
	}
	if err := cfg.Validate("chain"); err != nil {
		return nil, err
	}
	return &cfg, nil
}
