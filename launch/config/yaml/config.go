package yamlconfig

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/spikeekips/votebox/launch/config"
)

type Config struct {
	Network  *Network               `yaml:"network,omitempty"`
	Contract *Contract              `yaml:"contract,omitempty"`
	Wallet   *Wallet                `yaml:"wallet,omitempty"`
	Resolver *Resolver              `yaml:"resolver,omitempty"`
	API      *API                   `yaml:"api,omitempty"`
	Extras   map[string]interface{} `yaml:",inline"`
}

func (no Config) Set(conf *config.Config) error {
	if len(no.Extras) > 0 {
		for k := range no.Extras {
			return errors.Errorf("unknown config section, %q", k)
		}
	}

	if no.Network != nil {
		if err := no.Network.Set(conf.Network()); err != nil {
			return errors.Wrap(err, "network")
		}
	}

	if no.Contract != nil {
		if err := no.Contract.Set(conf.Contract()); err != nil {
			return errors.Wrap(err, "contract")
		}
	}

	if no.Wallet != nil {
		if err := no.Wallet.Set(conf.Wallet()); err != nil {
			return errors.Wrap(err, "wallet")
		}
	}

	if no.Resolver != nil {
		if err := no.Resolver.Set(conf.Resolver()); err != nil {
			return errors.Wrap(err, "resolver")
		}
	}

	if no.API != nil {
		if err := no.API.Set(conf.API()); err != nil {
			return errors.Wrap(err, "api")
		}
	}

	return nil
}

// Load applies the yaml over the default config. Empty input returns the
// default config.
func Load(b []byte) (*config.Config, error) {
	conf := config.New()

	var y Config
	if err := yaml.Unmarshal(b, &y); err != nil {
		return nil, errors.Wrap(err, "failed to parse config")
	}

	if err := y.Set(conf); err != nil {
		return nil, err
	}

	return conf, nil
}

func LoadFile(f string) (*config.Config, error) {
	b, err := os.ReadFile(filepath.Clean(f))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	return Load(b)
}
