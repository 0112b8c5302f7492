// Package profile resolves build settings and options with viper.
package profile

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// EnvPrefix is the prefix of environment variables overriding settings,
// e.g. KILN_SETTINGS_BUILD_TYPE=Debug.
const EnvPrefix = "KILN"

var _ ports.ProfileLoader = (*Loader)(nil)

var settingKeys = []string{
	domain.SettingOS,
	domain.SettingArch,
	domain.SettingCompiler,
	domain.SettingCompilerVersion,
	domain.SettingBuildType,
	domain.SettingOSBuild,
	domain.SettingArchBuild,
}

// Loader implements ports.ProfileLoader.
type Loader struct {
	// dir holds named profiles.
	dir string
}

// NewLoader creates a Loader looking up named profiles in dir.
func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

// Load resolves a profile. path is either a file or the name of a profile
// below the profiles directory; an empty path uses host defaults only.
func (l *Loader) Load(path string, settings, options []string) (domain.Profile, error) {
	v := viper.New()

	host := domain.HostSettings()
	for _, key := range settingKeys {
		val, _ := host.Get(key)
		v.SetDefault("settings."+key, val)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		file, err := l.resolve(path)
		if err != nil {
			return domain.Profile{}, err
		}
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return domain.Profile{}, zerr.With(zerr.Wrap(err, "failed to read profile"), "path", file)
		}
	}

	for _, s := range settings {
		_, key, value, err := domain.ParseAssignment(s)
		if err != nil {
			return domain.Profile{}, err
		}
		if _, known := host.Get(key); !known {
			return domain.Profile{}, zerr.With(zerr.New("unknown setting"), "setting", key)
		}
		v.Set("settings."+key, value)
	}

	var profile domain.Profile
	for _, key := range settingKeys {
		if err := profile.Settings.Set(key, v.GetString("settings."+key)); err != nil {
			return domain.Profile{}, err
		}
	}

	profile.Options = domain.Options(v.GetStringMapString("options"))
	if profile.Options == nil {
		profile.Options = make(domain.Options)
	}
	for _, o := range options {
		scope, key, value, err := domain.ParseAssignment(o)
		if err != nil {
			return domain.Profile{}, err
		}
		if scope != "" {
			key = scope + ":" + key
		}
		profile.Options[key] = value
	}

	return profile, nil
}

// resolve maps a profile argument to a file.
func (l *Loader) resolve(path string) (string, error) {
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	if l.dir != "" && !strings.ContainsAny(path, `/\`) {
		named := filepath.Join(l.dir, path)
		if _, err := os.Stat(named); err == nil {
			return named, nil
		}
		if _, err := os.Stat(named + ".yaml"); err == nil {
			return named + ".yaml", nil
		}
	}
	return "", zerr.With(zerr.New("profile not found"), "profile", path)
}
