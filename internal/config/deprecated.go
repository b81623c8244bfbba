// SPDX-License-Identifier: Apache-2.0

package config

import (
	"github.com/automa-saga/logx"
	"github.com/spf13/viper"
)

// deprecatedKeyMappings maps renamed keys to their current names.
var deprecatedKeyMappings = []struct {
	oldKey string
	newKey string
}{
	{"migrate.directory", "migrate.dir"},
	{"migrate.registryFile", "migrate.registryFiles"},
	{"migrate.enumerationMethod", "migrate.method"},
}

func migrateOldConfigKeys() {
	for _, mapping := range deprecatedKeyMappings {
		migrateKey(mapping.oldKey, mapping.newKey)
	}
}

// migrateKey copies the value of a deprecated key to its new name unless the new key is already set.
func migrateKey(oldKey, newKey string) {
	if !viper.IsSet(newKey) && viper.IsSet(oldKey) {
		viper.Set(newKey, viper.Get(oldKey))

		logx.As().Warn().
			Str("oldKey", oldKey).
			Str("newKey", newKey).
			Msg("DEPRECATION WARNING: Config field is deprecated and will be removed in a future release. Please update your config file.")
	}
}
