// SPDX-License-Identifier: Apache-2.0

package flags

import "github.com/spf13/viper"

func Env() string {
	return viper.GetString("ENV")
}

func JSONLog() bool {
	return viper.GetBool("JSON_LOG")
}

func Verbose() bool {
	return viper.GetBool("VERBOSE")
}
