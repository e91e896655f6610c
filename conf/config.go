package conf

/*
   This is a package that wraps viper for the agenda client. Values are read
   from an env formatted file named agenda.env when one is found, and from the
   process environment otherwise.

   Assumptions:
   1. The configuration file is a env file
   2. The configuration file, once it is made available to the application,
   will stay immutable during the uptime of the application (exception is test)
*/

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/viper"
)

// An instance of the viper struct containing the conf information. Only made
// accessible through public functions GetEnv, SetEnv, etc.
var envVars *viper.Viper

// Guards envVars; tests mutate it while client goroutines read it.
var mu sync.RWMutex

// Implementing a state machine tracking how things are going in this package
const (
	configgood    uint8 = 0
	configbad     uint8 = 1
	noconfigfound uint8 = 2
)

var state uint8 = configgood

const fileName = "agenda"

/*
setup is the private helper function that sets up viper. It is called by
init() once during initialization of the package.
*/
func setup(dir string) *viper.Viper {
	var v = viper.New()
	v.SetConfigName(fileName)
	v.SetConfigType("env")
	v.AddConfigPath(dir)
	// Viper is lazy, do the read and parse of the config file now
	if err := v.ReadInConfig(); err != nil {
		state = configbad
	}
	return v
}

func init() {
	if success, loc := findEnv(locations()); success {
		envVars = setup(loc)
	} else {
		state = noconfigfound
	}
}

// Possible config file locations: working directory first, then the user's
// agenda directory.
func locations() []string {
	locs := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		locs = append(locs, filepath.Join(home, ".agenda"))
	}
	return locs
}

/*
findEnv walks the candidate locations in order and reports the first one
holding an agenda.env file.
*/
func findEnv(location []string) (bool, string) {
	if len(location) == 0 {
		return false, ""
	}

	if _, err := os.Stat(filepath.Join(location[0], fileName+".env")); err == nil {
		return true, location[0]
	}

	return findEnv(location[1:])
}

// GetEnv retrieves the value stored in conf, falling back to the environment.
// If it does not exist "" empty string is returned.
func GetEnv(key string) string {
	value, _ := LookupEnv(key)
	return value
}

// LookupEnv augments os.LookupEnv to look in the viper struct first.
func LookupEnv(key string) (string, bool) {
	mu.RLock()
	defer mu.RUnlock()

	if state == configgood && envVars != nil {
		if value := envVars.GetString(key); value != "" {
			return value, true
		}
	}

	return os.LookupEnv(key)
}

// GetEnvInt returns the integer stored under key, or def when it is missing or
// not a number.
func GetEnvInt(key string, def int) int {
	v, ok := LookupEnv(key)
	if !ok {
		return def
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return i
}

// GetEnvDuration parses values like "5m" or "90s". Bare integers are read as seconds.
func GetEnvDuration(key string, def time.Duration) time.Duration {
	v, ok := LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def
	}
	v = strings.TrimSpace(v)
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

// SetEnv adds key values into conf. This function should only be used in
// testing. Protect parameter is type *testing.T, and is there to ensure
// developers knowingly use it in the appropriate scope.
func SetEnv(protect *testing.T, key string, value string) error {
	mu.Lock()
	defer mu.Unlock()

	if state == configgood && envVars != nil {
		envVars.Set(key, value)
	}

	return os.Setenv(key, value)
}

// UnsetEnv "unsets" a variable. Like SetEnv, this should only be used in testing.
func UnsetEnv(protect *testing.T, key string) error {
	mu.Lock()
	defer mu.Unlock()

	if state == configgood && envVars != nil {
		envVars.Set(key, "")
	}

	return os.Unsetenv(key)
}
