package config

import (
	"errors"
	"io/fs"
	"log"
	"strings"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads the first readable env file. Missing files are not an
// error; the process environment is used as is.
func LoadDotEnv(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		err := godotenv.Load(p)
		if err == nil {
			return
		}
		if !errors.Is(err, fs.ErrNotExist) {
			log.Printf("warning: could not load %s: %v", p, err)
		}
	}
	log.Printf("notice: no env file found, using system environment variables")
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
