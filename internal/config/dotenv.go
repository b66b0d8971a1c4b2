package config

import (
	"os"

	"github.com/joho/godotenv"
)

// LoadDotEnv 加载 .env 文件，优先级 .env.local > .env
// godotenv 不覆盖已有环境变量，系统环境变量始终优先
func LoadDotEnv() []string {
	var loaded []string
	for _, f := range []string{".env.local", ".env"} {
		if _, err := os.Stat(f); err == nil {
			loaded = append(loaded, f)
		}
	}
	if len(loaded) > 0 {
		_ = godotenv.Load(loaded...)
	}
	return loaded
}
