package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log является глобальным экземпляром логгера для всего приложения.
// До вызова Init это обычный logrus-логгер с настройками по умолчанию,
// поэтому библиотечный код (pkg/wfc) можно использовать и без Init.
var Log = logrus.New()

// Init настраивает глобальный логгер.
// Вызывается один раз при старте бинарника (cmd/*) или в TestMain.
func Init() {
	Log = logrus.New()

	// 1. Уровень логирования из переменной окружения.
	// По умолчанию - "info". Для трассировки шагов коллапса - "debug".
	logLevel, ok := os.LookupEnv("LOG_LEVEL")
	if !ok {
		logLevel = "info"
	}
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	Log.SetLevel(level)

	// 2. Форматтер: "json" для сбора логов, иначе человекочитаемый текст.
	if strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		Log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	Log.SetOutput(os.Stdout)
}

// WithComponent возвращает запись лога с заполненным полем component.
func WithComponent(name string) *logrus.Entry {
	return Log.WithField("component", name)
}
