package logger

import (
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/sirupsen/logrus"
)

// Log является глобальным экземпляром логгера для всего приложения.
var Log = logrus.New()

// Options описывает настройки логгера, читаемые из окружения.
type Options struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"text"`
}

// Init инициализирует глобальный логгер из переменных окружения.
// Вызывается один раз в main.go и в TestMain пакетов, которые пишут логи.
func Init() {
	var opts Options
	if err := env.Parse(&opts); err != nil {
		opts = Options{Level: "info", Format: "text"}
	}
	Configure(opts)
}

// Configure применяет настройки к глобальному логгеру.
func Configure(opts Options) {
	// 1. Уровень. Неизвестное значение -> info.
	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	Log.SetLevel(level)

	// 2. Форматтер: "json" для продакшена, текст для разработки.
	if strings.EqualFold(opts.Format, "json") {
		Log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
	}

	Log.SetOutput(os.Stdout)
}

// Component возвращает запись лога с полем component.
func Component(name string) *logrus.Entry {
	return Log.WithField("component", name)
}
