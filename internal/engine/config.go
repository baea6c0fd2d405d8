package engine

import (
	"time"

	"github.com/ChristopherWirtOfficial/goofworld-economy/pkg/supply"
)

// Config хранит параметры запуска движка
type Config struct {
	// Seed - мастер-зерно. От него зависят генерация и все раскрытия.
	// 0 означает случайное (от времени).
	Seed int64

	// Topology - размеры графа, каталог, сила хаоса и тайминги партии
	Topology supply.Params

	// PersistTimeout ограничивает одно обращение к хранилищу внутри цикла
	PersistTimeout time.Duration

	// CommandBuffer - емкость очереди входящих действий
	CommandBuffer int

	// Clock подменяется в тестах
	Clock func() time.Time
}

// NewConfig создает конфиг по умолчанию (случайный сид)
func NewConfig() Config {
	return Config{
		Seed:           0,
		Topology:       supply.DefaultParams(),
		PersistTimeout: 5 * time.Second,
		CommandBuffer:  100,
		Clock:          time.Now,
	}
}
