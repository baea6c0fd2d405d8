package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ChristopherWirtOfficial/goofworld-economy/internal/domain"
	"github.com/ChristopherWirtOfficial/goofworld-economy/internal/systems"
)

// Все времена протокола - Unix milliseconds
func main() {
	if len(os.Args) < 2 {
		printHelp()
		return
	}

	switch os.Args[1] {
	case "now":
		fmt.Println(time.Now().UnixMilli())
	case "format":
		if len(os.Args) < 3 {
			fmt.Println("Usage: timeutil format <unix_ms>")
			return
		}
		ms, ok := parseMillis(os.Args[2])
		if !ok {
			return
		}
		fmt.Println(time.UnixMilli(ms).UTC().Format(time.RFC3339Nano))
	case "parse":
		if len(os.Args) < 3 {
			fmt.Println("Usage: timeutil parse <date_string>")
			return
		}
		t, err := time.Parse("2006-01-02 15:04:05", os.Args[2])
		if err != nil {
			fmt.Printf("Invalid date: %v\n", err)
			return
		}
		fmt.Println(t.UnixMilli())
	case "left":
		// Сколько осталось до revealedUntil
		if len(os.Args) < 3 {
			fmt.Println("Usage: timeutil left <revealed_until_ms>")
			return
		}
		ms, ok := parseMillis(os.Args[2])
		if !ok {
			return
		}
		left := time.Until(time.UnixMilli(ms)).Truncate(time.Second)
		if left < 0 {
			fmt.Printf("expired %s ago\n", -left)
			return
		}
		fmt.Println(left)
	case "reveal":
		// Срок раскрытия слоя, начатого в момент <ms> (по умолчанию сейчас)
		if len(os.Args) < 3 {
			fmt.Println("Usage: timeutil reveal <layer> [unix_ms]")
			return
		}
		layer, ok := domain.ParseLayer(os.Args[2])
		if !ok {
			fmt.Printf("Invalid layer: %s\n", os.Args[2])
			return
		}
		from := time.Now()
		if len(os.Args) > 3 {
			ms, ok := parseMillis(os.Args[3])
			if !ok {
				return
			}
			from = time.UnixMilli(ms)
		}
		policy, _ := systems.PolicyFor(layer)
		until := from.Add(policy.Duration)
		fmt.Printf("%d (%s, %d%% for %s)\n", until.UnixMilli(), until.UTC().Format(time.RFC3339), policy.Percent, policy.Duration)
	default:
		printHelp()
	}
}

func parseMillis(s string) (int64, bool) {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		fmt.Printf("Invalid timestamp: %v\n", err)
		return 0, false
	}
	return ms, true
}

func printHelp() {
	fmt.Println(`Time Utility - конвертация времени протокола (Unix ms)
Commands:
  now                      - текущее время в Unix ms
  format <unix_ms>         - преобразовать Unix ms в RFC3339 (UTC)
  parse <date_string>      - преобразовать дату в Unix ms (формат: YYYY-MM-DD HH:MM:SS)
  left <revealed_until>    - сколько осталось до истечения раскрытия
  reveal <layer> [unix_ms] - срок раскрытия слоя warehouse/store/household`)
}
