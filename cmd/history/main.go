package main

import (
	"chatrelay/internal/app/domain/chat"
	"chatrelay/internal/app/infrastructure/config"
	"chatrelay/internal/app/infrastructure/storage"
	"chatrelay/pkg/logger"
	"context"
	"flag"
	"fmt"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
	"io"
	"log"
	"os"
	"slices"
	"strconv"
	"time"
)

func main() {
	_ = godotenv.Load()

	path := flag.String("config", envOr("CHAT_CONFIG_PATH", "config.json"), "Path to config file")
	limit := flag.Int("n", 25, "Number of messages to show")
	flag.Parse()

	manager, err := config.New(*path)
	if err != nil {
		log.Fatal("Error loading config: ", err)
	}
	cfg := manager.Get()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	backend, err := storage.OpenBackend(ctx, cfg.Storage, logger.NewNop())
	if err != nil {
		log.Fatal(color.Red.Sprintf("Error opening %s store: %v", cfg.Storage.Driver, err))
	}
	defer backend.Close()

	records, err := backend.Latest(ctx, *limit)
	if err != nil {
		log.Fatal(color.Red.Sprintf("Error reading messages: %v", err))
	}

	printHistory(os.Stdout, backend.Name(), records)
}

// printHistory renders records oldest first, the order clients receive them.
func printHistory(w io.Writer, backend string, records []chat.Record) {
	records = slices.Clone(records)
	slices.Reverse(records)

	_, _ = fmt.Fprintln(w, color.New(color.FgGreen, color.OpBold).Sprintf("%d messages from %s", len(records), backend))

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Time", "Sender", "Content"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)

	for i, r := range records {
		table.Append([]string{
			strconv.Itoa(i + 1),
			time.UnixMilli(r.Timestamp).Format("2006-01-02 15:04:05"),
			r.Sender,
			r.Content,
		})
	}
	table.Render()
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
